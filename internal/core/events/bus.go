// Package events is the core's typed pub/sub fan-out to UI observers: the
// Single-Agent Loop, the Tool Dispatcher and the Swarm Scheduler all publish
// through one Bus per run, and a host (CLI, websocket bridge, test harness)
// subscribes by topic.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// HandlerFunc is called for every delivered event.
type HandlerFunc func(context.Context, any) error

// BusOption configures a Bus at construction time.
type BusOption func(*busConfig)

type busConfig struct {
	replayEnabled bool
	cacheSize     int
	bufferSize    int
	syncDelivery  bool
	logger        *slog.Logger
}

// WithBufferSize sets the internal event channel's buffer depth.
func WithBufferSize(size int) BusOption {
	return func(cfg *busConfig) { cfg.bufferSize = size }
}

// WithReplay enables a bounded replay cache so late subscribers can catch up.
func WithReplay(cacheSize int) BusOption {
	return func(cfg *busConfig) {
		cfg.replayEnabled = true
		cfg.cacheSize = cacheSize
	}
}

// WithLogger attaches a structured logger for handler-error reporting.
func WithLogger(logger *slog.Logger) BusOption {
	return func(cfg *busConfig) { cfg.logger = logger }
}

// WithSyncDelivery makes the delivery loop call each handler inline, one
// event at a time, for every topic on this Bus, so handlers see events in
// emit order (the order text deltas need to render correctly). Without it,
// each handler call runs on its own goroutine and carries no ordering.
func WithSyncDelivery() BusOption {
	return func(cfg *busConfig) { cfg.syncDelivery = true }
}

type envelope struct {
	topic   Topic
	payload any
}

// Subscription is returned by Subscribe; call Unsubscribe to stop delivery.
type Subscription struct {
	Topic       Topic
	CreatedAt   int64
	Handler     HandlerFunc
	ID          string
	WantsReplay bool
	SentEvents  map[string]bool
	Unsubscribe func()
}

type subscriberMap map[Topic]map[string]Subscription

// Bus is a lock-free (copy-on-write subscriber map), single-event-loop
// pub/sub hub. One Bus is created per run and torn down at run end.
type Bus struct {
	subscribers atomic.Pointer[subscriberMap]
	cache       atomic.Pointer[[]envelope]
	nextSubID   int64
	eventCount  int64

	events   chan envelope
	shutdown chan struct{}

	config busConfig

	closed int32
	wg     sync.WaitGroup
}

// NewBus constructs a Bus and starts its delivery loop.
func NewBus(opts ...BusOption) *Bus {
	cfg := busConfig{bufferSize: 512}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Bus{
		events:   make(chan envelope, cfg.bufferSize),
		shutdown: make(chan struct{}),
		config:   cfg,
	}

	empty := make(subscriberMap)
	b.subscribers.Store(&empty)

	if cfg.replayEnabled {
		emptyCache := make([]envelope, 0, cfg.cacheSize)
		b.cache.Store(&emptyCache)
	}

	go b.loop()
	return b
}

// Emit publishes value under topic. It blocks up to 5s against a full
// channel before reporting failure — a stuck subscriber must never hang a
// tool dispatch or loop iteration indefinitely.
func Emit[T any](b *Bus, topic Topic, value T) error {
	env := envelope{topic: topic, payload: value}
	select {
	case b.events <- env:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("events: emit timed out on topic %s", topic)
	}
}

// Subscribe registers a typed handler for topic and returns its Subscription.
func Subscribe[T any](b *Bus, topic Topic, handler func(context.Context, T) error, replay ...bool) Subscription {
	wantsReplay := len(replay) > 0 && replay[0]

	wrapped := HandlerFunc(func(ctx context.Context, data any) error {
		typed, ok := data.(T)
		if !ok {
			return fmt.Errorf("events: type assertion failed for %T, expected %T", data, *new(T))
		}
		return handler(ctx, typed)
	})

	id := atomic.AddInt64(&b.nextSubID, 1)
	sub := Subscription{
		Topic:       topic,
		CreatedAt:   time.Now().UnixNano(),
		Handler:     wrapped,
		ID:          fmt.Sprintf("%s-%d", topic, id),
		WantsReplay: wantsReplay,
		SentEvents:  make(map[string]bool),
	}

	b.addSubscription(sub)
	sub.Unsubscribe = func() { b.removeSubscription(sub.ID) }

	if b.config.replayEnabled && wantsReplay {
		b.replayTo(sub)
	}
	return sub
}

// Close stops the delivery loop. Idempotent.
func (b *Bus) Close() {
	if !atomic.CompareAndSwapInt32(&b.closed, 0, 1) {
		return
	}
	close(b.shutdown)

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}

func (b *Bus) loop() {
	b.wg.Add(1)
	defer b.wg.Done()

	for {
		select {
		case <-b.shutdown:
			return
		case env := <-b.events:
			atomic.AddInt64(&b.eventCount, 1)

			if b.config.replayEnabled {
				b.addToCache(env)
			}

			subs := b.subscribers.Load()
			if topicSubs, ok := (*subs)[env.topic]; ok {
				for _, sub := range topicSubs {
					b.deliver(sub, env, b.config.syncDelivery)
				}
			}
		}
	}
}

func (b *Bus) addSubscription(sub Subscription) {
	for {
		old := b.subscribers.Load()
		next := b.copySubscribers(*old)
		if _, ok := next[sub.Topic]; !ok {
			next[sub.Topic] = make(map[string]Subscription)
		}
		next[sub.Topic][sub.ID] = sub
		if b.subscribers.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (b *Bus) removeSubscription(id string) {
	for {
		old := b.subscribers.Load()
		next := b.copySubscribers(*old)

		found := false
		for topic, topicSubs := range next {
			if _, ok := topicSubs[id]; ok {
				delete(topicSubs, id)
				if len(topicSubs) == 0 {
					delete(next, topic)
				}
				found = true
				break
			}
		}
		if !found {
			return
		}
		if b.subscribers.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (b *Bus) copySubscribers(orig subscriberMap) subscriberMap {
	cp := make(subscriberMap, len(orig))
	for topic, topicSubs := range orig {
		cp[topic] = make(map[string]Subscription, len(topicSubs))
		for id, sub := range topicSubs {
			cp[topic][id] = sub
		}
	}
	return cp
}

func (b *Bus) addToCache(env envelope) {
	for {
		old := b.cache.Load()
		next := make([]envelope, len(*old))
		copy(next, *old)
		if len(next) == b.config.cacheSize {
			next = next[1:]
		}
		next = append(next, env)
		if b.cache.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (b *Bus) replayTo(sub Subscription) {
	if !b.config.replayEnabled {
		return
	}
	cache := b.cache.Load()
	for _, env := range *cache {
		if env.topic != sub.Topic {
			continue
		}
		key := fmt.Sprintf("%s-%v", env.topic, env.payload)
		if !sub.SentEvents[key] {
			b.deliver(sub, env, true)
			sub.SentEvents[key] = true
		}
	}
}

func (b *Bus) deliver(sub Subscription, env envelope, sync bool) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sub.Handler(ctx, env.payload); err != nil && b.config.logger != nil {
			b.config.logger.Debug("event handler error",
				"topic", env.topic, "error", err, "subscription_id", sub.ID)
		}
	}
	if sync {
		run()
	} else {
		go run()
	}
}
