package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEmitDeliversTypedPayload(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var mu sync.Mutex
	var got []StatusPayload
	Subscribe(b, TopicStatus, func(_ context.Context, p StatusPayload) error {
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
		return nil
	})

	require.NoError(t, Emit(b, TopicStatus, StatusPayload{Message: "starting"}))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})
	mu.Lock()
	require.Equal(t, "starting", got[0].Message)
	mu.Unlock()
}

// Text deltas are the one topic whose arrival order is observable to a UI;
// synchronous delivery must preserve it.
func TestSyncDeliveryPreservesTextDeltaOrder(t *testing.T) {
	b := NewBus(WithSyncDelivery())
	defer b.Close()

	var mu sync.Mutex
	var got []string
	Subscribe(b, TopicTextDelta, func(_ context.Context, p TextDeltaPayload) error {
		mu.Lock()
		got = append(got, p.Text)
		mu.Unlock()
		return nil
	})

	want := []string{"the", " quick", " brown", " fox", " jumps"}
	for _, text := range want {
		require.NoError(t, Emit(b, TopicTextDelta, TextDeltaPayload{Text: text}))
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == len(want)
	})
	mu.Lock()
	require.Equal(t, want, got)
	mu.Unlock()
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(WithSyncDelivery())
	defer b.Close()

	var mu sync.Mutex
	count := 0
	sub := Subscribe(b, TopicStatus, func(_ context.Context, _ StatusPayload) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	require.NoError(t, Emit(b, TopicStatus, StatusPayload{Message: "one"}))
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	})

	sub.Unsubscribe()
	require.NoError(t, Emit(b, TopicStatus, StatusPayload{Message: "two"}))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	require.Equal(t, 1, count)
	mu.Unlock()
}

func TestTopicsAreIsolated(t *testing.T) {
	b := NewBus(WithSyncDelivery())
	defer b.Close()

	var mu sync.Mutex
	var statuses, errors int
	Subscribe(b, TopicStatus, func(_ context.Context, _ StatusPayload) error {
		mu.Lock()
		statuses++
		mu.Unlock()
		return nil
	})
	Subscribe(b, TopicError, func(_ context.Context, _ ErrorPayload) error {
		mu.Lock()
		errors++
		mu.Unlock()
		return nil
	})

	require.NoError(t, Emit(b, TopicStatus, StatusPayload{Message: "ok"}))
	require.NoError(t, Emit(b, TopicError, ErrorPayload{Message: "boom"}))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return statuses == 1 && errors == 1
	})
}

func TestReplayCatchesUpLateSubscriber(t *testing.T) {
	b := NewBus(WithReplay(16), WithSyncDelivery())
	defer b.Close()

	require.NoError(t, Emit(b, TopicStatus, StatusPayload{Message: "before"}))

	// Let the delivery loop cache the event before subscribing.
	time.Sleep(50 * time.Millisecond)

	var mu sync.Mutex
	var got []string
	Subscribe(b, TopicStatus, func(_ context.Context, p StatusPayload) error {
		mu.Lock()
		got = append(got, p.Message)
		mu.Unlock()
		return nil
	}, true)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})
	mu.Lock()
	require.Equal(t, []string{"before"}, got)
	mu.Unlock()
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBus()
	b.Close()
	b.Close()
}
