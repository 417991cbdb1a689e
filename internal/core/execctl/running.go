// Package execctl holds the one piece of truly shared mutable state in the
// core: the process-wide running flag that every Actuator call, loop
// iteration, and swarm polling loop checks to implement cooperative
// cancellation. atomic.Bool already gives acquire/release ordering on its
// Load/Store pair, which is the guarantee the concurrency model asks for.
package execctl

import (
	"sync/atomic"
	"time"
)

// PollInterval is how often the Tool Dispatcher's cancellation race checks
// the flag against an in-flight Actuator call.
const PollInterval = 100 * time.Millisecond

// Flag is the process-wide cancellation signal for one run. A fresh Flag
// is created per run so a prior run's cancellation can never leak into the
// next one.
type Flag struct {
	running atomic.Bool
}

// New returns a Flag already in the running state.
func New() *Flag {
	f := &Flag{}
	f.running.Store(true)
	return f
}

// Stop requests cancellation. Idempotent.
func (f *Flag) Stop() { f.running.Store(false) }

// Running reports whether the run is still permitted to perform side effects.
func (f *Flag) Running() bool { return f.running.Load() }

// WaitOrCancel races op (run on its own goroutine) against PollInterval
// ticks of the flag. It returns op's result (with cancelled=false) if it
// finishes first, or a zero value, a nil error and cancelled=true the first
// time the flag is observed false. It does not
// abort op's goroutine — callers that need the underlying call interrupted
// must pass a cancellable context into op and cancel it themselves on the
// cancelled path.
func WaitOrCancel[T any](f *Flag, op func() (T, error)) (T, error, bool) {
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := op()
		done <- result{v, err}
	}()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case r := <-done:
			return r.val, r.err, false
		case <-ticker.C:
			if !f.Running() {
				select {
				case r := <-done:
					return r.val, r.err, false
				default:
					var zero T
					return zero, nil, true
				}
			}
		}
	}
}
