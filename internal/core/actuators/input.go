package actuators

import (
	"fmt"

	"github.com/agentcore/core/internal/core/types"
)

// inputBackend performs the OS-level mouse/keyboard call for one verb. Each
// platform file (input_darwin.go, input_linux.go, input_windows.go) supplies
// the concrete implementation via newPlatformBackend.
type inputBackend interface {
	click(p types.Point, button string, clicks int) error
	move(p types.Point) error
	drag(from, to types.Point) error
	typeText(text string) error
	pressKey(key string) error
	scroll(direction string, amount int) error
}

type inputJob struct {
	action types.ComputerAction
	done   chan error
}

// inputWorker serializes every input call onto a single goroutine, since the
// OS input APIs this wraps (CGEvent, xdotool/ydotool, SendInput) are not
// safe to drive concurrently from arbitrary goroutines. Callers block on
// run() until the worker has executed the call.
type inputWorker struct {
	backend inputBackend
	jobs    chan inputJob
	stop    chan struct{}
}

func newInputWorker() *inputWorker {
	w := &inputWorker{
		backend: newPlatformBackend(),
		jobs:    make(chan inputJob),
		stop:    make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *inputWorker) loop() {
	pinWorkerThread()
	for {
		select {
		case job := <-w.jobs:
			job.done <- w.dispatch(job.action)
		case <-w.stop:
			return
		}
	}
}

func (w *inputWorker) close() {
	close(w.stop)
}

func (w *inputWorker) run(action types.ComputerAction) error {
	done := make(chan error, 1)
	w.jobs <- inputJob{action: action, done: done}
	return <-done
}

func (w *inputWorker) dispatch(action types.ComputerAction) error {
	switch action.Verb {
	case types.VerbClick:
		return w.backend.click(pointOf(action.Coordinate), "left", 1)
	case types.VerbDoubleClick:
		return w.backend.click(pointOf(action.Coordinate), "left", 2)
	case types.VerbMove:
		return w.backend.move(pointOf(action.Coordinate))
	case types.VerbDrag:
		if action.StartCoordinate == nil {
			return fmt.Errorf("actuators: drag requires start_coordinate")
		}
		return w.backend.drag(pointOf(action.StartCoordinate), pointOf(action.Coordinate))
	case types.VerbType:
		return w.backend.typeText(action.Text)
	case types.VerbKey:
		return w.backend.pressKey(action.Key)
	case types.VerbScroll:
		amount := action.ScrollAmount
		if amount <= 0 {
			amount = 3
		}
		return w.backend.scroll(action.ScrollDirection, amount)
	case types.VerbWait:
		return nil
	default:
		return fmt.Errorf("actuators: unsupported verb %q", action.Verb)
	}
}

func pointOf(p *types.Point) types.Point {
	if p == nil {
		return types.Point{}
	}
	return *p
}
