// Package screen holds the per-screen orchestration shared by every front
// end: at most one fetch in flight per screen, a progress flag reported
// without flicker, and results applied on the interactive thread.
package screen

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// State of a screen.
type State int

const (
	Idle State = iota
	Loading
)

func (s State) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

type task struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// tracker is the Idle/Loading state machine of one screen.
type tracker struct {
	dispatch Dispatcher
	logger   *zap.Logger
	progress func(bool)

	mu      sync.Mutex
	state   State
	current *task

	// notify orders progress reports; shown is guarded by it.
	notify sync.Mutex
	shown  bool
}

func newTracker(dispatch Dispatcher, logger *zap.Logger, progress func(bool)) *tracker {
	if dispatch == nil {
		dispatch = Inline
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tracker{dispatch: dispatch, logger: logger, progress: progress}
}

// begin moves Idle to Loading. It fails while another task is in flight.
func (t *tracker) begin() (*task, bool) {
	t.mu.Lock()
	if t.current != nil {
		t.mu.Unlock()
		return nil, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	tk := &task{ctx: ctx, cancel: cancel}
	t.current = tk
	t.state = Loading
	t.mu.Unlock()

	t.sync()
	return tk, true
}

// owns reports whether tk is still the task in flight. A cancelled or
// superseded task must not touch the screen.
func (t *tracker) owns(tk *task) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current == tk
}

// finish clears tk when it is still the current task.
func (t *tracker) finish(tk *task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tk.cancel()
	if t.current == tk {
		t.current = nil
		t.state = Idle
	}
}

// abort cancels the task in flight and frees the slot immediately.
func (t *tracker) abort() {
	t.mu.Lock()
	if t.current == nil {
		t.mu.Unlock()
		return
	}
	t.current.cancel()
	t.current = nil
	t.state = Idle
	t.mu.Unlock()

	t.sync()
}

func (t *tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// sync reports the progress flag to the view when it no longer matches the
// state. Reports are delivered one at a time, each reading the state it
// reports, so the last one always matches. progress must not call back into
// the controller.
func (t *tracker) sync() {
	t.notify.Lock()
	defer t.notify.Unlock()

	want := t.State() == Loading
	if want == t.shown {
		return
	}
	t.shown = want
	if t.progress != nil {
		t.progress(want)
	}
}

// launch runs fetch off the interactive thread and applies its value through
// the dispatcher. Failures are logged and leave prior data untouched.
func launch[T any](t *tracker, tk *task, name string, fetch func(context.Context) (T, error), apply func(T)) {
	go func() {
		value, err := fetch(tk.ctx)
		t.dispatch.Dispatch(func() {
			if !t.owns(tk) {
				tk.cancel()
				t.logger.Debug("dropping stale result", zap.String("task", name))
				return
			}
			if err != nil {
				t.logger.Warn("screen task failed", zap.String("task", name), zap.Error(err))
			} else {
				apply(value)
			}
			t.finish(tk)
			t.sync()
		})
	}()
}
