package screen

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher delivers completion callbacks to the interactive thread.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// Inline runs callbacks on whichever goroutine completed the task.
var Inline Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// Loop is a single goroutine that runs dispatched callbacks one at a time in
// the order they were dispatched.
type Loop struct {
	logger *zap.Logger
	fns    chan func()

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewLoop builds a loop with room for buffer pending callbacks.
func NewLoop(buffer int, logger *zap.Logger) *Loop {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{logger: logger, fns: make(chan func(), buffer)}
}

// Start begins consuming callbacks. Safe to call once.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true
	l.wg.Add(1)
	go l.run()
}

// Stop ends the loop and waits for the running callback, if any.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return
	}
	l.cancel()
	l.mu.Unlock()
	l.wg.Wait()
}

// Dispatch queues fn. Callbacks dispatched before Start or after Stop are dropped.
func (l *Loop) Dispatch(fn func()) {
	l.mu.Lock()
	ctx, started := l.ctx, l.started
	l.mu.Unlock()
	if !started {
		l.logger.Warn("dispatch on a loop that was never started")
		return
	}
	select {
	case <-ctx.Done():
	case l.fns <- fn:
	}
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.ctx.Done():
			return
		case fn := <-l.fns:
			fn()
		}
	}
}
