package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// dispatchMsg carries a controller callback into Update so it runs on the
// program goroutine.
type dispatchMsg func()

// programDispatcher posts callbacks to a running program. Callbacks posted
// before Bind are dropped.
type programDispatcher struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

// Bind routes callbacks to send, normally (*tea.Program).Send.
func (d *programDispatcher) Bind(send func(tea.Msg)) {
	d.mu.Lock()
	d.send = send
	d.mu.Unlock()
}

func (d *programDispatcher) Dispatch(fn func()) {
	d.mu.RLock()
	send := d.send
	d.mu.RUnlock()
	if send != nil {
		send(dispatchMsg(fn))
	}
}
