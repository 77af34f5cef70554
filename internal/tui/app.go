// Package tui runs the results and crawler setup screens in the terminal.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/noah-isme/results-app/internal/screen"
)

// API is what the screens need from the results client.
type API interface {
	screen.ResultsSource
	screen.SetupSource
}

type tab int

const (
	tabResults tab = iota
	tabSetup
)

// Options configures the program.
type Options struct {
	Logger         *zap.Logger
	RecentSessions int
	Now            func() time.Time
}

// Model is the root bubbletea model. It is used through a pointer so the
// screen views it owns stay addressable by the controllers.
type Model struct {
	dispatcher *programDispatcher
	results    *resultsPane
	setup      *setupPane
	spinner    spinner.Model

	active tab
}

// New builds the model and its controllers.
func New(api API, opts Options) *Model {
	d := &programDispatcher{}
	screenOpts := screen.Options{
		Dispatcher:     d,
		Logger:         opts.Logger,
		Now:            opts.Now,
		RecentSessions: opts.RecentSessions,
	}

	results := &resultsPane{}
	results.controller = screen.NewResultsController(api, results, screenOpts)
	setup := newSetupPane()
	setup.controller = screen.NewSetupController(api, setup, screenOpts)

	return &Model{
		dispatcher: d,
		results:    results,
		setup:      setup,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Bind connects controller callbacks to the program. Call it before Run.
func (m *Model) Bind(send func(tea.Msg)) {
	m.dispatcher.Bind(send)
}

func (m *Model) Init() tea.Cmd {
	m.results.controller.Activate()
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dispatchMsg:
		msg()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()
		case "tab":
			return m, m.toggle()
		case "q":
			if m.active == tabResults || m.setup.focus == fieldStatus {
				return m, m.quit()
			}
		}
		if m.active == tabResults {
			m.results.update(msg)
			return m, nil
		}
	}

	if m.active == tabSetup {
		return m, m.setup.update(msg)
	}
	return m, nil
}

func (m *Model) toggle() tea.Cmd {
	if m.active == tabResults {
		m.results.controller.Close()
		m.active = tabSetup
		m.setup.controller.Activate()
		return nil
	}
	m.setup.setFocus(fieldStatus)
	m.setup.controller.Close()
	m.active = tabResults
	m.results.controller.Activate()
	return nil
}

func (m *Model) quit() tea.Cmd {
	if m.active == tabSetup {
		m.setup.setFocus(fieldStatus)
	}
	m.results.controller.Close()
	m.setup.controller.Close()
	return tea.Quit
}

func (m *Model) View() string {
	var b strings.Builder
	tabs := []string{"Results", "Setup"}
	for i, name := range tabs {
		if tab(i) == m.active {
			b.WriteString(activeTabStyle.Render(name))
		} else {
			b.WriteString(tabStyle.Render(name))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n\n")

	spin := m.spinner.View()
	if m.active == tabResults {
		b.WriteString(m.results.view(spin))
		b.WriteString("\n" + helpStyle.Render("←/→ session • r refresh • tab setup • q quit"))
	} else {
		b.WriteString(m.setup.view(spin))
		b.WriteString("\n" + helpStyle.Render("↑/↓ field (saves on leave) • space toggle • tab results • q quit"))
	}
	return b.String() + "\n"
}

// Run starts the program on the alternate screen and blocks until the user
// quits or ctx is cancelled. Saves still running are awaited before return.
func Run(ctx context.Context, api API, opts Options) error {
	m := New(api, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.Bind(p.Send)
	_, err := p.Run()
	m.setup.controller.WaitSaves()
	return err
}
