package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/report"
	"github.com/noah-isme/results-app/internal/screen"
	"github.com/noah-isme/results-app/internal/session"
)

// resultsPane is the view of the results screen. Its methods are called on
// the program goroutine only.
type resultsPane struct {
	controller *screen.ResultsController

	sessions []session.ID
	cursor   int
	shown    session.ID
	results  *models.Results
	loading  bool
}

func (p *resultsPane) SetProgress(loading bool) { p.loading = loading }

func (p *resultsPane) ShowSessions(sessions []session.ID, selected session.ID) {
	p.sessions = sessions
	p.cursor = 0
	for i, id := range sessions {
		if id == selected {
			p.cursor = i
		}
	}
}

func (p *resultsPane) ShowResults(id session.ID, results *models.Results) {
	p.shown = id
	p.results = results
}

func (p *resultsPane) update(msg tea.KeyMsg) {
	switch msg.String() {
	case "left", "h":
		p.move(1)
	case "right", "l":
		p.move(-1)
	case "r":
		p.controller.Refresh()
	}
}

// move walks the picker; sessions are newest first so left goes back in time.
func (p *resultsPane) move(delta int) {
	next := p.cursor + delta
	if next < 0 || next >= len(p.sessions) {
		return
	}
	if p.controller.SelectSession(p.sessions[next]) {
		p.cursor = next
	}
}

func (p *resultsPane) view(spinner string) string {
	var b strings.Builder

	picker := make([]string, 0, len(p.sessions))
	for i := len(p.sessions) - 1; i >= 0; i-- {
		label := session.Format(p.sessions[i])
		if i == p.cursor {
			picker = append(picker, selectedStyle.Render(label))
		} else {
			picker = append(picker, normalStyle.Render(label))
		}
	}
	b.WriteString(strings.Join(picker, " "))
	b.WriteString("\n\n")

	if p.loading {
		b.WriteString(spinner + " Loading...\n\n")
	}

	switch {
	case p.results == nil:
		if !p.loading {
			b.WriteString(dimStyle.Render("No results loaded.") + "\n")
		}
	case len(p.results.Classes) == 0:
		b.WriteString(dimStyle.Render("No classes in "+session.Format(p.shown)+".") + "\n")
	default:
		b.WriteString(renderClasses(p.results))
	}

	if p.results != nil && !p.results.LastUpdate.IsZero() {
		b.WriteString("\n" + dimStyle.Render("Last update: "+p.results.LastUpdate.Local().Format("2006-01-02 15:04")) + "\n")
	}
	return b.String()
}

func renderClasses(results *models.Results) string {
	var b strings.Builder
	data := report.Dataset(results)
	current := ""
	for _, row := range data.Rows {
		if class := row[report.ColClass] + " (" + row[report.ColGroup] + ")"; class != current {
			if current != "" {
				b.WriteString("\n")
			}
			current = class
			b.WriteString(classStyle.Render(class) + "\n")
		}
		line := fmt.Sprintf("  %-22s %10s %10s %10s %10s",
			row[report.ColEvaluation], row[report.ColResult], row[report.ColAverage],
			row[report.ColStandardDev], row[report.ColWeighted])
		switch row[report.ColEvaluation] {
		case report.TotalLabel:
			line = totalStyle.Render(line)
		case report.FinalLabel:
			line = finalStyle.Render(fmt.Sprintf("  %-22s %10s", report.FinalLabel, row[report.ColResult]))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
