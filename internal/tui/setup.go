package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/screen"
	"github.com/noah-isme/results-app/internal/session"
)

const (
	fieldStatus = iota
	fieldCode
	fieldNip
	fieldEmail
	fieldCount
)

// setupPane is the view of the crawler setup screen.
type setupPane struct {
	controller *screen.SetupController

	status  bool
	inputs  [fieldCount]textinput.Model
	focus   int
	classes []models.CrawlerClass
	loading bool
	saveErr error
}

func newSetupPane() *setupPane {
	p := &setupPane{}
	placeholders := [fieldCount]string{"", "permanent code", "NIP", "notification email"}
	for i := fieldCode; i < fieldCount; i++ {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 120
		p.inputs[i] = ti
	}
	p.inputs[fieldNip].EchoMode = textinput.EchoPassword
	return p
}

func (p *setupPane) SetProgress(loading bool) { p.loading = loading }

func (p *setupPane) ShowConfig(cfg models.CrawlerConfig) {
	p.status = cfg.Status
	p.inputs[fieldCode].SetValue(cfg.Code)
	p.inputs[fieldNip].SetValue(cfg.Nip)
	p.inputs[fieldEmail].SetValue(cfg.NotificationEmail)
	for i := fieldCode; i < fieldCount; i++ {
		p.inputs[i].CursorEnd()
	}
}

func (p *setupPane) ShowClasses(classes []models.CrawlerClass) { p.classes = classes }

func (p *setupPane) SaveFinished(_ models.CrawlerConfig, err error) { p.saveErr = err }

func (p *setupPane) current() models.CrawlerConfig {
	return models.CrawlerConfig{
		Status:            p.status,
		Code:              strings.TrimSpace(p.inputs[fieldCode].Value()),
		Nip:               strings.TrimSpace(p.inputs[fieldNip].Value()),
		NotificationEmail: strings.TrimSpace(p.inputs[fieldEmail].Value()),
	}
}

// blur leaves the focused field and saves when it was a text field.
func (p *setupPane) blur() {
	if p.focus == fieldStatus {
		return
	}
	p.inputs[p.focus].Blur()
	p.controller.Save(p.current())
}

func (p *setupPane) setFocus(field int) tea.Cmd {
	p.blur()
	p.focus = field
	if field == fieldStatus {
		return nil
	}
	return p.inputs[field].Focus()
}

func (p *setupPane) update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "down", "enter":
			return p.setFocus((p.focus + 1) % fieldCount)
		case "up":
			return p.setFocus((p.focus - 1 + fieldCount) % fieldCount)
		case " ", "space":
			if p.focus == fieldStatus {
				p.status = !p.status
				p.controller.Save(p.current())
				return nil
			}
		}
	}
	if p.focus == fieldStatus {
		return nil
	}
	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	return cmd
}

func (p *setupPane) view(spinner string) string {
	var b strings.Builder
	if p.loading {
		b.WriteString(spinner + " Loading...\n\n")
	}

	check := "[ ]"
	if p.status {
		check = "[x]"
	}
	status := check + " Crawler enabled"
	if p.focus == fieldStatus {
		status = selectedStyle.Render(status)
	} else {
		status = normalStyle.Render(status)
	}
	b.WriteString(status + "\n")

	labels := [fieldCount]string{"", "Code", "NIP", "Email"}
	for i := fieldCode; i < fieldCount; i++ {
		b.WriteString(fmt.Sprintf(" %-6s %s\n", labels[i], p.inputs[i].View()))
	}
	if p.saveErr != nil {
		b.WriteString(errorStyle.Render(" Save failed: "+p.saveErr.Error()) + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("Classes") + "\n")
	if len(p.classes) == 0 {
		b.WriteString(dimStyle.Render(" No tracked classes.") + "\n")
	}
	for _, class := range p.classes {
		b.WriteString(fmt.Sprintf(" %-12s gr. %-4s %s\n", class.Name, class.Group, session.Format(session.ID(class.Year))))
	}
	return b.String()
}
