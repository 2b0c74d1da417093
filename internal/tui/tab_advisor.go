package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/evbudget/internal/advisor"
	"github.com/theirongolddev/evbudget/internal/tui/components"
	"github.com/theirongolddev/evbudget/internal/tui/theme"
)

type advisorState struct {
	input    textinput.Model
	editing  bool
	loading  bool
	spinner  spinner.Model
	question string
	answer   string
	viewport viewport.Model
}

func newAdvisorState(sp spinner.Model) advisorState {
	ti := textinput.New()
	ti.Placeholder = advisor.DefaultQuestion
	ti.CharLimit = 500
	ti.Prompt = "› "

	return advisorState{
		input:    ti,
		spinner:  sp,
		viewport: viewport.New(80, 10),
	}
}

// resize fits the answer viewport below the question card.
func (s *advisorState) resize(cw, contentH int) {
	s.input.Width = components.CardInnerWidth(cw) - 4
	s.viewport.Width = components.CardInnerWidth(cw)
	s.viewport.Height = max(contentH-8, 3)
}

// renderAdvice re-renders the markdown answer at the current width.
func (a *App) renderAdvice() {
	if a.adv.answer == "" {
		a.adv.viewport.SetContent("")
		return
	}
	out, err := a.md.Render(a.adv.answer, a.adv.viewport.Width)
	if err != nil {
		out = a.adv.answer
	}
	a.adv.viewport.SetContent(strings.TrimRight(out, "\n"))
	a.adv.viewport.GotoTop()
}

func (a App) updateAdvisorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "/":
		if a.adv.loading {
			return a, nil
		}
		a.adv.editing = true
		return a, a.adv.input.Focus()
	case "y":
		if a.adv.answer == "" {
			return a, nil
		}
		a.setFlash("Consejo copiado", false)
		return a, copyCmd(a.adv.answer)
	case "j", "down":
		return a.moveCursor(1), nil
	case "k", "up":
		return a.moveCursor(-1), nil
	}

	var cmd tea.Cmd
	a.adv.viewport, cmd = a.adv.viewport.Update(msg)
	return a, cmd
}

func (a App) updateAdvisorInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			a.adv.editing = false
			a.adv.input.Blur()
			return a, nil
		case "enter":
			if a.advisor == nil {
				a.adv.editing = false
				a.adv.input.Blur()
				a.setFlash("Asesor no configurado: ejecuta evbudget setup", true)
				return a, nil
			}
			q := strings.TrimSpace(a.adv.input.Value())
			if q == "" {
				q = advisor.DefaultQuestion
			}
			a.adv.editing = false
			a.adv.input.Blur()
			a.adv.input.SetValue("")
			a.adv.loading = true
			a.adv.question = q
			return a, tea.Batch(askCmd(a.advisor, a.state, q), a.adv.spinner.Tick)
		}
	}

	var cmd tea.Cmd
	a.adv.input, cmd = a.adv.input.Update(msg)
	return a, cmd
}

func (a App) renderAdvisorTab(cw int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var ask string
	switch {
	case a.advisor == nil:
		ask = muted.Render("No hay proveedor configurado. Ejecuta evbudget setup para habilitar el asesor.")
	case a.adv.editing:
		ask = a.adv.input.View()
	default:
		ask = dim.Render("Presiona enter para preguntar.")
	}
	askCard := components.ContentCard("Pregunta al asesor", ask, cw, a.adv.editing)

	var body string
	switch {
	case a.adv.loading:
		body = a.adv.spinner.View() + muted.Render(" Consultando: "+a.adv.question)
	case a.adv.answer == "":
		body = dim.Render("Aún no hay consejos.")
	default:
		body = muted.Render(a.adv.question) + "\n\n" + a.adv.viewport.View()
	}
	answerCard := components.ContentCard("Consejo", body, cw, !a.adv.editing && a.adv.answer != "")

	return askCard + "\n" + answerCard
}
