package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/evbudget/internal/cli"
	"github.com/theirongolddev/evbudget/internal/store"
	"github.com/theirongolddev/evbudget/internal/tui/components"
	"github.com/theirongolddev/evbudget/internal/tui/theme"
)

type sharedState struct {
	cursor int
}

func storeTarget(eventID string) store.Target {
	if eventID == "" {
		return store.Shared
	}
	return store.EventTarget(eventID)
}

func (a App) updateSharedKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		return a.moveCursor(1), nil
	case "k", "up":
		return a.moveCursor(-1), nil
	case "c", "n":
		return a.openForm(formAddSharedCost, newFormValues())
	case "x":
		if a.shared.cursor >= len(a.state.SharedCosts) {
			return a, nil
		}
		item := a.state.SharedCosts[a.shared.cursor]
		if err := a.store.RemoveCostItem(store.Shared, item.ID); err != nil {
			a.setFlash(err.Error(), true)
		} else {
			a.setFlash("Costo compartido eliminado", false)
		}
		a.reload()
	}
	return a, nil
}

func (a App) renderSharedTab(cw int) string {
	t := theme.Active
	s := a.summary

	metrics := components.MetricCardRow([]components.Metric{
		{Label: "Costos compartidos", Value: cli.FormatCLP(s.TotalSharedCost),
			Note: fmt.Sprintf("%d ítems", len(a.state.SharedCosts))},
		{Label: "Por evento", Value: cli.FormatMoney(s.SharedCostPerEvent),
			Note: fmt.Sprintf("entre %d eventos", s.EventCount)},
	}, cw)

	innerW := components.CardInnerWidth(cw)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	amountStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	if len(a.state.SharedCosts) == 0 {
		b.WriteString(dimStyle.Render("Sin costos compartidos. Presiona c para agregar uno."))
	}
	for i, c := range a.state.SharedCosts {
		if i > 0 {
			b.WriteString("\n")
		}
		amount := cli.FormatCLP(c.Amount)
		descW := innerW - 2 - lipgloss.Width(amount) - 1
		desc := fmt.Sprintf("%-*s", descW, cli.Truncate(c.Description, descW))

		if i == a.shared.cursor {
			b.WriteString(selStyle.Render("▸ " + desc + " " + amount))
			continue
		}
		b.WriteString(valueStyle.Render("  "+desc+" ") + amountStyle.Render(amount))
	}

	if s.EventCount == 0 && len(a.state.SharedCosts) > 0 {
		b.WriteString("\n\n" + dimStyle.Render("Sin eventos: los costos compartidos no se asignan."))
	}

	return metrics + "\n" + components.ContentCard("Costos compartidos", b.String(), cw, true)
}
