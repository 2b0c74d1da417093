package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/evbudget/internal/budget"
	"github.com/theirongolddev/evbudget/internal/cli"
	"github.com/theirongolddev/evbudget/internal/tui/components"
	"github.com/theirongolddev/evbudget/internal/tui/theme"
)

func (a App) renderChartTab(cw int) string {
	t := theme.Active
	figs := a.summary.Events
	innerW := components.CardInnerWidth(cw)

	if len(figs) == 0 {
		dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
		return components.ContentCard("Margen de ganancia", dim.Render("Sin eventos para graficar."), cw, true)
	}

	rows := make([]components.MarginRow, len(figs))
	for i, f := range figs {
		rows[i] = components.MarginRow{Label: f.Name, Margin: f.ProfitMargin}
	}
	chart := components.MarginChart(rows, budget.MarginScale(figs), innerW)

	labelW := 0
	for _, f := range figs {
		labelW = max(labelW, lipgloss.Width(f.Name))
	}
	labelW = min(labelW, innerW/3)
	barW := max(innerW-labelW-6, 10)

	var bars strings.Builder
	for i, f := range figs {
		if i > 0 {
			bars.WriteString("\n")
		}
		spent := 0.0
		if f.TotalBudget > 0 {
			spent, _ = f.TotalSpent.Div(decimal.NewFromInt(f.TotalBudget)).Float64()
		}
		bars.WriteString(components.BudgetBar(cli.Truncate(f.Name, labelW), spent,
			budget.Health(f.Remaining, f.TotalBudget), labelW, barW))
	}

	return components.ContentCard("Margen de ganancia", chart, cw, true) + "\n" +
		components.ContentCard("Presupuesto consumido", bars.String(), cw, false)
}
