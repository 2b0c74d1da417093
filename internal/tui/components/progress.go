package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/evbudget/internal/model"
	"github.com/theirongolddev/evbudget/internal/tui/theme"
)

// ColorForHealth returns green, yellow or red for a budget health level.
func ColorForHealth(h model.Health) lipgloss.Color {
	t := theme.Active
	switch h {
	case model.HealthCritical:
		return t.Red
	case model.HealthWarning:
		return t.Yellow
	default:
		return t.Green
	}
}

// BudgetBar renders how much of a budget is spent. spentPct is clamped to
// [0, 1]; overspent budgets render full.
func BudgetBar(label string, spentPct float64, h model.Health, labelW, barWidth int) string {
	t := theme.Active

	if spentPct < 0 {
		spentPct = 0
	}
	if spentPct > 1 {
		spentPct = 1
	}

	color := ColorForHealth(h)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(spentPct) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", spentPct*100))
}
