package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/evbudget/internal/cli"
	"github.com/theirongolddev/evbudget/internal/tui/theme"
)

// MarginRow is one bar in the profitability chart.
type MarginRow struct {
	Label  string
	Margin decimal.Decimal // percent
}

// MarginColor picks a color on the red-yellow-green gradient for a margin.
// -scale maps to the theme's red, zero to yellow, +scale to green.
func MarginColor(margin, scale decimal.Decimal) lipgloss.Color {
	t := theme.Active
	if !scale.IsPositive() {
		return t.Yellow
	}

	pos, _ := margin.Div(scale).Float64()
	if pos > 1 {
		pos = 1
	}
	if pos < -1 {
		pos = -1
	}

	from, to := t.Yellow, t.Green
	if pos < 0 {
		to = t.Red
		pos = -pos
	}

	a, errA := colorful.Hex(string(from))
	b, errB := colorful.Hex(string(to))
	if errA != nil || errB != nil {
		// ANSI-indexed themes cannot be blended.
		if pos < 0.5 {
			return from
		}
		return to
	}
	return lipgloss.Color(a.BlendLuv(b, pos).Clamped().Hex())
}

// MarginChart renders a signed horizontal bar per row around a shared zero
// axis, scaled so the largest absolute margin fills half the bar area.
func MarginChart(rows []MarginRow, scale decimal.Decimal, width int) string {
	if len(rows) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	for _, r := range rows {
		if w := lipgloss.Width(r.Label); w > labelW {
			labelW = w
		}
	}
	if labelW > width/3 {
		labelW = width / 3
	}

	valueW := 9
	half := (width - labelW - valueW - 3) / 2
	if half < 4 {
		half = 4
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		label := cli.Truncate(r.Label, labelW)
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)))
		b.WriteString(space.Render(" "))

		n := 0
		if scale.IsPositive() && !r.Margin.IsZero() {
			n = int(r.Margin.Abs().Div(scale).Mul(decimal.NewFromInt(int64(half))).Round(0).IntPart())
			n = min(max(n, 1), half)
		}
		barStyle := lipgloss.NewStyle().Foreground(MarginColor(r.Margin, scale)).Background(t.Surface)
		bar := strings.Repeat("█", n)

		if r.Margin.IsNegative() {
			b.WriteString(space.Render(strings.Repeat(" ", half-n)))
			b.WriteString(barStyle.Render(bar))
			b.WriteString(axisStyle.Render("│"))
			b.WriteString(space.Render(strings.Repeat(" ", half)))
		} else {
			b.WriteString(space.Render(strings.Repeat(" ", half)))
			b.WriteString(axisStyle.Render("│"))
			b.WriteString(barStyle.Render(bar))
			b.WriteString(space.Render(strings.Repeat(" ", half-n)))
		}

		b.WriteString(space.Render(" "))
		b.WriteString(barStyle.Bold(true).Render(fmt.Sprintf("%*s", valueW, cli.FormatPercent(r.Margin))))
	}

	b.WriteString("\n")
	b.WriteString(space.Render(strings.Repeat(" ", labelW+1)))
	axis := fmt.Sprintf("%-*s%s%*s", half, "-"+cli.FormatPercent(scale), "0", half, cli.FormatPercent(scale))
	b.WriteString(axisStyle.Render(axis))
	return b.String()
}
