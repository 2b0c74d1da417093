package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/evbudget/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar with key hints on the left
// and a flash message on the right. Errors render in red.
func RenderStatusBar(width int, hints, message string, isErr bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	msgStyle := style.Foreground(t.Accent)
	if isErr {
		msgStyle = style.Foreground(t.Red)
	}

	left := " " + hints
	right := ""
	if message != "" {
		right = message + " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left+strings.Repeat(" ", padding)) + msgStyle.Render(right)
}
