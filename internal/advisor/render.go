package advisor

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

// Markdown renders advice replies for the terminal, caching one renderer
// per wrap width.
type Markdown struct {
	mu       sync.Mutex
	accent   string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer whose headings use the accent hex color.
func NewMarkdown(accentHex string) *Markdown {
	return &Markdown{accent: accentHex}
}

// Render converts markdown to styled text. On failure the input is returned
// unchanged along with the error.
func (m *Markdown) Render(md string, width int) (string, error) {
	r, err := m.get(width)
	if err != nil {
		return md, err
	}
	out, err := r.Render(md)
	if err != nil {
		return md, err
	}
	return strings.TrimRight(out, "\n"), nil
}

func (m *Markdown) get(width int) (*glamour.TermRenderer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.renderer != nil && m.width == width {
		return m.renderer, nil
	}

	style := glamourstyles.DarkStyleConfig
	if m.accent != "" {
		accent := m.accent
		bold := true
		style.H1.Color = &accent
		style.H1.Bold = &bold
		style.H2.Color = &accent
		style.H3.Color = &accent
	}
	var zero uint
	style.Document.Margin = &zero

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(termenv.TrueColor),
	)
	if err != nil {
		return nil, err
	}
	m.renderer = r
	m.width = width
	return r, nil
}
