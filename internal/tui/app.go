// Package tui provides the interactive Bubble Tea dashboard for evbudget.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/evbudget/internal/advisor"
	"github.com/theirongolddev/evbudget/internal/budget"
	"github.com/theirongolddev/evbudget/internal/config"
	"github.com/theirongolddev/evbudget/internal/model"
	"github.com/theirongolddev/evbudget/internal/sheet"
	"github.com/theirongolddev/evbudget/internal/store"
	"github.com/theirongolddev/evbudget/internal/tui/components"
	"github.com/theirongolddev/evbudget/internal/tui/theme"
)

// StoreChangedMsg is sent for every committed store change.
type StoreChangedMsg struct {
	Change store.Change
}

// AdviceMsg carries an advisor reply.
type AdviceMsg struct {
	Question string
	Text     string
}

// ExportedMsg is sent when a workbook export finishes.
type ExportedMsg struct {
	Path string
	Err  error
}

// ImportedMsg is sent when a workbook import finishes.
type ImportedMsg struct {
	Report sheet.Report
	Err    error
}

const (
	tabEvents = iota
	tabShared
	tabChart
	tabAdvisor
)

const (
	minTerminalWidth = 80
	maxContentWidth  = 180
	minContentHeight = 5
)

// App is the root Bubble Tea model.
type App struct {
	store   *store.Store
	advisor *advisor.Advisor
	md      *advisor.Markdown
	cfg     config.Config
	changes <-chan store.Change

	// Derived from the latest snapshot
	state   model.State
	summary model.Summary

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	events eventsState
	shared sharedState
	adv    advisorState

	// Modal huh form
	form     *huh.Form
	formKind formKind
	formVals *formValues

	flash    string
	flashErr bool
}

// NewApp creates the dashboard over st. adv may be nil when no advice
// provider is configured. Store changes are followed until ctx is done.
func NewApp(ctx context.Context, st *store.Store, adv *advisor.Advisor, cfg config.Config) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		store:   st,
		advisor: adv,
		md:      advisor.NewMarkdown(string(theme.Active.Accent)),
		cfg:     cfg,
		changes: st.Subscribe(ctx),
		adv:     newAdvisorState(sp),
	}
	a.reload()
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		waitForChange(a.changes),
	)
}

func waitForChange(ch <-chan store.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return StoreChangedMsg{Change: c}
	}
}

// reload refreshes the snapshot and clamps cursors to it.
func (a *App) reload() {
	a.state = a.store.Snapshot()
	a.summary = budget.Compute(a.state)

	a.events.cursor = clamp(a.events.cursor, len(a.state.Events))
	a.events.item = clamp(a.events.item, len(a.detailItems()))
	a.shared.cursor = clamp(a.shared.cursor, len(a.state.SharedCosts))
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (a *App) setFlash(msg string, isErr bool) {
	a.flash = msg
	a.flashErr = isErr
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(a.formWidth())
		}
		a.adv.resize(a.contentWidth(), a.contentHeight())
		a.renderAdvice()
		return a, nil

	case StoreChangedMsg:
		a.reload()
		return a, waitForChange(a.changes)

	case AdviceMsg:
		a.adv.loading = false
		a.adv.question = msg.Question
		a.adv.answer = msg.Text
		a.renderAdvice()
		return a, nil

	case ExportedMsg:
		if msg.Err != nil {
			a.setFlash("Error al exportar: "+msg.Err.Error(), true)
		} else {
			a.setFlash("Exportado a "+msg.Path, false)
		}
		return a, nil

	case ImportedMsg:
		if msg.Err != nil {
			a.setFlash(msg.Err.Error(), true)
		} else {
			a.setFlash(importSummary(msg.Report), false)
		}
		a.reload()
		return a, nil

	case spinner.TickMsg:
		if a.adv.loading {
			var cmd tea.Cmd
			a.adv.spinner, cmd = a.adv.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	if a.form != nil {
		return a.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		return a.updateMouse(msg)
	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	if a.activeTab == tabAdvisor && a.adv.editing {
		return a.updateAdvisorInput(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.showHelp {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return a.moveCursor(-1), nil
	case tea.MouseButtonWheelDown:
		return a.moveCursor(1), nil
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// The advisor question input swallows every other key.
	if a.activeTab == tabAdvisor && a.adv.editing {
		return a.updateAdvisorInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	a.flash = ""

	switch key {
	case "q":
		return a, tea.Quit
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "i":
		return a.openForm(formImport, newFormValues())
	case "s":
		return a, exportCmd(a.state, a.exportDir())
	}
	if len(msg.Runes) == 1 {
		if tab := components.TabIdxByKey(msg.Runes[0]); tab >= 0 {
			a.activeTab = tab
			return a, nil
		}
	}

	switch a.activeTab {
	case tabEvents:
		return a.updateEventsKey(key)
	case tabShared:
		return a.updateSharedKey(key)
	case tabAdvisor:
		return a.updateAdvisorKey(msg)
	}
	return a, nil
}

func (a App) moveCursor(delta int) App {
	switch a.activeTab {
	case tabEvents:
		if a.events.focusDetail {
			a.events.item = clamp(a.events.item+delta, len(a.detailItems()))
		} else {
			a.events.cursor = clamp(a.events.cursor+delta, len(a.state.Events))
			a.events.item = 0
		}
	case tabShared:
		a.shared.cursor = clamp(a.shared.cursor+delta, len(a.state.SharedCosts))
	case tabAdvisor:
		if delta < 0 {
			a.adv.viewport.ScrollUp(-delta)
		} else {
			a.adv.viewport.ScrollDown(delta)
		}
	}
	return a
}

func (a App) exportDir() string {
	if a.cfg.General.ExportDir != "" {
		return a.cfg.General.ExportDir
	}
	return "."
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) contentHeight() int {
	h := a.height - 2 // tab bar + status bar
	if h < minContentHeight {
		h = minContentHeight
	}
	return h
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if a.form != nil {
		return a.viewForm()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal demasiado angosta (%d columnas)\n\n  evbudget necesita al menos %d columnas.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navegación", []struct{ key, desc string }{
			{"1 2 3 4", "Ir a pestaña"},
			{"← →", "Pestaña anterior / siguiente"},
			{"j k", "Moverse en listas"},
			{"tab", "Alternar lista / detalle"},
		}},
		{"Eventos", []struct{ key, desc string }{
			{"n", "Nuevo evento"},
			{"e", "Editar evento o tarea"},
			{"d", "Eliminar evento"},
			{"c", "Agregar costo"},
			{"t", "Agregar tarea"},
			{"espacio", "Completar / reabrir tarea"},
			{"x", "Quitar costo o tarea"},
		}},
		{"General", []struct{ key, desc string }{
			{"i", "Importar planilla"},
			{"s", "Exportar planilla"},
			{"enter", "Preguntar al asesor"},
			{"y", "Copiar consejo"},
			{"?", "Ayuda"},
			{"q", "Salir"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Atajos de teclado"))
	for _, sec := range sections {
		b.WriteString("\n\n")
		b.WriteString(sectionStyle.Render(sec.title))
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "\n  %s  %s",
				keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Presiona cualquier tecla para cerrar"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.hints(), a.flash, a.flashErr)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabEvents:
		content = a.renderEventsTab(cw, contentH)
	case tabShared:
		content = a.renderSharedTab(cw)
	case tabChart:
		content = a.renderChartTab(cw)
	case tabAdvisor:
		content = a.renderAdvisorTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) hints() string {
	switch {
	case a.activeTab == tabEvents && a.events.focusDetail:
		return "[espacio]completar  [e]ditar  [x]quitar  [tab]lista  [?]ayuda"
	case a.activeTab == tabEvents:
		return "[n]uevo  [e]ditar  [d]eliminar  [c]osto  [t]area  [tab]detalle  [?]ayuda"
	case a.activeTab == tabShared:
		return "[c]osto  [x]quitar  [i]mportar  [s]exportar  [?]ayuda"
	case a.activeTab == tabAdvisor && a.adv.editing:
		return "[enter]preguntar  [esc]cancelar"
	case a.activeTab == tabAdvisor:
		return "[enter]preguntar  [y]copiar  [j k]desplazar  [?]ayuda"
	default:
		return "[i]mportar  [s]exportar  [?]ayuda  [q]salir"
	}
}

// ─── Commands ───────────────────────────────────────────────────

func exportCmd(st model.State, dir string) tea.Cmd {
	return func() tea.Msg {
		path := filepath.Join(dir, sheet.FileName(time.Now()))
		return ExportedMsg{Path: path, Err: sheet.WriteFile(path, st)}
	}
}

func importCmd(st *store.Store, path string) tea.Cmd {
	return func() tea.Msg {
		rep, err := importFile(st, path)
		return ImportedMsg{Report: rep, Err: err}
	}
}

func askCmd(adv *advisor.Advisor, st model.State, question string) tea.Cmd {
	return func() tea.Msg {
		return AdviceMsg{Question: question, Text: adv.Ask(context.Background(), st, question)}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return ExportedMsg{Err: fmt.Errorf("copiando al portapapeles: %w", err)}
		}
		return nil
	}
}

func importSummary(rep sheet.Report) string {
	s := fmt.Sprintf("Importado: %d costos específicos, %d compartidos, %d tareas",
		rep.SpecificCosts, rep.SharedCosts, rep.Tasks)
	if rep.DroppedRows > 0 {
		s += fmt.Sprintf(" (%d filas sin evento)", rep.DroppedRows)
	}
	return s
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)

		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
