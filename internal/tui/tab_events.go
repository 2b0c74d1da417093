package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/evbudget/internal/budget"
	"github.com/theirongolddev/evbudget/internal/cli"
	"github.com/theirongolddev/evbudget/internal/model"
	"github.com/theirongolddev/evbudget/internal/tui/components"
	"github.com/theirongolddev/evbudget/internal/tui/theme"
)

type eventsState struct {
	cursor      int  // selected event
	item        int  // selected cost or task in the detail card
	focusDetail bool // keys act on the detail card
}

// detailItem is a row in the event detail card: costs first, then tasks.
type detailItem struct {
	isTask bool
	id     string
}

func (a App) selectedEvent() (model.Event, bool) {
	if a.events.cursor < 0 || a.events.cursor >= len(a.state.Events) {
		return model.Event{}, false
	}
	return a.state.Events[a.events.cursor], true
}

func (a App) detailItems() []detailItem {
	ev, ok := a.selectedEvent()
	if !ok {
		return nil
	}
	items := make([]detailItem, 0, len(ev.CostItems)+len(ev.Tasks))
	for _, c := range ev.CostItems {
		items = append(items, detailItem{id: c.ID})
	}
	for _, t := range ev.Tasks {
		items = append(items, detailItem{isTask: true, id: t.ID})
	}
	return items
}

func (a App) selectedItem() (detailItem, bool) {
	items := a.detailItems()
	if a.events.item < 0 || a.events.item >= len(items) {
		return detailItem{}, false
	}
	return items[a.events.item], true
}

func (a App) updateEventsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		return a.moveCursor(1), nil
	case "k", "up":
		return a.moveCursor(-1), nil
	case "tab":
		if len(a.state.Events) > 0 {
			a.events.focusDetail = !a.events.focusDetail
		}
		return a, nil
	case "esc":
		a.events.focusDetail = false
		return a, nil
	case "n":
		return a.openForm(formNewEvent, newFormValues())
	}

	ev, ok := a.selectedEvent()
	if !ok {
		return a, nil
	}

	switch key {
	case "e":
		if it, ok := a.selectedItem(); ok && a.events.focusDetail && it.isTask {
			for _, t := range ev.Tasks {
				if t.ID == it.id {
					v := newFormValues()
					v.eventID, v.taskID = ev.ID, t.ID
					v.description, v.dueDate = t.Description, t.DueDate
					return a.openForm(formEditTask, v)
				}
			}
		}
		v := newFormValues()
		v.eventID = ev.ID
		v.name = ev.Name
		v.start, v.end = trimSeconds(ev.StartDate), trimSeconds(ev.EndDate)
		v.budget = strconv.FormatInt(ev.TotalBudget, 10)
		v.attendees = strconv.FormatInt(ev.Attendees, 10)
		return a.openForm(formEditEvent, v)

	case "d":
		v := newFormValues()
		v.eventID, v.name = ev.ID, ev.Name
		return a.openForm(formDeleteEvent, v)

	case "c":
		v := newFormValues()
		v.eventID, v.name = ev.ID, ev.Name
		return a.openForm(formAddCost, v)

	case "t":
		v := newFormValues()
		v.eventID, v.name = ev.ID, ev.Name
		return a.openForm(formAddTask, v)

	case " ", "space":
		it, ok := a.selectedItem()
		if !a.events.focusDetail || !ok || !it.isTask {
			return a, nil
		}
		if err := a.store.ToggleTask(ev.ID, it.id); err != nil {
			a.setFlash(err.Error(), true)
		}
		a.reload()
		return a, nil

	case "x":
		it, ok := a.selectedItem()
		if !a.events.focusDetail || !ok {
			return a, nil
		}
		var err error
		if it.isTask {
			err = a.store.RemoveTask(ev.ID, it.id)
		} else {
			err = a.store.RemoveCostItem(storeTarget(ev.ID), it.id)
		}
		if err != nil {
			a.setFlash(err.Error(), true)
		}
		a.reload()
		return a, nil
	}
	return a, nil
}

// trimSeconds shortens stored dates to the form's minute precision.
func trimSeconds(s string) string {
	if len(s) == len("2006-01-02T15:04:05") && strings.HasSuffix(s, ":00") {
		return s[:len(s)-3]
	}
	return s
}

func (a App) renderEventsTab(cw, h int) string {
	t := theme.Active
	s := a.summary

	if len(a.state.Events) == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		return components.ContentCard("Eventos",
			muted.Render("Aún no hay eventos. Presiona n para crear el primero."), cw, true)
	}

	remainingColor := components.ColorForHealth(budget.Health(s.TotalRemaining, s.TotalBudget))
	metrics := components.MetricCardRow([]components.Metric{
		{Label: "Eventos", Value: cli.FormatNumber(int64(s.EventCount))},
		{Label: "Presupuesto total", Value: cli.FormatCLP(s.TotalBudget)},
		{Label: "Gasto total", Value: cli.FormatMoney(s.TotalSpent),
			Note: "compartido " + cli.FormatCLP(s.TotalSharedCost)},
		{Label: "Disponible", Value: cli.FormatMoney(s.TotalRemaining), Color: remainingColor,
			Note: cli.FormatPercent(budget.RemainingPercent(s.TotalRemaining, s.TotalBudget))},
	}, cw)

	widths := components.LayoutRow(cw, 3)
	listW := widths[0]
	detailW := cw - listW

	list := components.ContentCard("Eventos", a.renderEventList(components.CardInnerWidth(listW)), listW, !a.events.focusDetail)
	detail := a.renderEventDetail(detailW)

	return metrics + "\n" + components.CardRow([]string{list, detail})
}

func (a App) renderEventList(w int) string {
	t := theme.Active

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	for i, ev := range a.state.Events {
		if i > 0 {
			b.WriteString("\n")
		}
		fig, _ := a.summary.Figures(ev.ID)
		health := budget.Health(fig.Remaining, fig.TotalBudget)
		healthStyle := lipgloss.NewStyle().Foreground(components.ColorForHealth(health)).Background(t.Surface)

		pct := cli.FormatPercent(budget.RemainingPercent(fig.Remaining, fig.TotalBudget))
		nameW := w - lipgloss.Width(pct) - 3
		name := fmt.Sprintf("%-*s", nameW, cli.Truncate(ev.Name, nameW))

		marker := "  "
		style := nameStyle
		if i == a.events.cursor {
			marker = "▸ "
			style = selStyle
		}
		b.WriteString(style.Render(marker + name))
		b.WriteString(dimStyle.Render(" "))
		b.WriteString(healthStyle.Render(pct))
	}
	return b.String()
}

func (a App) renderEventDetail(outerW int) string {
	t := theme.Active
	ev, _ := a.selectedEvent()
	fig, _ := a.summary.Figures(ev.ID)
	innerW := components.CardInnerWidth(outerW)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	doneStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Strikethrough(true)

	health := budget.Health(fig.Remaining, fig.TotalBudget)
	healthStyle := lipgloss.NewStyle().Foreground(components.ColorForHealth(health)).Background(t.Surface).Bold(true)

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-14s", label)) + valueStyle.Render(value)
	}

	var b strings.Builder
	b.WriteString(dimStyle.Render(cli.FormatDateRange(ev.StartDate, ev.EndDate)))
	b.WriteString("\n\n")
	b.WriteString(row("Presupuesto", cli.FormatCLP(ev.TotalBudget)) + "\n")
	b.WriteString(row("Asistentes", cli.FormatNumber(ev.Attendees)) + "\n")
	b.WriteString(row("Gasto", fmt.Sprintf("%s (propio %s + compartido %s)",
		cli.FormatMoney(fig.TotalSpent), cli.FormatCLP(fig.OwnCost), cli.FormatMoney(fig.SharedShare))) + "\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", "Disponible")) +
		healthStyle.Render(cli.FormatMoney(fig.Remaining)) +
		dimStyle.Render("  margen "+cli.FormatPercent(fig.ProfitMargin)) + "\n")

	spent := 0.0
	if fig.TotalBudget > 0 {
		spent, _ = fig.TotalSpent.Div(decimal.NewFromInt(fig.TotalBudget)).Float64()
	}
	barW := innerW - 14 - 6
	if barW < 10 {
		barW = 10
	}
	b.WriteString(components.BudgetBar("Consumido", spent, health, 13, barW))

	items := a.detailItems()
	itemLine := func(idx int, text string, style lipgloss.Style) string {
		marker := "  "
		if a.events.focusDetail && idx == a.events.item {
			marker = "▸ "
			style = selStyle
		}
		return style.Render(marker + cli.Truncate(text, innerW-2))
	}

	b.WriteString("\n\n" + sectionStyle.Render(fmt.Sprintf("Costos (%d)", len(ev.CostItems))))
	if len(ev.CostItems) == 0 {
		b.WriteString("\n" + dimStyle.Render("  Sin costos"))
	}
	for i, c := range ev.CostItems {
		text := fmt.Sprintf("%s  %s", c.Description, cli.FormatCLP(budget.EffectiveCost(c, ev.Attendees)))
		if c.IsVariable {
			text += fmt.Sprintf(" (%s × %s)", cli.FormatCLP(c.Amount), cli.FormatNumber(ev.Attendees))
		}
		b.WriteString("\n" + itemLine(i, text, valueStyle))
	}

	b.WriteString("\n\n" + sectionStyle.Render(fmt.Sprintf("Tareas (%d pendientes)", ev.PendingTasks())))
	if len(ev.Tasks) == 0 {
		b.WriteString("\n" + dimStyle.Render("  Sin tareas"))
	}
	offset := len(items) - len(ev.Tasks)
	for i, task := range ev.Tasks {
		check, style := "[ ]", valueStyle
		if task.IsComplete {
			check, style = "[x]", doneStyle
		}
		text := check + " " + task.Description
		if task.DueDate != "" {
			text += "  · " + cli.FormatDate(task.DueDate)
		}
		b.WriteString("\n" + itemLine(offset+i, text, style))
	}

	return components.ContentCard(ev.Name, b.String(), outerW, a.events.focusDetail)
}
