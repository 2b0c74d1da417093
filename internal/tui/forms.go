package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/evbudget/internal/cli"
	"github.com/theirongolddev/evbudget/internal/model"
	"github.com/theirongolddev/evbudget/internal/sheet"
	"github.com/theirongolddev/evbudget/internal/store"
	"github.com/theirongolddev/evbudget/internal/tui/theme"
)

type formKind int

const (
	formNone formKind = iota
	formNewEvent
	formEditEvent
	formDeleteEvent
	formAddCost
	formAddSharedCost
	formAddTask
	formEditTask
	formImport
)

// formValues is bound into huh fields by pointer, so it lives on the heap
// and survives App being copied by value.
type formValues struct {
	eventID string
	taskID  string

	name      string
	start     string
	end       string
	budget    string
	attendees string

	description string
	amount      string
	variable    bool
	dueDate     string

	path    string
	confirm bool
}

func newFormValues() *formValues {
	return &formValues{}
}

func (a App) formWidth() int {
	w := a.width - 10
	if w > 70 {
		w = 70
	}
	if w < 40 {
		w = 40
	}
	return w
}

func (a App) openForm(kind formKind, vals *formValues) (tea.Model, tea.Cmd) {
	var groups []*huh.Group

	switch kind {
	case formNewEvent, formEditEvent:
		title := "Nuevo evento"
		if kind == formEditEvent {
			title = "Editar evento"
		}
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("Nombre").Value(&vals.name).Validate(required("el nombre")),
			huh.NewInput().Title("Inicio").Placeholder("AAAA-MM-DDTHH:MM").Value(&vals.start).Validate(validDateTime),
			huh.NewInput().Title("Término").Placeholder("AAAA-MM-DDTHH:MM").Value(&vals.end).Validate(validDateTime),
			huh.NewInput().Title("Presupuesto total (CLP)").Value(&vals.budget).Validate(validPositive),
			huh.NewInput().Title("Asistentes").Placeholder("0").Value(&vals.attendees).Validate(validCount),
		).Title(title))

	case formDeleteEvent:
		groups = append(groups, huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("¿Eliminar %q?", vals.name)).
				Description("Se perderán sus costos y tareas.").
				Affirmative("Eliminar").
				Negative("Cancelar").
				Value(&vals.confirm),
		))

	case formAddCost, formAddSharedCost:
		title := "Costo de " + vals.name
		if kind == formAddSharedCost {
			title = "Costo compartido"
		}
		fields := []huh.Field{
			huh.NewInput().Title("Descripción").Value(&vals.description).Validate(required("la descripción")),
			huh.NewInput().Title("Monto (CLP)").Value(&vals.amount).Validate(validPositive),
		}
		if kind == formAddCost {
			fields = append(fields, huh.NewConfirm().
				Title("¿Es un costo por asistente?").
				Affirmative("Sí").
				Negative("No").
				Value(&vals.variable))
		}
		groups = append(groups, huh.NewGroup(fields...).Title(title))

	case formAddTask, formEditTask:
		title := "Nueva tarea"
		if kind == formEditTask {
			title = "Editar tarea"
		}
		groups = append(groups, huh.NewGroup(
			huh.NewInput().Title("Descripción").Value(&vals.description).Validate(required("la descripción")),
			huh.NewInput().Title("Fecha límite").Placeholder("AAAA-MM-DD (opcional)").Value(&vals.dueDate).Validate(validDueDate),
		).Title(title))

	case formImport:
		groups = append(groups,
			huh.NewGroup(
				huh.NewInput().Title("Archivo .xlsx o .xls").Value(&vals.path).Validate(validFile),
			).Title("Importar planilla"),
			huh.NewGroup(
				huh.NewConfirm().
					Title("¿Reemplazar los costos y tareas actuales?").
					Description("Los datos importados sustituyen a los existentes.").
					Affirmative("Importar").
					Negative("Cancelar").
					Value(&vals.confirm),
			),
		)

	default:
		return a, nil
	}

	a.form = huh.NewForm(groups...).
		WithTheme(huh.ThemeCharm()).
		WithShowHelp(true).
		WithWidth(a.formWidth())
	a.formKind = kind
	a.formVals = vals
	return a, a.form.Init()
}

func (a *App) closeForm() {
	a.form = nil
	a.formKind = formNone
	a.formVals = nil
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			a.closeForm()
			a.setFlash("Cancelado", false)
			return a, nil
		case "ctrl+c":
			return a, tea.Quit
		}
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		kind, vals := a.formKind, a.formVals
		a.closeForm()
		return a.submitForm(kind, vals)
	case huh.StateAborted:
		a.closeForm()
		return a, nil
	}
	return a, cmd
}

// submitForm applies a completed form to the store.
func (a App) submitForm(kind formKind, v *formValues) (tea.Model, tea.Cmd) {
	var err error
	var done string

	switch kind {
	case formNewEvent:
		var ev model.Event
		ev, err = a.store.CreateEvent(store.EventInput{
			Name:        strings.TrimSpace(v.name),
			StartDate:   normalizeDateTime(v.start),
			EndDate:     normalizeDateTime(v.end),
			TotalBudget: mustAmount(v.budget),
			Attendees:   mustAmount(v.attendees),
		})
		if err == nil {
			done = "Evento creado: " + ev.Name
			a.reload()
			a.events.cursor = len(a.state.Events) - 1
		}

	case formEditEvent:
		name := strings.TrimSpace(v.name)
		start, end := normalizeDateTime(v.start), normalizeDateTime(v.end)
		budget, attendees := mustAmount(v.budget), mustAmount(v.attendees)
		_, err = a.store.UpdateEvent(v.eventID, store.EventPatch{
			Name:        &name,
			StartDate:   &start,
			EndDate:     &end,
			TotalBudget: &budget,
			Attendees:   &attendees,
		})
		done = "Evento actualizado"

	case formDeleteEvent:
		if !v.confirm {
			a.setFlash("Cancelado", false)
			return a, nil
		}
		err = a.store.DeleteEvent(v.eventID)
		done = "Evento eliminado"

	case formAddCost, formAddSharedCost:
		target := store.Shared
		if kind == formAddCost {
			target = store.EventTarget(v.eventID)
		}
		_, err = a.store.AddCostItem(target, strings.TrimSpace(v.description), mustAmount(v.amount), v.variable)
		done = "Costo agregado"

	case formAddTask:
		_, err = a.store.AddTask(v.eventID, strings.TrimSpace(v.description), strings.TrimSpace(v.dueDate))
		done = "Tarea agregada"

	case formEditTask:
		_, err = a.store.UpdateTask(v.eventID, v.taskID, strings.TrimSpace(v.description), strings.TrimSpace(v.dueDate))
		done = "Tarea actualizada"

	case formImport:
		if !v.confirm {
			a.setFlash("Importación cancelada", false)
			return a, nil
		}
		a.setFlash("Importando "+v.path+"...", false)
		return a, importCmd(a.store, strings.TrimSpace(v.path))
	}

	if err != nil {
		a.setFlash(err.Error(), true)
	} else {
		a.setFlash(done, false)
	}
	a.reload()
	return a, nil
}

func (a App) viewForm() string {
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.form.View(),
		lipgloss.WithWhitespaceBackground(theme.Active.Background))
}

func importFile(st *store.Store, path string) (sheet.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return sheet.Report{}, fmt.Errorf("abriendo %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return sheet.Import(st, f)
}

// ─── Field parsing and validation ───────────────────────────────

// parseAmount accepts whole pesos written with or without es-CL thousands
// separators ("20.000.000", "$ 20000000").
func parseAmount(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := cli.ParseCLP(s)
	if errors.Is(err, cli.ErrAmountRange) {
		return 0, err
	}
	if err != nil {
		return 0, errors.New("debe ser un número")
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, errors.New("debe ser un monto en pesos enteros")
	}
	return d.IntPart(), nil
}

func mustAmount(s string) int64 {
	n, _ := parseAmount(s)
	return n
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s es obligatorio", what)
		}
		return nil
	}
}

func validPositive(s string) error {
	n, err := parseAmount(s)
	if err != nil {
		return err
	}
	if n <= 0 {
		return errors.New("debe ser mayor que cero")
	}
	return nil
}

func validCount(s string) error {
	n, err := parseAmount(s)
	if err != nil {
		return err
	}
	if n < 0 {
		return errors.New("no puede ser negativo")
	}
	return nil
}

// normalizeDateTime accepts a space between date and time.
func normalizeDateTime(s string) string {
	return strings.Replace(strings.TrimSpace(s), " ", "T", 1)
}

func validDateTime(s string) error {
	if !store.ValidDate(normalizeDateTime(s)) {
		return errors.New("usa AAAA-MM-DDTHH:MM")
	}
	return nil
}

func validDueDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(store.DueDateLayout, s); err != nil {
		return errors.New("usa AAAA-MM-DD")
	}
	return nil
}

func validFile(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("indica un archivo")
	}
	info, err := os.Stat(s)
	if err != nil {
		return errors.New("no se encontró el archivo")
	}
	if info.IsDir() {
		return errors.New("es un directorio")
	}
	return nil
}
