// Package sheet converts event state to and from a four-sheet spreadsheet
// workbook.
package sheet

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/evbudget/internal/budget"
	"github.com/theirongolddev/evbudget/internal/model"
)

// Sheet names.
const (
	SheetSummary       = "Resumen"
	SheetSpecificCosts = "Costos Específicos"
	SheetSharedCosts   = "Costos Compartidos"
	SheetTasks         = "Tareas"
)

// Column headers.
const (
	ColEvent       = "Evento"
	ColTotalBudget = "Presupuesto Total"
	ColTotalSpent  = "Gasto Total"
	ColRemaining   = "Presupuesto Disponible"
	ColDescription = "Descripción"
	ColAmount      = "Monto"
	ColPerAttendee = "Por Asistente"
	ColRate        = "Tarifa"
	ColTask        = "Tarea"
	ColDueDate     = "Fecha Límite"
	ColStatus      = "Estado"
)

// Cell values with a fixed meaning.
const (
	StatusComplete         = "Completada"
	StatusPending          = "Pendiente"
	PerAttendeeYes         = "Sí"
	PerAttendeeNo          = "No"
	PlaceholderDescription = "Sin descripción"
)

// Table is one worksheet's header and data rows.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
	Widths  []float64
}

// FileName is the default export file name for the given day.
func FileName(now time.Time) string {
	return "Presupuesto_Eventos_" + now.UTC().Format("2006-01-02") + ".xlsx"
}

// Project lays the state out as the four export tables. Costs are written
// at their effective amount; per-attendee costs also carry their rate.
func Project(st model.State) []Table {
	sum := budget.Compute(st)

	summary := Table{
		Name:    SheetSummary,
		Headers: []string{ColEvent, ColTotalBudget, ColTotalSpent, ColRemaining},
		Widths:  []float64{30, 20, 20, 25},
	}
	for _, f := range sum.Events {
		summary.Rows = append(summary.Rows, []any{
			f.Name, f.TotalBudget, f.TotalSpent.InexactFloat64(), f.Remaining.InexactFloat64(),
		})
	}

	specific := Table{
		Name:    SheetSpecificCosts,
		Headers: []string{ColEvent, ColDescription, ColAmount, ColPerAttendee, ColRate},
		Widths:  []float64{30, 40, 15, 15, 15},
	}
	tasks := Table{
		Name:    SheetTasks,
		Headers: []string{ColEvent, ColTask, ColDueDate, ColStatus},
		Widths:  []float64{30, 50, 15, 15},
	}
	for _, ev := range st.Events {
		for _, c := range ev.CostItems {
			row := []any{ev.Name, c.Description, budget.EffectiveCost(c, ev.Attendees), PerAttendeeNo, nil}
			if c.IsVariable {
				row[3] = PerAttendeeYes
				row[4] = c.Amount
			}
			specific.Rows = append(specific.Rows, row)
		}
		for _, t := range ev.Tasks {
			status := StatusPending
			if t.IsComplete {
				status = StatusComplete
			}
			tasks.Rows = append(tasks.Rows, []any{ev.Name, t.Description, t.DueDate, status})
		}
	}

	shared := Table{
		Name:    SheetSharedCosts,
		Headers: []string{ColDescription, ColAmount},
		Widths:  []float64{40, 15},
	}
	for _, c := range st.SharedCosts {
		shared.Rows = append(shared.Rows, []any{c.Description, c.Amount})
	}

	return []Table{summary, specific, shared, tasks}
}

// Write encodes the state as an .xlsx workbook.
func Write(w io.Writer, st model.State) error {
	f, err := build(st)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteFile saves the state as an .xlsx workbook at path.
func WriteFile(path string, st model.State) error {
	f, err := build(st)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func build(st model.State) (*excelize.File, error) {
	f := excelize.NewFile()
	first := f.GetSheetName(0)

	for i, tbl := range Project(st) {
		if i == 0 {
			if err := f.SetSheetName(first, tbl.Name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("naming sheet %q: %w", tbl.Name, err)
			}
		} else if _, err := f.NewSheet(tbl.Name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("creating sheet %q: %w", tbl.Name, err)
		}
		if err := writeTable(f, tbl); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("filling sheet %q: %w", tbl.Name, err)
		}
	}
	return f, nil
}

func writeTable(f *excelize.File, tbl Table) error {
	header := make([]any, len(tbl.Headers))
	for i, h := range tbl.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(tbl.Name, "A1", &header); err != nil {
		return err
	}

	for i, row := range tbl.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(tbl.Name, cell, &r); err != nil {
			return err
		}
	}

	for i, w := range tbl.Widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(tbl.Name, col, col, w); err != nil {
			return err
		}
	}
	return nil
}
