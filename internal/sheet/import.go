package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/evbudget/internal/cli"
	"github.com/theirongolddev/evbudget/internal/model"
	"github.com/theirongolddev/evbudget/internal/store"
)

// ErrUnreadable means the input could not be opened as a workbook.
var ErrUnreadable = errors.New("hubo un error al procesar el archivo")

// Row maps a header to the raw cell text beneath it.
type Row map[string]string

// Workbook holds the data rows of every sheet, keyed by sheet name.
type Workbook map[string][]Row

// Report summarizes what an import attached and what it dropped.
type Report struct {
	SpecificCosts int `json:"specific_costs"`
	SharedCosts   int `json:"shared_costs"`
	Tasks         int `json:"tasks"`
	DroppedRows   int `json:"dropped_rows"`

	// UnknownEvents lists event names that matched nothing, in first-seen order.
	UnknownEvents []string `json:"unknown_events,omitempty"`
}

// oleSignature opens every legacy BIFF (.xls) workbook.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Read parses an .xlsx or legacy .xls workbook, told apart by content.
// Sheets missing from the file read as empty and rows with no values are
// skipped.
func Read(r io.Reader) (Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if bytes.HasPrefix(data, oleSignature) {
		return readXLS(bytes.NewReader(data))
	}
	return readXLSX(bytes.NewReader(data))
}

func readXLSX(r io.Reader) (Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	wb := make(Workbook)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: reading sheet %q: %w", ErrUnreadable, name, err)
		}
		wb[name] = toRows(rows)
	}
	return wb, nil
}

func readXLS(r io.ReadSeeker) (wb Workbook, err error) {
	// The BIFF parser panics on some malformed records.
	defer func() {
		if p := recover(); p != nil {
			wb, err = nil, fmt.Errorf("%w: %v", ErrUnreadable, p)
		}
	}()

	book, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	wb = make(Workbook)
	for i := 0; i < book.NumSheets(); i++ {
		sh := book.GetSheet(i)
		if sh == nil {
			continue
		}
		raw := make([][]string, 0, int(sh.MaxRow)+1)
		for ri := 0; ri <= int(sh.MaxRow); ri++ {
			row := sh.Row(ri)
			if row == nil {
				raw = append(raw, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			raw = append(raw, cells)
		}
		wb[sh.Name] = toRows(raw)
	}
	return wb, nil
}

func toRows(raw [][]string) []Row {
	if len(raw) == 0 {
		return nil
	}
	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = strings.TrimSpace(h)
	}

	var rows []Row
	for _, cells := range raw[1:] {
		row := make(Row)
		for i, v := range cells {
			if i >= len(headers) || headers[i] == "" || v == "" {
				continue
			}
			row[headers[i]] = v
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// Apply reconciles imported rows against existing events. Every event's
// costs and tasks are replaced by the rows naming it, the first event with
// a matching name wins, rows naming no event are dropped, and the shared
// pool is rebuilt from its sheet. Event identity and scalar fields are kept.
func Apply(events []model.Event, wb Workbook) ([]model.Event, []model.CostItem, Report) {
	var rep Report
	out := make([]model.Event, len(events))
	index := make(map[string]int, len(events))
	for i, ev := range events {
		out[i] = ev.Clone()
		out[i].CostItems = []model.CostItem{}
		out[i].Tasks = []model.Task{}
		if _, dup := index[ev.Name]; !dup {
			index[ev.Name] = i
		}
	}

	unknown := make(map[string]bool)
	drop := func(name string) {
		rep.DroppedRows++
		if !unknown[name] {
			unknown[name] = true
			rep.UnknownEvents = append(rep.UnknownEvents, name)
		}
	}

	for i, row := range wb[SheetSpecificCosts] {
		name := row[ColEvent]
		at, ok := index[name]
		if !ok {
			drop(name)
			continue
		}
		ev := &out[at]
		item := model.CostItem{
			ID:          fmt.Sprintf("specific-imported-%s-%d", ev.ID, i),
			Description: description(row[ColDescription]),
			Amount:      parseAmount(row[ColAmount]),
		}
		if strings.EqualFold(strings.TrimSpace(row[ColPerAttendee]), PerAttendeeYes) {
			if rate, ok := amountOK(row[ColRate]); ok {
				item.Amount = rate
				item.IsVariable = true
			}
		}
		ev.CostItems = append(ev.CostItems, item)
		rep.SpecificCosts++
	}

	for i, row := range wb[SheetTasks] {
		name := row[ColEvent]
		at, ok := index[name]
		if !ok {
			drop(name)
			continue
		}
		ev := &out[at]
		ev.Tasks = append(ev.Tasks, model.Task{
			ID:          fmt.Sprintf("task-imported-%s-%d", ev.ID, i),
			Description: description(row[ColTask]),
			DueDate:     strings.TrimSpace(row[ColDueDate]),
			IsComplete:  row[ColStatus] == StatusComplete,
		})
		rep.Tasks++
	}

	shared := []model.CostItem{}
	for i, row := range wb[SheetSharedCosts] {
		shared = append(shared, model.CostItem{
			ID:          fmt.Sprintf("shared-imported-%d", i),
			Description: description(row[ColDescription]),
			Amount:      parseAmount(row[ColAmount]),
		})
	}
	rep.SharedCosts = len(shared)

	return out, shared, rep
}

// Import reads a workbook and applies it to the store in one step. A
// workbook that cannot be read leaves the store untouched.
func Import(s *store.Store, r io.Reader) (Report, error) {
	wb, err := Read(r)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	s.Transform(func(st model.State) model.State {
		events, shared, report := Apply(st.Events, wb)
		rep = report
		return model.State{Events: events, SharedCosts: shared}
	})
	return rep, nil
}

func description(s string) string {
	if strings.TrimSpace(s) == "" {
		return PlaceholderDescription
	}
	return s
}

func amountOK(s string) (int64, bool) {
	d, err := cli.ParseCLP(s)
	if err != nil {
		return 0, false
	}
	return d.Round(0).IntPart(), true
}

// parseAmount reads a numeric cell or es-CL amount text, treating anything
// else as zero.
func parseAmount(s string) int64 {
	n, _ := amountOK(s)
	return n
}
