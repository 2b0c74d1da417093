package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/evbudget/internal/advisor"
	"github.com/theirongolddev/evbudget/internal/config"
	"github.com/theirongolddev/evbudget/internal/model"
	"github.com/theirongolddev/evbudget/internal/store"
)

func newTestApp(t *testing.T, adv *advisor.Advisor) (App, *store.Store) {
	t.Helper()
	st := store.New()
	st.Replace([]model.Event{{
		ID:          "ev1",
		Name:        "Concierto Rock",
		StartDate:   "2026-03-01T20:00:00",
		EndDate:     "2026-03-01T23:00:00",
		TotalBudget: 20000000,
		Attendees:   100,
		CostItems:   []model.CostItem{{ID: "c1", Description: "Escenario", Amount: 1500000}},
		Tasks:       []model.Task{{ID: "t1", Description: "Contratar seguridad"}},
	}}, []model.CostItem{{ID: "s1", Description: "Oficina", Amount: 600000}})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	a := NewApp(ctx, st, adv, config.DefaultConfig())
	return update(t, a, tea.WindowSizeMsg{Width: 140, Height: 45}), st
}

func update(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	next, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", m)
	}
	return next
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	n := 4
	for active := 0; active < n; active++ {
		a := App{activeTab: active}
		pos := 0

		for i := 0; i < n; i++ {
			w := tabWidthForTest(i, active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w
			if i < n-1 {
				pos++ // separator
			}
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Errorf("active=%d x past last tab -> %d, want -1", active, got)
		}
	}
}

func tabWidthForTest(tabIdx, activeIdx int) int {
	nameWidths := []int{
		len("Eventos"),
		len("Compartidos"),
		len([]rune("Gráfico")),
		len("Asesor"),
	}

	w := nameWidths[tabIdx] + 2 // horizontal padding in tab renderer
	if tabIdx != activeIdx {
		w += 3 // inactive tabs add "[n]"
	}
	return w
}

func TestTabSwitching(t *testing.T) {
	a, _ := newTestApp(t, nil)

	a = update(t, a, runes("3"))
	if a.activeTab != tabChart {
		t.Fatalf("activeTab = %d, want %d", a.activeTab, tabChart)
	}
	a = update(t, a, tea.KeyMsg{Type: tea.KeyRight})
	if a.activeTab != tabAdvisor {
		t.Fatalf("activeTab = %d, want %d", a.activeTab, tabAdvisor)
	}
	a = update(t, a, tea.KeyMsg{Type: tea.KeyRight})
	if a.activeTab != tabEvents {
		t.Errorf("right from last tab = %d, want wrap to %d", a.activeTab, tabEvents)
	}
}

func TestMouseClickSelectsTab(t *testing.T) {
	a, _ := newTestApp(t, nil)
	x := tabWidthForTest(0, 0) + 1 + 2 // inside the second tab
	a = update(t, a, tea.MouseMsg{X: x, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if a.activeTab != tabShared {
		t.Errorf("activeTab = %d, want %d", a.activeTab, tabShared)
	}
}

func TestToggleAndRemoveFromDetail(t *testing.T) {
	a, st := newTestApp(t, nil)

	a = update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	if !a.events.focusDetail {
		t.Fatal("tab should focus the detail card")
	}
	a = update(t, a, runes("j")) // cost c1 -> task t1
	a = update(t, a, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	ev, _ := st.Event("ev1")
	if !ev.Tasks[0].IsComplete {
		t.Fatal("space should complete the selected task")
	}
	if a.state.Events[0].PendingTasks() != 0 {
		t.Error("app state was not reloaded after toggling")
	}

	a = update(t, a, runes("k"))
	a = update(t, a, runes("x"))
	ev, _ = st.Event("ev1")
	if len(ev.CostItems) != 0 {
		t.Errorf("cost items = %d, want 0 after x", len(ev.CostItems))
	}
	if a.events.item != 0 {
		t.Errorf("item cursor = %d, want 0", a.events.item)
	}
}

func TestRemoveSharedCost(t *testing.T) {
	a, st := newTestApp(t, nil)
	a = update(t, a, runes("2"))
	a = update(t, a, runes("x"))

	if n := len(st.SharedCosts()); n != 0 {
		t.Fatalf("shared costs = %d, want 0", n)
	}
	if a.flashErr {
		t.Errorf("unexpected error flash %q", a.flash)
	}
}

func TestSubmitFormCreatesEvent(t *testing.T) {
	a, st := newTestApp(t, nil)

	v := newFormValues()
	v.name = " Feria "
	v.start = "2026-05-10 10:00"
	v.end = "2026-05-12T18:00"
	v.budget = "5.000.000"
	v.attendees = "250"

	m, _ := a.submitForm(formNewEvent, v)
	a = m.(App)

	events := st.Events()
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	got := events[1]
	if got.Name != "Feria" || got.TotalBudget != 5000000 || got.Attendees != 250 {
		t.Errorf("created event = %+v", got)
	}
	if got.StartDate != "2026-05-10T10:00" {
		t.Errorf("StartDate = %q, want normalized 2026-05-10T10:00", got.StartDate)
	}
	if a.events.cursor != 1 {
		t.Errorf("cursor = %d, want the new event", a.events.cursor)
	}
}

func TestSubmitFormReportsStoreErrors(t *testing.T) {
	a, st := newTestApp(t, nil)

	v := newFormValues()
	v.eventID = "ev1"
	v.description = "Catering"
	v.amount = "0"

	m, _ := a.submitForm(formAddCost, v)
	a = m.(App)
	if !a.flashErr || a.flash != store.ErrInvalidAmount.Error() {
		t.Errorf("flash = %q (err=%v), want %q", a.flash, a.flashErr, store.ErrInvalidAmount)
	}
	ev, _ := st.Event("ev1")
	if len(ev.CostItems) != 1 {
		t.Errorf("cost items = %d, want unchanged 1", len(ev.CostItems))
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	a, st := newTestApp(t, nil)

	v := newFormValues()
	v.eventID = "ev1"
	m, _ := a.submitForm(formDeleteEvent, v)
	a = m.(App)
	if len(st.Events()) != 1 {
		t.Fatal("declined delete removed the event")
	}

	v.confirm = true
	m, _ = a.submitForm(formDeleteEvent, v)
	a = m.(App)
	if len(st.Events()) != 0 {
		t.Fatal("confirmed delete kept the event")
	}
	if !strings.Contains(a.View(), "Aún no hay eventos") {
		t.Error("empty events tab should prompt to create one")
	}
}

func TestOpenFormAndEscape(t *testing.T) {
	a, _ := newTestApp(t, nil)

	a = update(t, a, runes("n"))
	if a.form == nil || a.formKind != formNewEvent {
		t.Fatal("n should open the new event form")
	}
	a = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.form != nil {
		t.Fatal("esc should close the form")
	}
}

func TestStoreChangeReloads(t *testing.T) {
	a, st := newTestApp(t, nil)
	if _, err := st.AddCostItem(store.Shared, "Seguros", 400000, false); err != nil {
		t.Fatal(err)
	}

	a = update(t, a, StoreChangedMsg{})
	if a.summary.TotalSharedCost != 1000000 {
		t.Errorf("TotalSharedCost = %d, want 1000000", a.summary.TotalSharedCost)
	}
}

func TestViewRendersEachTab(t *testing.T) {
	a, _ := newTestApp(t, nil)

	want := map[string]string{
		"1": "Concierto Rock",
		"2": "Oficina",
		"3": "Margen de ganancia",
		"4": "evbudget setup",
	}
	for key, text := range want {
		a = update(t, a, runes(key))
		if view := a.View(); !strings.Contains(view, text) {
			t.Errorf("tab %s view missing %q", key, text)
		}
	}

	narrow := update(t, a, tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(narrow.View(), "demasiado angosta") {
		t.Error("narrow terminal should show the width warning")
	}
}

func TestAdvisorAsk(t *testing.T) {
	var prompt string
	adv := advisor.New(advisor.ServiceFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "**Reduce** el escenario.", nil
	}), nil)
	a, _ := newTestApp(t, adv)

	a = update(t, a, runes("4"))
	a = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if !a.adv.editing {
		t.Fatal("enter should focus the question input")
	}
	a = update(t, a, runes("¿Cómo ahorro?"))

	m, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	a = m.(App)
	if !a.adv.loading || cmd == nil {
		t.Fatal("enter should start an advisor request")
	}

	a = update(t, a, askCmd(adv, a.state, a.adv.question)())
	if a.adv.loading {
		t.Error("loading should clear once advice arrives")
	}
	if !strings.Contains(prompt, "¿Cómo ahorro?") {
		t.Errorf("prompt missing question:\n%s", prompt)
	}
	if !strings.Contains(a.View(), "Reduce") {
		t.Error("advice answer not rendered")
	}
}

func TestAdvisorDisabled(t *testing.T) {
	a, _ := newTestApp(t, nil)
	a = update(t, a, runes("4"))
	a = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	a = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if !a.flashErr || a.adv.loading {
		t.Errorf("flash = %q loading = %v, want error without request", a.flash, a.adv.loading)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"20.000.000", 20000000, false},
		{"$ 1500000", 1500000, false},
		{"", 0, false},
		{"12,5", 0, true},
		{"abc", 0, true},
		{"1.500", 1500, false},
		{"99.999.999.999.999.999.999", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseAmount(%q) = %d, %v; want %d, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
