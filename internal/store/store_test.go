package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/theirongolddev/evbudget/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	n := 0
	return New(WithIDFunc(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
}

func mustCreate(t *testing.T, s *Store, name string, budget int64) model.Event {
	t.Helper()
	ev, err := s.CreateEvent(EventInput{Name: name, TotalBudget: budget})
	if err != nil {
		t.Fatalf("CreateEvent(%q): %v", name, err)
	}
	return ev
}

func TestCreateEventValidation(t *testing.T) {
	tests := []struct {
		name string
		in   EventInput
		want error
	}{
		{"zero budget", EventInput{Name: "A", TotalBudget: 0}, ErrInvalidBudget},
		{"negative budget", EventInput{Name: "A", TotalBudget: -5}, ErrInvalidBudget},
		{"negative attendees", EventInput{Name: "A", TotalBudget: 10, Attendees: -1}, ErrNegativeAttendees},
		{"empty name", EventInput{Name: "  ", TotalBudget: 10}, ErrEmptyName},
		{"bad start date", EventInput{Name: "A", TotalBudget: 10, StartDate: "mañana"}, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			_, err := s.CreateEvent(tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("CreateEvent err = %v, want %v", err, tt.want)
			}
			if got := len(s.Events()); got != 0 {
				t.Errorf("events after failed create = %d, want 0", got)
			}
		})
	}
}

func TestCreateEvent(t *testing.T) {
	s := newTestStore(t)
	ev, err := s.CreateEvent(EventInput{
		Name:        " Ruedalab IA ",
		StartDate:   "2026-01-08T09:00:00",
		EndDate:     "2026-01-08T18:30:00",
		TotalBudget: 20_500_000,
		Attendees:   120,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.Name != "Ruedalab IA" {
		t.Errorf("Name = %q, want trimmed", ev.Name)
	}
	if ev.CostItems == nil || ev.Tasks == nil || len(ev.CostItems)+len(ev.Tasks) != 0 {
		t.Errorf("new event should have empty, non-nil lists")
	}

	other := mustCreate(t, s, "Otro", 1)
	if other.ID == ev.ID {
		t.Errorf("ids collide: %q", ev.ID)
	}
}

func TestUpdateEvent(t *testing.T) {
	s := newTestStore(t)
	ev := mustCreate(t, s, "A", 100)
	if _, err := s.AddCostItem(EventTarget(ev.ID), "Sillas", 10, false); err != nil {
		t.Fatalf("AddCostItem: %v", err)
	}

	budget := int64(500)
	got, err := s.UpdateEvent(ev.ID, EventPatch{TotalBudget: &budget})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if got.TotalBudget != 500 || got.Name != "A" || len(got.CostItems) != 1 {
		t.Errorf("UpdateEvent = %+v, want budget 500 with name and costs kept", got)
	}

	bad := int64(0)
	if _, err := s.UpdateEvent(ev.ID, EventPatch{TotalBudget: &bad}); !errors.Is(err, ErrInvalidBudget) {
		t.Errorf("UpdateEvent(budget 0) err = %v, want ErrInvalidBudget", err)
	}
	if cur, _ := s.Event(ev.ID); cur.TotalBudget != 500 {
		t.Errorf("failed update mutated budget to %d", cur.TotalBudget)
	}
	if _, err := s.UpdateEvent("missing", EventPatch{}); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("UpdateEvent(missing) err = %v, want ErrEventNotFound", err)
	}
}

func TestDeleteEventCascades(t *testing.T) {
	s := newTestStore(t)
	a := mustCreate(t, s, "A", 100)
	b := mustCreate(t, s, "B", 100)
	if _, err := s.AddCostItem(EventTarget(a.ID), "Sonido", 10, false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTask(a.ID, "Contratar sonido", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddCostItem(Shared, "Productor", 50, false); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteEvent(a.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}

	st := s.Snapshot()
	if len(st.Events) != 1 || st.Events[0].ID != b.ID {
		t.Fatalf("events = %+v, want only B", st.Events)
	}
	if _, ok := s.Event(a.ID); ok {
		t.Error("deleted event still reachable")
	}
	if len(st.SharedCosts) != 1 {
		t.Errorf("shared costs = %d, want 1 (untouched)", len(st.SharedCosts))
	}
	if err := s.DeleteEvent(a.ID); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("second DeleteEvent err = %v, want ErrEventNotFound", err)
	}
}

func TestAddCostItemValidation(t *testing.T) {
	s := newTestStore(t)
	ev := mustCreate(t, s, "A", 100)

	if _, err := s.AddCostItem(EventTarget(ev.ID), "", 10, false); !errors.Is(err, ErrEmptyDescription) {
		t.Errorf("empty description err = %v", err)
	}
	if _, err := s.AddCostItem(Shared, "x", 0, false); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount err = %v", err)
	}
	if _, err := s.AddCostItem(EventTarget("nope"), "x", 1, false); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("unknown event err = %v", err)
	}

	item, err := s.AddCostItem(EventTarget(ev.ID), "Credenciales", 1_000, true)
	if err != nil {
		t.Fatalf("AddCostItem: %v", err)
	}
	got, _ := s.Event(ev.ID)
	if len(got.CostItems) != 1 || got.CostItems[0] != item || !item.IsVariable {
		t.Errorf("CostItems = %+v, want [%+v]", got.CostItems, item)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ev := mustCreate(t, s, "A", 100)
	c, _ := s.AddCostItem(EventTarget(ev.ID), "Sillas", 10, false)
	sc, _ := s.AddCostItem(Shared, "Hotel", 10, false)
	task, _ := s.AddTask(ev.ID, "Cotizar", "2026-01-02")

	for i := 0; i < 2; i++ {
		if err := s.RemoveCostItem(EventTarget(ev.ID), c.ID); err != nil {
			t.Fatalf("RemoveCostItem #%d: %v", i, err)
		}
		if err := s.RemoveCostItem(Shared, sc.ID); err != nil {
			t.Fatalf("RemoveCostItem shared #%d: %v", i, err)
		}
		if err := s.RemoveTask(ev.ID, task.ID); err != nil {
			t.Fatalf("RemoveTask #%d: %v", i, err)
		}
	}

	st := s.Snapshot()
	if n := len(st.Events[0].CostItems) + len(st.Events[0].Tasks) + len(st.SharedCosts); n != 0 {
		t.Errorf("items left = %d, want 0", n)
	}
}

func TestTasks(t *testing.T) {
	s := newTestStore(t)
	ev := mustCreate(t, s, "A", 100)

	if _, err := s.AddTask(ev.ID, " ", ""); !errors.Is(err, ErrEmptyDescription) {
		t.Errorf("empty task err = %v", err)
	}
	if _, err := s.AddTask(ev.ID, "x", "02/01/2026"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("bad due date err = %v", err)
	}

	task, err := s.AddTask(ev.ID, "Reservar hotel", "2026-01-05")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if task.IsComplete {
		t.Error("new task should be pending")
	}

	if err := s.ToggleTask(ev.ID, task.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Event(ev.ID)
	if !got.Tasks[0].IsComplete {
		t.Error("task not toggled to complete")
	}
	if err := s.ToggleTask(ev.ID, "missing"); err != nil {
		t.Errorf("ToggleTask(missing) = %v, want nil", err)
	}

	upd, err := s.UpdateTask(ev.ID, task.ID, "Reservar hotel centro", "")
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if upd.Description != "Reservar hotel centro" || upd.DueDate != "" || !upd.IsComplete {
		t.Errorf("UpdateTask = %+v", upd)
	}
	if _, err := s.UpdateTask(ev.ID, "missing", "x", ""); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("UpdateTask(missing) err = %v", err)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStore(t)
	ev := mustCreate(t, s, "A", 100)
	_, _ = s.AddCostItem(EventTarget(ev.ID), "Sillas", 10, false)

	snap := s.Snapshot()
	snap.Events[0].CostItems[0].Amount = 999
	snap.Events[0].Name = "changed"

	got, _ := s.Event(ev.ID)
	if got.Name != "A" || got.CostItems[0].Amount != 10 {
		t.Errorf("snapshot aliases store memory: %+v", got)
	}
}

func TestReplaceAndSubscribe(t *testing.T) {
	at := time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return at }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Subscribe(ctx)

	s.Replace([]model.Event{{ID: "e1", Name: "A", TotalBudget: 1}}, []model.CostItem{{ID: "s1", Amount: 5}})

	select {
	case c := <-ch:
		if c.Kind != ChangeReplaced || c.Seq != 1 || !c.At.Equal(at) {
			t.Errorf("change = %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("no change published")
	}

	st := s.Snapshot()
	if len(st.Events) != 1 || len(st.SharedCosts) != 1 {
		t.Errorf("state after Replace = %+v", st)
	}
	if st.Events[0].CostItems == nil {
		t.Error("replaced event lists should be non-nil")
	}

	cancel()
	for range ch {
	}
}
