package store

import (
	"strings"

	"github.com/theirongolddev/evbudget/internal/model"
)

// Target selects where a cost item lives: an event or the shared pool.
type Target struct {
	EventID string
}

// Shared targets the shared cost pool.
var Shared = Target{}

// EventTarget targets the cost list of one event.
func EventTarget(eventID string) Target {
	return Target{EventID: eventID}
}

// IsShared reports whether the target is the shared pool.
func (t Target) IsShared() bool { return t.EventID == "" }

func hasCost(items []model.CostItem, id string) bool {
	for _, c := range items {
		if c.ID == id {
			return true
		}
	}
	return false
}

func withoutCost(items []model.CostItem, id string) ([]model.CostItem, bool) {
	out := make([]model.CostItem, 0, len(items))
	found := false
	for _, c := range items {
		if c.ID == id {
			found = true
			continue
		}
		out = append(out, c)
	}
	return out, found
}

// AddCostItem appends a cost to the target. The description must be
// non-empty and the amount positive.
func (s *Store) AddCostItem(t Target, description string, amount int64, isVariable bool) (model.CostItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return model.CostItem{}, ErrEmptyDescription
	}
	if amount <= 0 {
		return model.CostItem{}, ErrInvalidAmount
	}
	item := model.CostItem{Description: description, Amount: amount, IsVariable: isVariable}

	if !t.IsShared() {
		err := s.update(t.EventID, ChangeCostAdded, func(ev *model.Event) error {
			item.ID = s.freshID(func(id string) bool { return hasCost(ev.CostItems, id) })
			ev.CostItems = append(ev.CostItems, item)
			return nil
		})
		return item, err
	}

	s.mu.Lock()
	item.ID = s.freshID(func(id string) bool { return hasCost(s.state.SharedCosts, id) })
	shared := append(append([]model.CostItem(nil), s.state.SharedCosts...), item)
	s.state = model.State{Events: s.state.Events, SharedCosts: shared}
	c := s.commitLocked(ChangeCostAdded, "")
	s.mu.Unlock()

	s.publish(c)
	return item, nil
}

// RemoveCostItem deletes a cost from the target. Removing an unknown cost is
// a no-op; only an unknown event is an error.
func (s *Store) RemoveCostItem(t Target, costID string) error {
	if !t.IsShared() {
		return s.update(t.EventID, ChangeCostRemoved, func(ev *model.Event) error {
			ev.CostItems, _ = withoutCost(ev.CostItems, costID)
			return nil
		})
	}

	s.mu.Lock()
	shared, found := withoutCost(s.state.SharedCosts, costID)
	if !found {
		s.mu.Unlock()
		return nil
	}
	s.state = model.State{Events: s.state.Events, SharedCosts: shared}
	c := s.commitLocked(ChangeCostRemoved, "")
	s.mu.Unlock()

	s.publish(c)
	return nil
}
