package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/evbudget/internal/model"
)

// DateLayout is the layout event dates are stored in.
const DateLayout = "2006-01-02T15:04:05"

var dateLayouts = []string{DateLayout, "2006-01-02T15:04", time.RFC3339, "2006-01-02"}

// EventInput carries the fields needed to create an event.
type EventInput struct {
	Name        string `json:"name"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	TotalBudget int64  `json:"totalBudget"`
	Attendees   int64  `json:"attendees"`
}

// EventPatch holds optional replacements for an event's scalar fields.
type EventPatch struct {
	Name        *string `json:"name,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	TotalBudget *int64  `json:"totalBudget,omitempty"`
	Attendees   *int64  `json:"attendees,omitempty"`
}

// ValidDate reports whether s is empty or a parseable event date.
func ValidDate(s string) bool {
	if s == "" {
		return true
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func validateEvent(name, start, end string, budget, attendees int64) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if budget <= 0 {
		return ErrInvalidBudget
	}
	if attendees < 0 {
		return ErrNegativeAttendees
	}
	if !ValidDate(start) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, start)
	}
	if !ValidDate(end) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, end)
	}
	return nil
}

// CreateEvent validates the input and appends a new event with empty cost
// and task lists.
func (s *Store) CreateEvent(in EventInput) (model.Event, error) {
	name := strings.TrimSpace(in.Name)
	if err := validateEvent(name, in.StartDate, in.EndDate, in.TotalBudget, in.Attendees); err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	id := s.freshID(func(id string) bool { return s.indexOf(id) >= 0 })
	ev := model.Event{
		ID:          id,
		Name:        name,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		TotalBudget: in.TotalBudget,
		Attendees:   in.Attendees,
		CostItems:   []model.CostItem{},
		Tasks:       []model.Task{},
	}
	events := append(append([]model.Event(nil), s.state.Events...), ev)
	s.state = model.State{Events: events, SharedCosts: s.state.SharedCosts}
	c := s.commitLocked(ChangeEventCreated, ev.ID)
	s.mu.Unlock()

	s.publish(c)
	return ev.Clone(), nil
}

// UpdateEvent merges the patch into the event. Costs and tasks are kept.
func (s *Store) UpdateEvent(id string, p EventPatch) (model.Event, error) {
	var out model.Event
	err := s.update(id, ChangeEventUpdated, func(ev *model.Event) error {
		next := *ev
		if p.Name != nil {
			next.Name = strings.TrimSpace(*p.Name)
		}
		if p.StartDate != nil {
			next.StartDate = *p.StartDate
		}
		if p.EndDate != nil {
			next.EndDate = *p.EndDate
		}
		if p.TotalBudget != nil {
			next.TotalBudget = *p.TotalBudget
		}
		if p.Attendees != nil {
			next.Attendees = *p.Attendees
		}
		if err := validateEvent(next.Name, next.StartDate, next.EndDate, next.TotalBudget, next.Attendees); err != nil {
			return err
		}
		*ev = next
		out = next.Clone()
		return nil
	})
	return out, err
}

// DeleteEvent removes the event along with its costs and tasks. Callers are
// expected to have confirmed the deletion.
func (s *Store) DeleteEvent(id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrEventNotFound
	}
	events := make([]model.Event, 0, len(s.state.Events)-1)
	events = append(events, s.state.Events[:i]...)
	events = append(events, s.state.Events[i+1:]...)
	s.state = model.State{Events: events, SharedCosts: s.state.SharedCosts}
	c := s.commitLocked(ChangeEventDeleted, id)
	s.mu.Unlock()

	s.publish(c)
	return nil
}
