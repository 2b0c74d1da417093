// Package model defines the domain types for events, their costs and tasks.
package model

// CostItem is a single expense line. When IsVariable is set, Amount is a
// per-attendee rate rather than a flat amount.
type CostItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	IsVariable  bool   `json:"isVariable"`
}

// Task is a to-do entry attached to an event. DueDate is YYYY-MM-DD or empty.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	IsComplete  bool   `json:"isComplete"`
}

// Event is a budgeted occasion with its own costs and tasks.
type Event struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	TotalBudget int64      `json:"totalBudget"`
	Attendees   int64      `json:"attendees"`
	CostItems   []CostItem `json:"costItems"`
	Tasks       []Task     `json:"tasks"`
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	out := e
	out.CostItems = append([]CostItem(nil), e.CostItems...)
	out.Tasks = append([]Task(nil), e.Tasks...)
	if out.CostItems == nil {
		out.CostItems = []CostItem{}
	}
	if out.Tasks == nil {
		out.Tasks = []Task{}
	}
	return out
}

// PendingTasks counts tasks not yet completed.
func (e Event) PendingTasks() int {
	n := 0
	for _, t := range e.Tasks {
		if !t.IsComplete {
			n++
		}
	}
	return n
}

// State is a point-in-time snapshot of every event and the shared cost pool.
type State struct {
	Events      []Event    `json:"events"`
	SharedCosts []CostItem `json:"sharedCosts"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{
		Events:      make([]Event, len(s.Events)),
		SharedCosts: append([]CostItem{}, s.SharedCosts...),
	}
	for i, e := range s.Events {
		out.Events[i] = e.Clone()
	}
	return out
}

// EventByName returns the first event whose name matches exactly.
func (s State) EventByName(name string) (Event, bool) {
	for _, e := range s.Events {
		if e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}
