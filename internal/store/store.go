// Package store holds the in-memory event state. Every mutation replaces
// whole values under a lock and readers always receive deep copies.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/evbudget/internal/model"
)

// Validation and lookup errors.
var (
	ErrEmptyName         = errors.New("el nombre del evento es obligatorio")
	ErrInvalidBudget     = errors.New("el presupuesto debe ser un número positivo")
	ErrNegativeAttendees = errors.New("el número de asistentes no puede ser negativo")
	ErrInvalidDate       = errors.New("fecha inválida")
	ErrEmptyDescription  = errors.New("la descripción es obligatoria")
	ErrInvalidAmount     = errors.New("el monto debe ser un número positivo")
	ErrEventNotFound     = errors.New("evento no encontrado")
	ErrTaskNotFound      = errors.New("tarea no encontrada")
)

// ChangeKind names the mutation that produced a Change.
type ChangeKind string

const (
	ChangeEventCreated ChangeKind = "event_created"
	ChangeEventUpdated ChangeKind = "event_updated"
	ChangeEventDeleted ChangeKind = "event_deleted"
	ChangeCostAdded    ChangeKind = "cost_added"
	ChangeCostRemoved  ChangeKind = "cost_removed"
	ChangeTaskAdded    ChangeKind = "task_added"
	ChangeTaskUpdated  ChangeKind = "task_updated"
	ChangeTaskRemoved  ChangeKind = "task_removed"
	ChangeReplaced     ChangeKind = "replaced"
)

// Change describes one committed mutation.
type Change struct {
	Seq     int64      `json:"seq"`
	Kind    ChangeKind `json:"kind"`
	EventID string     `json:"event_id,omitempty"`
	At      time.Time  `json:"at"`
}

// Store is the single source of truth for events and shared costs.
type Store struct {
	mu     sync.RWMutex
	state  model.State
	seq    int64
	newID  func() string
	now    func() time.Time
	nextID int

	subMu sync.Mutex
	subs  map[int]chan Change
}

// Option configures a Store.
type Option func(*Store)

// WithIDFunc overrides id generation.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock overrides the clock used to stamp changes.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		state: model.State{Events: []model.Event{}, SharedCosts: []model.CostItem{}},
		newID: uuid.NewString,
		now:   time.Now,
		subs:  make(map[int]chan Change),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Events returns a copy of every event in store order.
func (s *Store) Events() []model.Event {
	return s.Snapshot().Events
}

// SharedCosts returns a copy of the shared cost pool.
func (s *Store) SharedCosts() []model.CostItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CostItem{}, s.state.SharedCosts...)
}

// Event returns a copy of the event with the given id.
func (s *Store) Event(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Event{}, false
	}
	return s.state.Events[i].Clone(), true
}

// Replace swaps in whole collections at once. Inputs are not validated; it
// is the path used for seeding and workbook import.
func (s *Store) Replace(events []model.Event, shared []model.CostItem) {
	next := model.State{Events: events, SharedCosts: shared}.Clone()

	s.mu.Lock()
	s.state = next
	c := s.commitLocked(ChangeReplaced, "")
	s.mu.Unlock()

	s.publish(c)
}

// Transform replaces the whole state with fn's result under one lock. fn
// receives a deep copy and must not block.
func (s *Store) Transform(fn func(model.State) model.State) {
	s.mu.Lock()
	next := fn(s.state.Clone()).Clone()
	s.state = next
	c := s.commitLocked(ChangeReplaced, "")
	s.mu.Unlock()

	s.publish(c)
}

// Subscribe returns a channel of committed changes that closes when ctx is
// done. Slow subscribers miss changes rather than block writers.
func (s *Store) Subscribe(ctx context.Context) <-chan Change {
	ch := make(chan Change, 32)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subs, id)
		close(ch)
		s.subMu.Unlock()
	}()

	return ch
}

func (s *Store) publish(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// commitLocked must be called with mu held.
func (s *Store) commitLocked(kind ChangeKind, eventID string) Change {
	s.seq++
	return Change{Seq: s.seq, Kind: kind, EventID: eventID, At: s.now()}
}

func (s *Store) indexOf(eventID string) int {
	for i, e := range s.state.Events {
		if e.ID == eventID {
			return i
		}
	}
	return -1
}

// update applies fn to a clone of the event and swaps the result in.
func (s *Store) update(eventID string, kind ChangeKind, fn func(ev *model.Event) error) error {
	s.mu.Lock()
	i := s.indexOf(eventID)
	if i < 0 {
		s.mu.Unlock()
		return ErrEventNotFound
	}
	ev := s.state.Events[i].Clone()
	if err := fn(&ev); err != nil {
		s.mu.Unlock()
		return err
	}
	events := append([]model.Event(nil), s.state.Events...)
	events[i] = ev
	s.state = model.State{Events: events, SharedCosts: s.state.SharedCosts}
	c := s.commitLocked(kind, eventID)
	s.mu.Unlock()

	s.publish(c)
	return nil
}

// freshID returns an id not present in taken.
func (s *Store) freshID(taken func(string) bool) string {
	for {
		id := s.newID()
		if !taken(id) {
			return id
		}
	}
}
