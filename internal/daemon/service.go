// Package daemon serves the event store over HTTP with a change feed.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/theirongolddev/evbudget/internal/advisor"
	"github.com/theirongolddev/evbudget/internal/budget"
	"github.com/theirongolddev/evbudget/internal/model"
	"github.com/theirongolddev/evbudget/internal/sheet"
	"github.com/theirongolddev/evbudget/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	EventsBuffer int
}

// Snapshot is a compact portfolio state for status and event payloads.
type Snapshot struct {
	At             time.Time `json:"at"`
	Events         int       `json:"events"`
	CostItems      int       `json:"cost_items"`
	PendingTasks   int       `json:"pending_tasks"`
	TotalBudget    int64     `json:"total_budget"`
	TotalSpent     int64     `json:"total_spent"`
	TotalRemaining int64     `json:"total_remaining"`
	SharedCosts    int64     `json:"shared_costs"`
}

// Delta captures the difference between two snapshots.
type Delta struct {
	Events         int   `json:"events"`
	CostItems      int   `json:"cost_items"`
	PendingTasks   int   `json:"pending_tasks"`
	TotalBudget    int64 `json:"total_budget"`
	TotalSpent     int64 `json:"total_spent"`
	TotalRemaining int64 `json:"total_remaining"`
	SharedCosts    int64 `json:"shared_costs"`
}

func (d Delta) isZero() bool {
	return d == Delta{}
}

// Event is emitted for every committed store change.
type Event struct {
	ID        int64            `json:"id"`
	Type      string           `json:"type"`
	EventID   string           `json:"event_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Snapshot  Snapshot         `json:"snapshot"`
	Delta     *Delta           `json:"delta,omitempty"`
	Change    store.ChangeKind `json:"change,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastChangeAt    time.Time `json:"last_change_at"`
	ChangeCount     int64     `json:"change_count"`
	Summary         Snapshot  `json:"summary"`
	AdvisorEnabled  bool      `json:"advisor_enabled"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	store   *store.Store
	advisor *advisor.Advisor
	logger  *slog.Logger
	now     func() time.Time
	// export renders the workbook served by GET /v1/export.
	export func(io.Writer, model.State) error

	mu           sync.RWMutex
	startedAt    time.Time
	lastChangeAt time.Time
	changeCount  int64
	snapshot     Snapshot
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon over st. adv may be nil, in which case advice
// requests are refused. A nil logger discards logs.
func New(cfg Config, st *store.Store, adv *advisor.Advisor, logger *slog.Logger) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Service{
		cfg:     cfg,
		store:   st,
		advisor: adv,
		logger:  logger,
		now:     time.Now,
		export:  sheet.Write,
		subs:    make(map[int]chan Event),
	}
	s.startedAt = s.now()
	s.snapshot = snapshotOf(st.Snapshot(), s.startedAt)
	return s
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/state", s.handleState)
		r.Get("/summary.txt", s.handleSummaryText)
		r.Get("/changes", s.handleChanges)
		r.Get("/stream", s.handleStream)

		r.Post("/events", s.handleCreateEvent)
		r.Route("/events/{id}", func(r chi.Router) {
			r.Patch("/", s.handleUpdateEvent)
			r.Delete("/", s.handleDeleteEvent)
			r.Post("/costs", s.handleAddCost)
			r.Delete("/costs/{costID}", s.handleRemoveCost)
			r.Post("/tasks", s.handleAddTask)
			r.Patch("/tasks/{taskID}", s.handleUpdateTask)
			r.Post("/tasks/{taskID}/toggle", s.handleToggleTask)
			r.Delete("/tasks/{taskID}", s.handleRemoveTask)
		})
		r.Post("/shared-costs", s.handleAddCost)
		r.Delete("/shared-costs/{costID}", s.handleRemoveCost)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Post("/advice", s.handleAdvice)
	})
	return r
}

// Run serves the API and follows store changes until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.Watch(ctx)
	s.logger.Info("daemon listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// Watch subscribes to the store and records every change until ctx is
// done. The subscription is active when Watch returns.
func (s *Service) Watch(ctx context.Context) {
	changes := s.store.Subscribe(ctx)
	go func() {
		for c := range changes {
			s.observe(c)
		}
	}()
}

func (s *Service) observe(c store.Change) {
	snap := snapshotOf(s.store.Snapshot(), c.At)

	s.mu.Lock()
	delta := diffSnapshots(s.snapshot, snap)
	s.snapshot = snap
	s.lastChangeAt = c.At
	s.changeCount++
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      "change",
		EventID:   c.EventID,
		Timestamp: c.At,
		Snapshot:  snap,
		Change:    c.Kind,
	}
	if !delta.isZero() {
		ev.Type = "budget_delta"
		ev.Delta = &delta
	}
	s.mu.Unlock()

	s.logger.Debug("store change", "kind", c.Kind, "event", c.EventID, "seq", c.Seq)
	s.publishEvent(ev)
}

func snapshotOf(st model.State, at time.Time) Snapshot {
	sum := budget.Compute(st)
	snap := Snapshot{
		At:             at,
		Events:         sum.EventCount,
		CostItems:      len(st.SharedCosts),
		TotalBudget:    sum.TotalBudget,
		TotalSpent:     budget.Round(sum.TotalSpent),
		TotalRemaining: budget.Round(sum.TotalRemaining),
		SharedCosts:    sum.TotalSharedCost,
	}
	for _, ev := range st.Events {
		snap.CostItems += len(ev.CostItems)
	}
	for _, f := range sum.Events {
		snap.PendingTasks += f.PendingTasks
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Events:         curr.Events - prev.Events,
		CostItems:      curr.CostItems - prev.CostItems,
		PendingTasks:   curr.PendingTasks - prev.PendingTasks,
		TotalBudget:    curr.TotalBudget - prev.TotalBudget,
		TotalSpent:     curr.TotalSpent - prev.TotalSpent,
		TotalRemaining: curr.TotalRemaining - prev.TotalRemaining,
		SharedCosts:    curr.SharedCosts - prev.SharedCosts,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastChangeAt:    s.lastChangeAt,
		ChangeCount:     s.changeCount,
		Summary:         s.snapshot,
		AdvisorEnabled:  s.advisor != nil,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleChanges(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	current := Event{
		Type:      "snapshot",
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
