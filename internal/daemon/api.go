package daemon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/theirongolddev/evbudget/internal/advisor"
	"github.com/theirongolddev/evbudget/internal/budget"
	"github.com/theirongolddev/evbudget/internal/model"
	"github.com/theirongolddev/evbudget/internal/sheet"
	"github.com/theirongolddev/evbudget/internal/store"
)

const maxUploadBytes = 32 << 20

var (
	errConfirmRequired = errors.New("la acción requiere confirmación (?confirm=true)")
	errAdvisorDisabled = errors.New("el asesor no está configurado")
	errBadBody         = errors.New("cuerpo de la solicitud inválido")
)

// StateResponse is served at /v1/state.
type StateResponse struct {
	State   model.State   `json:"state"`
	Summary model.Summary `json:"summary"`
}

type costRequest struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	IsVariable  bool   `json:"isVariable"`
}

type taskRequest struct {
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
}

type adviceRequest struct {
	Question string `json:"question"`
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

func (s *Service) handleState(w http.ResponseWriter, _ *http.Request) {
	st := s.store.Snapshot()
	writeJSON(w, http.StatusOK, StateResponse{State: st, Summary: budget.Compute(st)})
}

func (s *Service) handleSummaryText(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, advisor.SummaryText(s.store.Snapshot()))
}

func (s *Service) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in store.EventInput
	if !decode(w, r, &in) {
		return
	}
	ev, err := s.store.CreateEvent(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Service) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var p store.EventPatch
	if !decode(w, r, &p) {
		return
	}
	ev, err := s.store.UpdateEvent(chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Service) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		writeError(w, errConfirmRequired)
		return
	}
	if err := s.store.DeleteEvent(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// costTarget resolves the cost list a route addresses. Routes without an
// {id} parameter address the shared pool.
func costTarget(r *http.Request) store.Target {
	if id := chi.URLParam(r, "id"); id != "" {
		return store.EventTarget(id)
	}
	return store.Shared
}

func (s *Service) handleAddCost(w http.ResponseWriter, r *http.Request) {
	var in costRequest
	if !decode(w, r, &in) {
		return
	}
	item, err := s.store.AddCostItem(costTarget(r), in.Description, in.Amount, in.IsVariable)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Service) handleRemoveCost(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveCostItem(costTarget(r), chi.URLParam(r, "costID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var in taskRequest
	if !decode(w, r, &in) {
		return
	}
	task, err := s.store.AddTask(chi.URLParam(r, "id"), in.Description, in.DueDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Service) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var in taskRequest
	if !decode(w, r, &in) {
		return
	}
	task, err := s.store.UpdateTask(chi.URLParam(r, "id"), chi.URLParam(r, "taskID"), in.Description, in.DueDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Service) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.ToggleTask(id, chi.URLParam(r, "taskID")); err != nil {
		writeError(w, err)
		return
	}
	ev, _ := s.store.Event(id)
	writeJSON(w, http.StatusOK, ev)
}

func (s *Service) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveTask(chi.URLParam(r, "id"), chi.URLParam(r, "taskID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleExport(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := s.export(&buf, s.store.Snapshot()); err != nil {
		s.logger.Error("export failed", "err", err)
		writeError(w, fmt.Errorf("exportando planilla: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sheet.FileName(s.now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (s *Service) handleImport(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		writeError(w, errConfirmRequired)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	body := io.Reader(r.Body)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		f, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, fmt.Errorf("%w: %v", errBadBody, err))
			return
		}
		defer func() { _ = f.Close() }()
		body = f
	}

	rep, err := sheet.Import(s.store, body)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("workbook imported",
		"specific_costs", rep.SpecificCosts,
		"shared_costs", rep.SharedCosts,
		"tasks", rep.Tasks,
		"dropped_rows", rep.DroppedRows)
	writeJSON(w, http.StatusOK, rep)
}

func (s *Service) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": errAdvisorDisabled.Error()})
		return
	}
	var in adviceRequest
	if r.ContentLength != 0 && !decode(w, r, &in) {
		return
	}
	answer := s.advisor.Ask(r.Context(), s.store.Snapshot(), in.Question)
	writeJSON(w, http.StatusOK, adviceResponse{Advice: answer})
}

func confirmed(r *http.Request) bool {
	v := strings.ToLower(r.URL.Query().Get("confirm"))
	return v == "true" || v == "1" || v == "yes"
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadBody, err))
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrEventNotFound), errors.Is(err, store.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, errConfirmRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, store.ErrEmptyName),
		errors.Is(err, store.ErrInvalidBudget),
		errors.Is(err, store.ErrNegativeAttendees),
		errors.Is(err, store.ErrInvalidDate),
		errors.Is(err, store.ErrEmptyDescription),
		errors.Is(err, store.ErrInvalidAmount),
		errors.Is(err, sheet.ErrUnreadable),
		errors.Is(err, errBadBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
