package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/evbudget/internal/advisor"
	"github.com/theirongolddev/evbudget/internal/model"
	"github.com/theirongolddev/evbudget/internal/store"
)

func newTestService(t *testing.T, adv *advisor.Advisor) (*Service, *store.Store) {
	t.Helper()
	st := store.New()
	return New(Config{EventsBuffer: 50}, st, adv, nil), st
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, code, rec.Body.String())
	}
}

func TestHealthAndStatus(t *testing.T) {
	s, _ := newTestService(t, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	wantStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "ok\n" {
		t.Errorf("healthz body = %q", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/v1/status", nil)
	wantStatus(t, rec, http.StatusOK)
	st := decodeBody[Status](t, rec)
	if st.AdvisorEnabled {
		t.Error("advisor reported enabled without one")
	}
}

func TestEventRoutes(t *testing.T) {
	s, st := newTestService(t, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/v1/events", store.EventInput{Name: "Concierto", TotalBudget: 10_000_000, Attendees: 100})
	wantStatus(t, rec, http.StatusCreated)
	a := decodeBody[model.Event](t, rec)

	rec = do(t, h, http.MethodPost, "/v1/events", store.EventInput{Name: "Feria", TotalBudget: 10_000_000, Attendees: 50})
	wantStatus(t, rec, http.StatusCreated)
	b := decodeBody[model.Event](t, rec)

	rec = do(t, h, http.MethodPost, "/v1/events", store.EventInput{Name: "Sin plata"})
	wantStatus(t, rec, http.StatusBadRequest)
	if !strings.Contains(rec.Body.String(), store.ErrInvalidBudget.Error()) {
		t.Errorf("error body = %s", rec.Body.String())
	}

	wantStatus(t, do(t, h, http.MethodPost, "/v1/events/"+a.ID+"/costs", costRequest{Description: "Escenario", Amount: 500_000}), http.StatusCreated)
	wantStatus(t, do(t, h, http.MethodPost, "/v1/events/"+b.ID+"/costs", costRequest{Description: "Catering", Amount: 1_000, IsVariable: true}), http.StatusCreated)
	wantStatus(t, do(t, h, http.MethodPost, "/v1/shared-costs", costRequest{Description: "Oficina", Amount: 3_000_000}), http.StatusCreated)
	wantStatus(t, do(t, h, http.MethodPost, "/v1/shared-costs", costRequest{Description: "Nada", Amount: 0}), http.StatusBadRequest)
	wantStatus(t, do(t, h, http.MethodPost, "/v1/events/nope/costs", costRequest{Description: "X", Amount: 1}), http.StatusNotFound)

	rec = do(t, h, http.MethodGet, "/v1/state", nil)
	wantStatus(t, rec, http.StatusOK)
	resp := decodeBody[StateResponse](t, rec)
	if len(resp.State.Events) != 2 || len(resp.State.SharedCosts) != 1 {
		t.Fatalf("state = %+v", resp.State)
	}
	fa, _ := resp.Summary.Figures(a.ID)
	if got := fa.Remaining.String(); got != "8000000" {
		t.Errorf("remaining of %s = %s, want 8000000", a.Name, got)
	}
	fb, _ := resp.Summary.Figures(b.ID)
	if got := fb.TotalSpent.String(); got != "1550000" {
		t.Errorf("spent of %s = %s, want 1550000", b.Name, got)
	}

	name := "Concierto Sinfónico"
	rec = do(t, h, http.MethodPatch, "/v1/events/"+a.ID, store.EventPatch{Name: &name})
	wantStatus(t, rec, http.StatusOK)
	if got := decodeBody[model.Event](t, rec); got.Name != name || len(got.CostItems) != 1 {
		t.Errorf("patched event = %+v", got)
	}
	wantStatus(t, do(t, h, http.MethodPatch, "/v1/events/nope", store.EventPatch{Name: &name}), http.StatusNotFound)

	wantStatus(t, do(t, h, http.MethodDelete, "/v1/events/"+a.ID, nil), http.StatusPreconditionRequired)
	if len(st.Events()) != 2 {
		t.Fatal("event deleted without confirmation")
	}
	wantStatus(t, do(t, h, http.MethodDelete, "/v1/events/"+a.ID+"?confirm=true", nil), http.StatusNoContent)
	wantStatus(t, do(t, h, http.MethodDelete, "/v1/events/"+a.ID+"?confirm=true", nil), http.StatusNotFound)
	if len(st.Events()) != 1 {
		t.Fatalf("events after delete = %d, want 1", len(st.Events()))
	}

	shared := st.SharedCosts()
	wantStatus(t, do(t, h, http.MethodDelete, "/v1/shared-costs/"+shared[0].ID, nil), http.StatusNoContent)
	wantStatus(t, do(t, h, http.MethodDelete, "/v1/shared-costs/"+shared[0].ID, nil), http.StatusNoContent)
	if len(st.SharedCosts()) != 0 {
		t.Error("shared cost not removed")
	}
}

func TestTaskRoutes(t *testing.T) {
	s, st := newTestService(t, nil)
	h := s.Handler()

	ev, err := st.CreateEvent(store.EventInput{Name: "Feria", TotalBudget: 1_000_000})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	base := "/v1/events/" + ev.ID + "/tasks"

	rec := do(t, h, http.MethodPost, base, taskRequest{Description: "Contratar sonido", DueDate: "2026-04-01"})
	wantStatus(t, rec, http.StatusCreated)
	task := decodeBody[model.Task](t, rec)

	wantStatus(t, do(t, h, http.MethodPost, base, taskRequest{Description: "  "}), http.StatusBadRequest)
	wantStatus(t, do(t, h, http.MethodPost, base, taskRequest{Description: "X", DueDate: "mañana"}), http.StatusBadRequest)

	rec = do(t, h, http.MethodPatch, base+"/"+task.ID, taskRequest{Description: "Contratar sonido e iluminación", DueDate: "2026-04-02"})
	wantStatus(t, rec, http.StatusOK)
	if got := decodeBody[model.Task](t, rec); got.DueDate != "2026-04-02" {
		t.Errorf("updated task = %+v", got)
	}
	wantStatus(t, do(t, h, http.MethodPatch, base+"/nope", taskRequest{Description: "X"}), http.StatusNotFound)

	rec = do(t, h, http.MethodPost, base+"/"+task.ID+"/toggle", nil)
	wantStatus(t, rec, http.StatusOK)
	if got := decodeBody[model.Event](t, rec); !got.Tasks[0].IsComplete {
		t.Error("task not toggled")
	}

	wantStatus(t, do(t, h, http.MethodDelete, base+"/"+task.ID, nil), http.StatusNoContent)
	if got, _ := st.Event(ev.ID); len(got.Tasks) != 0 {
		t.Errorf("tasks after delete = %+v", got.Tasks)
	}
}

func TestRejectsUnknownFields(t *testing.T) {
	s, _ := newTestService(t, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/v1/events", map[string]any{"name": "X", "totalBudget": 1, "color": "rojo"})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestExportFailureIsServerError(t *testing.T) {
	s, _ := newTestService(t, nil)
	s.export = func(w io.Writer, _ model.State) error {
		_, _ = w.Write([]byte("PK\x03\x04 parcial"))
		return errors.New("disco lleno")
	}

	rec := do(t, s.Handler(), http.MethodGet, "/v1/export", nil)
	wantStatus(t, rec, http.StatusInternalServerError)
	if cd := rec.Header().Get("Content-Disposition"); cd != "" {
		t.Errorf("Content-Disposition = %q on failure, want none", cd)
	}
	if bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Errorf("partial workbook leaked into the error response: %q", rec.Body.String())
	}
}

func TestExportImportRoutes(t *testing.T) {
	s, st := newTestService(t, nil)
	h := s.Handler()

	ev, err := st.CreateEvent(store.EventInput{Name: "Concierto", TotalBudget: 10_000_000, Attendees: 10})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if _, err := st.AddCostItem(store.EventTarget(ev.ID), "Entradas", 2_000, true); err != nil {
		t.Fatalf("AddCostItem: %v", err)
	}
	if _, err := st.AddCostItem(store.Shared, "Oficina", 300_000, false); err != nil {
		t.Fatalf("AddCostItem: %v", err)
	}

	rec := do(t, h, http.MethodGet, "/v1/export", nil)
	wantStatus(t, rec, http.StatusOK)
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Presupuesto_Eventos_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	workbook := rec.Body.Bytes()

	req := httptest.NewRequest(http.MethodPost, "/v1/import", bytes.NewReader(workbook))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	wantStatus(t, rec, http.StatusPreconditionRequired)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "presupuesto.xlsx")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write(workbook)
	_ = mw.Close()

	req = httptest.NewRequest(http.MethodPost, "/v1/import?confirm=true", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	wantStatus(t, rec, http.StatusOK)

	var rep struct {
		SpecificCosts int `json:"specific_costs"`
		SharedCosts   int `json:"shared_costs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.SpecificCosts != 1 || rep.SharedCosts != 1 {
		t.Errorf("report = %+v, want 1 specific and 1 shared", rep)
	}
	got, _ := st.Event(ev.ID)
	if len(got.CostItems) != 1 || !got.CostItems[0].IsVariable || got.CostItems[0].Amount != 2_000 {
		t.Errorf("imported costs = %+v", got.CostItems)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/import?confirm=true", strings.NewReader("no es un libro"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	wantStatus(t, rec, http.StatusBadRequest)
	if len(st.SharedCosts()) != 1 {
		t.Error("unreadable import changed the store")
	}
}

func TestAdviceRoute(t *testing.T) {
	var prompt string
	adv := advisor.New(advisor.ServiceFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "Negocia el catering.", nil
	}), nil)
	s, st := newTestService(t, adv)
	if _, err := st.CreateEvent(store.EventInput{Name: "Feria", TotalBudget: 1_000_000}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	rec := do(t, s.Handler(), http.MethodPost, "/v1/advice", adviceRequest{Question: "¿Dónde ahorro?"})
	wantStatus(t, rec, http.StatusOK)
	if got := decodeBody[adviceResponse](t, rec); got.Advice != "Negocia el catering." {
		t.Errorf("advice = %q", got.Advice)
	}
	if !strings.Contains(prompt, "¿Dónde ahorro?") || !strings.Contains(prompt, "Evento: Feria") {
		t.Errorf("prompt = %q", prompt)
	}

	plain, _ := newTestService(t, nil)
	wantStatus(t, do(t, plain.Handler(), http.MethodPost, "/v1/advice", adviceRequest{}), http.StatusServiceUnavailable)
}

func TestSummaryText(t *testing.T) {
	s, st := newTestService(t, nil)
	if _, err := st.CreateEvent(store.EventInput{Name: "Feria", TotalBudget: 1_000_000}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	rec := do(t, s.Handler(), http.MethodGet, "/v1/summary.txt", nil)
	wantStatus(t, rec, http.StatusOK)
	if !strings.HasPrefix(rec.Body.String(), "Evento: Feria\n- Presupuesto Total: $1.000.000\n") {
		t.Errorf("summary = %q", rec.Body.String())
	}
}

func TestChangesFeed(t *testing.T) {
	s, st := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Watch(ctx)

	if _, err := st.CreateEvent(store.EventInput{Name: "Feria", TotalBudget: 1_000_000}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var events []Event
	for time.Now().Before(deadline) {
		events = decodeBody[[]Event](t, do(t, s.Handler(), http.MethodGet, "/v1/changes", nil))
		if len(events) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(events) != 1 {
		t.Fatalf("changes = %+v, want one event", events)
	}
	if events[0].Change != store.ChangeEventCreated || events[0].Delta == nil || events[0].Delta.TotalBudget != 1_000_000 {
		t.Errorf("change = %+v", events[0])
	}
}

func TestStreamSendsSnapshotFirst(t *testing.T) {
	s, _ := newTestService(t, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if line != "event: snapshot\n" {
		t.Errorf("first line = %q, want snapshot event", line)
	}
}
