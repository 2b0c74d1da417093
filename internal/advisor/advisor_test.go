package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"charm.land/fantasy"

	"github.com/theirongolddev/evbudget/internal/model"
)

func sampleState() model.State {
	return model.State{
		Events: []model.Event{
			{
				ID: "e1", Name: "Los Ríos Atrae", TotalBudget: 20_000_000, Attendees: 100,
				CostItems: []model.CostItem{
					{Description: "Catering", Amount: 500_000},
					{Description: "Credenciales", Amount: 1_000, IsVariable: true},
				},
			},
			{ID: "e2", Name: "Ruedalab IA", TotalBudget: 10_000_000},
		},
		SharedCosts: []model.CostItem{{Amount: 2_000_000}, {Amount: 1_000_000}},
	}
}

func TestSummaryText(t *testing.T) {
	got := SummaryText(sampleState())
	want := "Evento: Los Ríos Atrae\n" +
		"- Presupuesto Total: $20.000.000\n" +
		"- Gasto Total: $2.100.000\n" +
		"- Presupuesto Disponible: $17.900.000\n\n" +
		"Evento: Ruedalab IA\n" +
		"- Presupuesto Total: $10.000.000\n" +
		"- Gasto Total: $1.500.000\n" +
		"- Presupuesto Disponible: $8.500.000\n\n" +
		"Costos compartidos entre todos los eventos suman: $3.000.000\n"
	if got != want {
		t.Errorf("SummaryText =\n%s\nwant\n%s", got, want)
	}
	if again := SummaryText(sampleState()); again != got {
		t.Error("SummaryText is not deterministic")
	}
}

func TestPrompt(t *testing.T) {
	p := Prompt(sampleState(), "  ")
	if !strings.Contains(p, "Estoy planificando 2 evento(s).") {
		t.Errorf("prompt missing event count:\n%s", p)
	}
	if !strings.Contains(p, `Mi pregunta es: "`+DefaultQuestion+`".`) {
		t.Errorf("empty question should fall back to default:\n%s", p)
	}

	p = Prompt(sampleState(), "¿Dónde recorto?")
	if !strings.Contains(p, `"¿Dónde recorto?"`) {
		t.Errorf("prompt missing question:\n%s", p)
	}

	empty := Prompt(model.State{}, "hola")
	if !strings.Contains(empty, "aún no ha creado ningún evento") || strings.Contains(empty, "hola") {
		t.Errorf("no-event prompt = %q", empty)
	}
}

func TestVoiceInstruction(t *testing.T) {
	got := VoiceInstruction(sampleState())
	for _, want := range []string{
		"Evento: Los Ríos Atrae, Presupuesto Disponible: $17.900.000\n",
		"Total de costos compartidos: $3.000.000",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("VoiceInstruction missing %q:\n%s", want, got)
		}
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sentinel network", fmt.Errorf("dial: %w", ErrNetwork), MsgNetwork},
		{"fetch failed text", errors.New("TypeError: fetch failed"), MsgNetwork},
		{"deadline", context.DeadlineExceeded, MsgNetwork},
		{"bad key", errors.New("400: API key not valid. Please pass a valid API key."), MsgInvalidKey},
		{"bad key sentinel", fmt.Errorf("%w: nope", ErrInvalidKey), MsgInvalidKey},
		{"blocked", errors.New("response Blocked by safety settings"), MsgBlocked},
		{"empty reply", ErrEmptyReply, MsgUnexpected},
		{"nil", nil, MsgUnexpected},
		{"other", errors.New("quota exceeded"), MsgGeneric + "quota exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Explain(tt.err); got != tt.want {
				t.Errorf("Explain = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAsk(t *testing.T) {
	var gotPrompt string
	a := New(ServiceFunc(func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "**Recorta** el catering.", nil
	}), nil)

	reply := a.Ask(context.Background(), sampleState(), "")
	if reply != "**Recorta** el catering." {
		t.Errorf("Ask = %q", reply)
	}
	if gotPrompt != Prompt(sampleState(), "") {
		t.Error("service did not receive the built prompt")
	}

	failing := New(ServiceFunc(func(context.Context, string) (string, error) {
		return "", errors.New("request blocked")
	}), nil)
	if got := failing.Ask(context.Background(), sampleState(), "x"); got != MsgBlocked {
		t.Errorf("Ask(failing) = %q, want blocked message", got)
	}

	blank := New(ServiceFunc(func(context.Context, string) (string, error) { return "  ", nil }), nil)
	if got := blank.Ask(context.Background(), sampleState(), "x"); got != MsgUnexpected {
		t.Errorf("Ask(blank) = %q, want unexpected message", got)
	}

	var nilAdvisor *Advisor
	if got := nilAdvisor.Ask(context.Background(), sampleState(), "x"); got != MsgUnexpected {
		t.Errorf("nil Advisor Ask = %q", got)
	}
}

// mockModel implements fantasy.LanguageModel for testing.
type mockModel struct {
	generateFunc func(ctx context.Context, call fantasy.Call) (*fantasy.Response, error)
}

func (m *mockModel) Generate(ctx context.Context, call fantasy.Call) (*fantasy.Response, error) {
	return m.generateFunc(ctx, call)
}

func (m *mockModel) Stream(context.Context, fantasy.Call) (fantasy.StreamResponse, error) {
	return func(yield func(fantasy.StreamPart) bool) {}, nil
}

func (m *mockModel) GenerateObject(context.Context, fantasy.ObjectCall) (*fantasy.ObjectResponse, error) {
	return &fantasy.ObjectResponse{}, nil
}

func (m *mockModel) StreamObject(context.Context, fantasy.ObjectCall) (fantasy.ObjectStreamResponse, error) {
	return func(yield func(fantasy.ObjectStreamPart) bool) {}, nil
}

func (m *mockModel) Provider() string { return "mock" }
func (m *mockModel) Model() string    { return "mock-model" }

var _ fantasy.LanguageModel = (*mockModel)(nil)

func TestModelService(t *testing.T) {
	var calls int
	var maxTokens int64
	m := &mockModel{generateFunc: func(_ context.Context, call fantasy.Call) (*fantasy.Response, error) {
		calls++
		if call.MaxOutputTokens != nil {
			maxTokens = *call.MaxOutputTokens
		}
		if len(call.Prompt) != 1 {
			t.Errorf("prompt messages = %d, want 1", len(call.Prompt))
		}
		return &fantasy.Response{}, nil
	}}

	svc := NewModelService(m, 512)
	if _, err := svc.Complete(context.Background(), "hola"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if calls != 1 || maxTokens != 512 {
		t.Errorf("calls = %d, maxTokens = %d", calls, maxTokens)
	}

	boom := errors.New("API key not valid")
	m.generateFunc = func(context.Context, fantasy.Call) (*fantasy.Response, error) { return nil, boom }
	_, err := svc.Complete(context.Background(), "hola")
	if !errors.Is(err, boom) {
		t.Fatalf("Complete err = %v, want wrapped %v", err, boom)
	}
	if Explain(err) != MsgInvalidKey {
		t.Errorf("Explain(wrapped) = %q", Explain(err))
	}
}

func TestBuildProviderRejectsUnknownType(t *testing.T) {
	if _, err := buildProvider("bedrock", "k", ""); err == nil {
		t.Error("buildProvider(bedrock) should fail")
	}
}
