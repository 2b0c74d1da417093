package advisor

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/theirongolddev/evbudget/internal/model"
)

const requestTimeout = 60 * time.Second

var (
	// ErrNetwork indicates the advice service could not be reached.
	ErrNetwork = errors.New("advisor: network failure")
	// ErrInvalidKey indicates the service rejected the API key.
	ErrInvalidKey = errors.New("advisor: API key not valid")
	// ErrBlocked indicates the request was blocked by a safety policy.
	ErrBlocked = errors.New("advisor: request blocked")
	// ErrEmptyReply indicates the service answered with no text.
	ErrEmptyReply = errors.New("advisor: empty reply")
)

// User-facing failure messages.
const (
	MsgNetwork    = "Error de red: No se pudo conectar con el servicio de IA. Por favor, revisa tu conexión a internet e inténtalo de nuevo."
	MsgInvalidKey = "Error de autenticación: La clave de API no es válida. Por favor, verifica la configuración."
	MsgBlocked    = "Tu solicitud fue bloqueada por políticas de seguridad. Por favor, ajusta tu pregunta."
	MsgGeneric    = "Ha ocurrido un error con el servicio de IA: "
	MsgUnexpected = "Lo siento, ha ocurrido un error inesperado al contactar al asistente de IA. Por favor, inténtalo de nuevo más tarde."
)

// Service sends a prompt to a text generation backend.
type Service interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f ServiceFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Advisor asks a Service for advice about the current state.
type Advisor struct {
	svc    Service
	logger *slog.Logger
}

// New creates an Advisor. A nil logger discards logs.
func New(svc Service, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Advisor{svc: svc, logger: logger}
}

// Ask returns advice for the question, or a user-facing failure message.
// It never fails.
func (a *Advisor) Ask(ctx context.Context, st model.State, question string) string {
	if a == nil || a.svc == nil {
		return MsgUnexpected
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reply, err := a.svc.Complete(ctx, Prompt(st, question))
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		a.logger.Error("advice request failed", "err", err)
		return Explain(err)
	}
	return reply
}

// Explain maps a service error to one of the fixed user-facing messages.
func Explain(err error) string {
	if err == nil {
		return MsgUnexpected
	}

	var netErr net.Error
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case errors.Is(err, ErrNetwork), errors.As(err, &netErr),
		strings.Contains(lower, "fetch failed"), strings.Contains(lower, "network"):
		return MsgNetwork
	case errors.Is(err, ErrInvalidKey), strings.Contains(msg, "API key not valid"):
		return MsgInvalidKey
	case errors.Is(err, ErrBlocked), strings.Contains(lower, "blocked"):
		return MsgBlocked
	case errors.Is(err, ErrEmptyReply), strings.TrimSpace(msg) == "":
		return MsgUnexpected
	default:
		return MsgGeneric + msg
	}
}
