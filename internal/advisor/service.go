package advisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/evbudget/internal/config"
)

// ErrNoAPIKey means no credential was configured for the advice provider.
var ErrNoAPIKey = errors.New("no API key configured for the advisor (set EVBUDGET_API_KEY or run `evbudget setup`)")

// NewService builds the Service selected by the advisor config.
func NewService(ctx context.Context, cfg config.Config) (Service, error) {
	ac := cfg.Advisor
	key := config.AdvisorAPIKey(cfg)
	if key == "" && ac.BaseURL == "" {
		return nil, ErrNoAPIKey
	}

	if ac.Provider == config.ProviderGemini || ac.Provider == "" {
		return NewGeminiService(ctx, key, ac.Model)
	}

	provider, err := buildProvider(ac.Provider, key, ac.BaseURL)
	if err != nil {
		return nil, err
	}
	lm, err := provider.LanguageModel(ctx, ac.Model)
	if err != nil {
		return nil, fmt.Errorf("getting language model %q: %w", ac.Model, err)
	}
	return NewModelService(lm, ac.MaxTokens), nil
}
