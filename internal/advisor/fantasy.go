package advisor

import (
	"context"
	"fmt"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"github.com/charmbracelet/catwalk/pkg/catwalk"
)

// ModelService completes prompts with a fantasy language model.
type ModelService struct {
	model     fantasy.LanguageModel
	maxTokens int64
}

// NewModelService wraps a language model. maxTokens <= 0 leaves the
// provider default.
func NewModelService(model fantasy.LanguageModel, maxTokens int64) *ModelService {
	return &ModelService{model: model, maxTokens: maxTokens}
}

// Complete sends the prompt as a single user message.
func (s *ModelService) Complete(ctx context.Context, prompt string) (string, error) {
	call := fantasy.Call{
		Prompt: fantasy.Prompt{fantasy.NewUserMessage(prompt)},
	}
	if s.maxTokens > 0 {
		n := s.maxTokens
		call.MaxOutputTokens = &n
	}

	resp, err := s.model.Generate(ctx, call)
	if err != nil {
		return "", fmt.Errorf("generating advice with %s/%s: %w", s.model.Provider(), s.model.Model(), err)
	}
	return resp.Content.Text(), nil
}

// buildProvider creates a fantasy provider for an OpenAI-style or
// Anthropic backend.
func buildProvider(providerType, apiKey, baseURL string) (fantasy.Provider, error) {
	switch catwalk.Type(providerType) {
	case catwalk.TypeOpenAI, catwalk.TypeOpenAICompat:
		var opts []openai.Option
		if apiKey != "" {
			opts = append(opts, openai.WithAPIKey(apiKey))
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		return openai.New(opts...)
	case catwalk.TypeAnthropic:
		var opts []anthropic.Option
		if apiKey != "" {
			opts = append(opts, anthropic.WithAPIKey(apiKey))
		}
		if baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(baseURL))
		}
		return anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider type: %q", providerType)
	}
}
