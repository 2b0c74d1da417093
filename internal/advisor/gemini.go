package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiService completes prompts with the Gemini API.
type GeminiService struct {
	client *genai.Client
	model  string
}

// NewGeminiService creates a Gemini API client for model.
func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiService{client: client, model: model}, nil
}

// Complete sends the prompt as a single-turn request.
func (s *GeminiService) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyGemini(err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}
	return resp.Text(), nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case strings.Contains(apiErr.Message, "API key not valid"),
		apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrInvalidKey, apiErr.Message)
	default:
		return fmt.Errorf("gemini %d: %s", apiErr.Code, apiErr.Message)
	}
}
