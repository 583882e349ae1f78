// Package llm adapts hosted language models to the analysis pipeline:
// OpenRouter chat completions for clause refinement and Gemini for
// translation, summaries and judgment embeddings.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lexsaksham-backend/service"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel = "google/gemini-2.5-flash-lite"
	DefaultRefineTimeout   = 30 * time.Second

	refererHeader = "https://lexsaksham.local"
	titleHeader   = "LexSaksham Contract Analysis"
)

var ErrNoChoices = errors.New("refiner returned no choices")

// OpenRouterConfig configures the OpenRouter refiner
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenRouterRefiner implements service.Refiner over an OpenAI-compatible endpoint
type OpenRouterRefiner struct {
	client *openai.Client
	model  string
}

// headerTransport adds the OpenRouter attribution headers to each request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// NewOpenRouterRefiner creates a refiner; the API key is required
func NewOpenRouterRefiner(cfg OpenRouterConfig) (*OpenRouterRefiner, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenRouter API key not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenRouterURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenRouterModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRefineTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &headerTransport{
			base: otelhttp.NewTransport(http.DefaultTransport),
			headers: map[string]string{
				"HTTP-Referer": refererHeader,
				"X-Title":      titleHeader,
			},
		},
	}

	slog.Info("Initializing OpenRouter refiner", "model", cfg.Model, "timeout", cfg.Timeout)
	return &OpenRouterRefiner{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Refine implements service.Refiner
func (r *OpenRouterRefiner) Refine(ctx context.Context, req service.RefineRequest) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("OpenRouter API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	slog.Debug("Received refinement", "model", r.model, "finish_reason", resp.Choices[0].FinishReason)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
