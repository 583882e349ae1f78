package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"lexsaksham-backend/service"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
)

const (
	DefaultTranslationModel = "gemini-2.0-flash"
	DefaultSummaryModel     = "gemini-2.0-flash"
	DefaultEmbeddingModel   = "text-embedding-004"

	// EmbeddingDimensions matches the judgments.embedding column
	EmbeddingDimensions = 768
)

var ErrEmptyCandidate = errors.New("model returned no text")

// contentGenerator is the part of *genai.GenerativeModel used here
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// contentEmbedder is the part of *genai.EmbeddingModel used here
type contentEmbedder interface {
	EmbedContent(ctx context.Context, parts ...genai.Part) (*genai.EmbedContentResponse, error)
}

const translatePrompt = `Translate the following contract clause from Hindi into English.
Preserve legal meaning, party names, numbers and defined terms.
Return ONLY the English translation, no commentary.

Clause:
%s`

const summaryPrompt = `Summarize the following contract clause in one or two plain-English sentences for a non-lawyer.
Return ONLY the summary.

Clause:
%s`

// GeminiTranslator implements service.Translator
type GeminiTranslator struct {
	model contentGenerator
}

// NewGeminiTranslator creates a translator on the named model
func NewGeminiTranslator(client *genai.Client, modelName string) *GeminiTranslator {
	if modelName == "" {
		modelName = DefaultTranslationModel
	}
	m := client.GenerativeModel(modelName)
	m.SetTemperature(0)
	return &GeminiTranslator{model: m}
}

// Translate implements service.Translator
func (t *GeminiTranslator) Translate(ctx context.Context, text string) (string, error) {
	return generateText(ctx, t.model, fmt.Sprintf(translatePrompt, text))
}

// GeminiSummarizer implements service.Summarizer
type GeminiSummarizer struct {
	model contentGenerator
}

// NewGeminiSummarizer creates a summarizer on the named model
func NewGeminiSummarizer(client *genai.Client, modelName string) *GeminiSummarizer {
	if modelName == "" {
		modelName = DefaultSummaryModel
	}
	m := client.GenerativeModel(modelName)
	m.SetTemperature(0.2)
	m.SetMaxOutputTokens(150)
	return &GeminiSummarizer{model: m}
}

// Summarize implements service.Summarizer
func (s *GeminiSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	return generateText(ctx, s.model, fmt.Sprintf(summaryPrompt, text))
}

// GeminiEmbedder implements service.Embedder
type GeminiEmbedder struct {
	model contentEmbedder
}

// NewGeminiEmbedder creates an embedder producing retrieval-query vectors
func NewGeminiEmbedder(client *genai.Client, modelName string) *GeminiEmbedder {
	if modelName == "" {
		modelName = DefaultEmbeddingModel
	}
	em := client.EmbeddingModel(modelName)
	em.TaskType = genai.TaskTypeRetrievalQuery
	return &GeminiEmbedder{model: em}
}

// Embed implements service.Embedder.
// Client errors (4xx other than 429) are marked as not worth retrying.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w", service.ErrEmbeddingRejected, err)
		}
		return nil, err
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, errors.New("embedding response is empty")
	}
	if len(resp.Embedding.Values) != EmbeddingDimensions {
		return nil, fmt.Errorf("%w: embedding must be %d dimensions, got %d",
			service.ErrEmbeddingRejected, EmbeddingDimensions, len(resp.Embedding.Values))
	}
	return resp.Embedding.Values, nil
}

func generateText(ctx context.Context, model contentGenerator, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyCandidate
	}

	var out strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				out.WriteString(string(t))
			}
		}
		if out.Len() > 0 {
			break
		}
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", ErrEmptyCandidate
	}
	return text, nil
}
