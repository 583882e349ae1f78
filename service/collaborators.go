package service

import (
	"context"

	"lexsaksham-backend/models"
)

// MaxClassifierTokens is the token budget of the clause classifier.
// Longer inputs are truncated by the model server.
const MaxClassifierTokens = 512

// Classifier predicts the clause type of a text
type Classifier interface {
	Classify(ctx context.Context, text string) (*models.Classification, error)
	// Probabilities returns one probability vector per input text, in label-index order
	Probabilities(ctx context.Context, texts []string) ([][]float64, error)
}

// Translator converts non-English clause text into English
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Summarizer produces an abstractive summary of a clause
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Explainer attributes a classification to individual words
type Explainer interface {
	Explain(ctx context.Context, text string, cls *models.Classification) ([]models.TokenWeight, error)
}

// RefineRequest is one chat completion call to the refinement LLM
type RefineRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

// Refiner rewrites a safer-alternative template with an LLM
type Refiner interface {
	Refine(ctx context.Context, req RefineRequest) (string, error)
}

// Embedder turns text into a dense vector for judgment search
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// JudgmentIndex returns the k judgments nearest to an embedding, closest first
type JudgmentIndex interface {
	Search(ctx context.Context, embedding []float32, k int) ([]models.Judgment, error)
}

// AnalysisLog is an append-only audit sink for analysed clauses
type AnalysisLog interface {
	Append(ctx context.Context, entry models.AnalysisLogEntry) error
	Recent(ctx context.Context, limit int) ([]models.AnalysisLogEntry, error)
}
