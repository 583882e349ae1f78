package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lexsaksham-backend/models"
	"lexsaksham-backend/observability"

	"github.com/sethvargo/go-retry"
)

var (
	ErrIndexUnavailable = errors.New("index not available")
	ErrEmbeddingFailed  = errors.New("failed to generate embedding")
	ErrSearchFailed     = errors.New("failed to search judgments")
	// ErrEmbeddingRejected marks embedding errors that retrying cannot fix
	ErrEmbeddingRejected = errors.New("embedding request rejected")
)

const (
	DefaultJudgmentTopK = 3
	MaxJudgmentTopK     = 20

	embedMaxRetries  = 3
	embedBaseBackoff = time.Second
)

// JudgmentService finds prior judgments similar to a clause
type JudgmentService struct {
	embedder    Embedder
	index       JudgmentIndex
	metrics     *observability.Metrics
	logger      *slog.Logger
	baseBackoff time.Duration
	maxRetries  uint64
}

// JudgmentServiceOption is a functional option for JudgmentService
type JudgmentServiceOption func(*JudgmentService)

// JudgmentWithEmbedder sets the query embedder
func JudgmentWithEmbedder(e Embedder) JudgmentServiceOption {
	return func(s *JudgmentService) {
		s.embedder = e
	}
}

// JudgmentWithIndex sets the vector index
func JudgmentWithIndex(idx JudgmentIndex) JudgmentServiceOption {
	return func(s *JudgmentService) {
		s.index = idx
	}
}

// JudgmentWithMetrics sets the Prometheus metrics
func JudgmentWithMetrics(m *observability.Metrics) JudgmentServiceOption {
	return func(s *JudgmentService) {
		s.metrics = m
	}
}

// JudgmentWithLogger sets the structured logger
func JudgmentWithLogger(l *slog.Logger) JudgmentServiceOption {
	return func(s *JudgmentService) {
		s.logger = l
	}
}

// JudgmentWithRetry sets the embedding retry policy
func JudgmentWithRetry(base time.Duration, maxRetries uint64) JudgmentServiceOption {
	return func(s *JudgmentService) {
		s.baseBackoff = base
		s.maxRetries = maxRetries
	}
}

// NewJudgmentService creates a new judgment search service
func NewJudgmentService(opts ...JudgmentServiceOption) *JudgmentService {
	s := &JudgmentService{
		baseBackoff: embedBaseBackoff,
		maxRetries:  embedMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Available reports whether both the embedder and the index are configured
func (s *JudgmentService) Available() bool {
	return s.embedder != nil && s.index != nil
}

// SearchJudgmentsRequest represents a similarity search
type SearchJudgmentsRequest struct {
	ClauseText string
	TopK       int // 0 means DefaultJudgmentTopK
}

// SearchJudgmentsResult holds judgments ordered by decreasing similarity
type SearchJudgmentsResult struct {
	Judgments []models.Judgment
}

// Search embeds the clause and returns its nearest judgments
func (s *JudgmentService) Search(ctx context.Context, req SearchJudgmentsRequest) (*SearchJudgmentsResult, error) {
	if !s.Available() {
		s.metrics.ObserveSearch("unavailable")
		return nil, ErrIndexUnavailable
	}
	if strings.TrimSpace(req.ClauseText) == "" {
		return nil, ErrEmptyText
	}

	k := req.TopK
	if k <= 0 {
		k = DefaultJudgmentTopK
	}
	if k > MaxJudgmentTopK {
		k = MaxJudgmentTopK
	}

	embedding, err := s.embed(ctx, req.ClauseText)
	if err != nil {
		s.metrics.ObserveSearch("embedding_error")
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	judgments, err := s.index.Search(ctx, embedding, k)
	if err != nil {
		s.metrics.ObserveSearch("index_error")
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	for i := range judgments {
		judgments[i].SimilarityScore = models.SimilarityFromDistance(judgments[i].Distance)
	}
	if judgments == nil {
		judgments = []models.Judgment{}
	}

	s.metrics.ObserveSearch("ok")
	return &SearchJudgmentsResult{Judgments: judgments}, nil
}

// embed calls the embedder with exponential backoff.
// Rejected requests and cancelled contexts are not retried.
func (s *JudgmentService) embed(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	b := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.baseBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		out, err := s.embedder.Embed(ctx, text)
		if err != nil {
			if errors.Is(err, ErrEmbeddingRejected) || ctx.Err() != nil {
				return err
			}
			s.logger.WarnContext(ctx, "embedding attempt failed, retrying", slog.Any("error", err))
			return retry.RetryableError(err)
		}
		if len(out) == 0 {
			return errors.New("empty embedding")
		}
		embedding = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return embedding, nil
}
