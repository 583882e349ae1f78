package service

import (
	"context"
	"errors"
	"sync"

	"lexsaksham-backend/models"
)

type fakeClassifier struct {
	mu         sync.Mutex
	label      string
	byText     map[string]string
	confidence float64
	err        error
	seen       []string
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (*models.Classification, error) {
	f.mu.Lock()
	f.seen = append(f.seen, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	label := f.label
	if l, ok := f.byText[text]; ok {
		label = l
	}
	conf := f.confidence
	if conf == 0 {
		conf = 0.9
	}
	return &models.Classification{
		Label:       label,
		Type:        models.ParseClauseType(label),
		Confidence:  conf,
		NeedsReview: conf < models.ReviewThreshold,
	}, nil
}

func (f *fakeClassifier) Probabilities(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.5, 0.5}
	}
	return out, nil
}

func (f *fakeClassifier) lastSeen() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.seen) == 0 {
		return ""
	}
	return f.seen[len(f.seen)-1]
}

type fakeTranslator struct {
	out string
	err error
}

func (f *fakeTranslator) Translate(ctx context.Context, text string) (string, error) {
	return f.out, f.err
}

type fakeSummarizer struct {
	out   string
	err   error
	calls int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	f.calls++
	return f.out, f.err
}

type fakeExplainer struct {
	out []models.TokenWeight
	err error
}

func (f *fakeExplainer) Explain(ctx context.Context, text string, cls *models.Classification) ([]models.TokenWeight, error) {
	return f.out, f.err
}

type fakeRefiner struct {
	reply    string
	err      error
	requests []RefineRequest
}

func (f *fakeRefiner) Refine(ctx context.Context, req RefineRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

type fakeAnalysisLog struct {
	mu      sync.Mutex
	entries []models.AnalysisLogEntry
	err     error
}

func (f *fakeAnalysisLog) Append(ctx context.Context, entry models.AnalysisLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAnalysisLog) Recent(ctx context.Context, limit int) ([]models.AnalysisLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return f.entries[len(f.entries)-limit:], nil
}

type fakeEmbedder struct {
	failures int // transient failures before success
	err      error
	calls    int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.calls <= f.failures {
		return nil, errors.New("503 service unavailable")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	judgments []models.Judgment
	err       error
	gotK      int
}

func (f *fakeIndex) Search(ctx context.Context, embedding []float32, k int) ([]models.Judgment, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.judgments) {
		return f.judgments[:k], nil
	}
	return f.judgments, nil
}
