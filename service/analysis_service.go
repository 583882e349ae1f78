package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"lexsaksham-backend/models"
	"lexsaksham-backend/observability"
	"lexsaksham-backend/risk"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyText            = errors.New("empty text")
	ErrModelUnavailable     = errors.New("classifier not available")
	ErrClassificationFailed = errors.New("failed to classify clause")
)

// explainMethod is written to the analysis log for every record
const explainMethod = "lime"

// AnalysisService runs the clause analysis pipeline
type AnalysisService struct {
	classifier  Classifier
	translator  Translator
	summarizer  Summarizer
	explainer   Explainer
	refiner     Refiner
	rules       *risk.Rules
	analysisLog AnalysisLog
	metrics     *observability.Metrics
	concurrency int
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithClassifier sets the clause classifier
func AnalysisWithClassifier(c Classifier) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.classifier = c
	}
}

// AnalysisWithTranslator sets the Hindi to English translator
func AnalysisWithTranslator(t Translator) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.translator = t
	}
}

// AnalysisWithSummarizer sets the abstractive summarizer
func AnalysisWithSummarizer(sum Summarizer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.summarizer = sum
	}
}

// AnalysisWithExplainer sets the token attribution explainer
func AnalysisWithExplainer(e Explainer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.explainer = e
	}
}

// AnalysisWithRefiner sets the LLM refiner for safer alternatives
func AnalysisWithRefiner(r Refiner) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.refiner = r
	}
}

// AnalysisWithRules sets the keyword risk rules
func AnalysisWithRules(r *risk.Rules) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.rules = r
	}
}

// AnalysisWithLog sets the audit log sink
func AnalysisWithLog(l AnalysisLog) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.analysisLog = l
	}
}

// AnalysisWithMetrics sets the Prometheus metrics
func AnalysisWithMetrics(m *observability.Metrics) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.metrics = m
	}
}

// AnalysisWithConcurrency sets how many clauses of a document run in parallel
func AnalysisWithConcurrency(n int) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.concurrency = n
	}
}

// AnalysisWithLogger sets the structured logger
func AnalysisWithLogger(l *slog.Logger) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.logger = l
	}
}

// AnalysisWithClock overrides the clock used for log timestamps
func AnalysisWithClock(now func() time.Time) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.now = now
	}
}

// NewAnalysisService creates a new analysis service.
// Rules default to the built-in keyword set and documents are analysed sequentially.
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rules == nil {
		s.rules = risk.DefaultRules()
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.tracer = otel.Tracer("lexsaksham-backend/service")
	return s
}

// Ready reports whether a classifier is configured
func (s *AnalysisService) Ready() bool {
	return s.classifier != nil
}

// AnalyzeDocumentResult holds one record per clause, in document order
type AnalyzeDocumentResult struct {
	Records []*models.AnalysisRecord
}

// AnalyzeDocument segments a document and analyses each clause
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, raw string) (*AnalyzeDocumentResult, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyText
	}
	if s.classifier == nil {
		return nil, ErrModelUnavailable
	}

	ctx, span := s.tracer.Start(ctx, "AnalysisService.AnalyzeDocument")
	defer span.End()

	clauses := SegmentDocument(raw)
	span.SetAttributes(attribute.Int("document.clauses", len(clauses)))

	records := make([]*models.AnalysisRecord, len(clauses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, clause := range clauses {
		g.Go(func() error {
			rec, err := s.analyzeClause(gctx, clause)
			if err != nil {
				return fmt.Errorf("clause %d: %w", i, err)
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &AnalyzeDocumentResult{Records: records}, nil
}

// AnalyzeClause runs the full pipeline on a single clause
func (s *AnalysisService) AnalyzeClause(ctx context.Context, text string) (*models.AnalysisRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if s.classifier == nil {
		return nil, ErrModelUnavailable
	}
	return s.analyzeClause(ctx, NewClause(text))
}

func (s *AnalysisService) analyzeClause(ctx context.Context, clause models.Clause) (*models.AnalysisRecord, error) {
	ctx, span := s.tracer.Start(ctx, "AnalysisService.analyzeClause")
	defer span.End()

	rec := &models.AnalysisRecord{
		Text:     clause.Text,
		Language: clause.Language,
	}
	hindi := rec.Language == models.LanguageHindi

	// 1. Translate Hindi clauses; later stages see the English text
	text := clause.Text
	if hindi {
		started := time.Now()
		translated, ok := s.translate(ctx, clause.Text)
		s.metrics.ObserveStage("translate", started)
		if !ok {
			s.degrade(rec, models.DegradedTranslation)
		}
		text = translated
	}
	lower := strings.ToLower(text)

	// 2. Classify
	started := time.Now()
	cls, err := s.classifier.Classify(ctx, text)
	s.metrics.ObserveStage("classify", started)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		return nil, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}

	// 3. Keyword rules, then fusion with the label
	match := s.rules.Match(lower)
	level := risk.Fuse(match.Level, cls.Type)

	// 4. Summary
	started = time.Now()
	summary, summaryRule, ok := s.summarize(ctx, text, lower, hindi)
	s.metrics.ObserveStage("summarize", started)
	if !ok {
		s.degrade(rec, models.DegradedSummary)
	}

	// 5. Safer alternative
	started = time.Now()
	alt := s.saferAlternative(ctx, text, lower, cls, level, summary)
	s.metrics.ObserveStage("alternative", started)
	if alt.degraded {
		s.degrade(rec, models.DegradedRefinement)
	}

	// 6. Explanation
	started = time.Now()
	explanation, ok := s.explain(ctx, text, cls)
	s.metrics.ObserveStage("explain", started)
	if !ok {
		s.degrade(rec, models.DegradedExplanation)
	}

	rec.Label = cls.Label
	rec.RiskLevel = level
	rec.Confidence = math.Round(cls.Confidence*100*100) / 100
	rec.NeedsReview = cls.NeedsReview
	rec.RuleSummary = summary
	rec.SaferAlternative = alt.text
	rec.AlternativeSource = alt.source
	rec.Explanation = explanation

	span.SetAttributes(
		attribute.String("clause.label", cls.Label),
		attribute.String("clause.risk_level", level.String()),
		attribute.String("clause.language", string(rec.Language)),
	)
	s.metrics.ObserveClause(level.String())
	s.logger.DebugContext(ctx, "clause analysed",
		slog.String("label", cls.Label),
		slog.Float64("confidence", cls.Confidence),
		slog.String("risk_level", level.String()),
		slog.String("rule_keyword", match.Keyword),
		slog.String("summary_rule", summaryRule),
		slog.String("template", string(alt.kind)),
	)

	s.appendLog(ctx, rec, cls)
	return rec, nil
}

// Summarize returns only the summary of a clause.
// Hindi clauses are translated first, as in the full pipeline.
func (s *AnalysisService) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	hindi := ContainsDevanagari(text)
	working := text
	if hindi {
		working, _ = s.translate(ctx, text)
	}
	summary, _, _ := s.summarize(ctx, working, strings.ToLower(working), hindi)
	return summary, nil
}

// explain returns the top word attributions, or an empty list when the
// explainer fails. A missing explainer is not a degradation.
func (s *AnalysisService) explain(ctx context.Context, text string, cls *models.Classification) ([]models.TokenWeight, bool) {
	if s.explainer == nil {
		return []models.TokenWeight{}, true
	}
	weights, err := s.explainer.Explain(ctx, text, cls)
	if err != nil {
		s.logger.WarnContext(ctx, "explanation failed", slog.Any("error", err))
		return []models.TokenWeight{}, false
	}
	if weights == nil {
		weights = []models.TokenWeight{}
	}
	return weights, true
}

func (s *AnalysisService) degrade(rec *models.AnalysisRecord, d models.Degradation) {
	rec.Degradations = append(rec.Degradations, d)
	s.metrics.ObserveDegradation(string(d))
}

// appendLog writes the audit entry; sink failures are only logged
func (s *AnalysisService) appendLog(ctx context.Context, rec *models.AnalysisRecord, cls *models.Classification) {
	if s.analysisLog == nil {
		return
	}
	entry := models.NewAnalysisLogEntry(rec, cls, explainMethod, s.now())
	if err := s.analysisLog.Append(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to append analysis log", slog.Any("error", err))
	}
}

// RecentLogs returns the latest audit entries, newest last
func (s *AnalysisService) RecentLogs(ctx context.Context, limit int) ([]models.AnalysisLogEntry, error) {
	if s.analysisLog == nil {
		return []models.AnalysisLogEntry{}, nil
	}
	return s.analysisLog.Recent(ctx, limit)
}
