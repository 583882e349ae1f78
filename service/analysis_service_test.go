package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"lexsaksham-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	base := []AnalysisServiceOption{
		AnalysisWithLogger(slog.New(slog.DiscardHandler)),
		AnalysisWithSummarizer(&fakeSummarizer{out: "The tenant pays rent monthly."}),
	}
	return NewAnalysisService(append(base, opts...)...)
}

func TestAnalyzeClause_HighKeywordOverridesLabel(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms"}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "The Supplier shall indemnify the Client against all losses.")
	require.NoError(t, err)

	assert.Equal(t, models.RiskHigh, rec.RiskLevel)
	assert.Equal(t, "Payment Terms", rec.Label)
	assert.Equal(t, SafeGeneral, rec.SaferAlternative)
	assert.Equal(t, models.AlternativeTemplate, rec.AlternativeSource)
}

func TestAnalyzeClause_MediumKeywordBeatsHighStakesLabel(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Liability"}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "A late fee of 2% applies to overdue invoices each month.")
	require.NoError(t, err)

	assert.Equal(t, models.RiskMedium, rec.RiskLevel)
	assert.Empty(t, rec.SaferAlternative)
	assert.Equal(t, models.AlternativeNone, rec.AlternativeSource)
}

func TestAnalyzeClause_LabelSafetyNet(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Termination"}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "Either party may end this arrangement by written notice.")
	require.NoError(t, err)

	assert.Equal(t, models.RiskHigh, rec.RiskLevel)
	assert.Equal(t, SafeTermination, rec.SaferAlternative)
}

func TestAnalyzeClause_LowRiskHasNoAlternative(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Rent and Lease Terms"}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "The Tenant shall pay rent on the first day of each month.")
	require.NoError(t, err)

	assert.Equal(t, models.RiskLow, rec.RiskLevel)
	assert.Empty(t, rec.SaferAlternative)
	assert.Equal(t, "The tenant pays rent monthly.", rec.RuleSummary)
	assert.Empty(t, rec.Degradations)
}

func TestAnalyzeClause_ConfidenceIsPercentage(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms", confidence: 0.87654}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "Invoices are payable within thirty days of receipt.")
	require.NoError(t, err)

	assert.InDelta(t, 87.65, rec.Confidence, 1e-9)
	assert.False(t, rec.NeedsReview)
}

func TestAnalyzeClause_LowConfidenceNeedsReview(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms", confidence: 0.41}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "Invoices are payable within thirty days of receipt.")
	require.NoError(t, err)

	assert.True(t, rec.NeedsReview)
}

func TestAnalyzeClause_HindiIsTranslated(t *testing.T) {
	const hindi = "किरायेदार हर महीने की पहली तारीख को किराया देगा।"
	const english = "The tenant shall pay the rent on the first of every month."
	cls := &fakeClassifier{label: "Rent and Lease Terms"}
	svc := newTestAnalysisService(
		AnalysisWithClassifier(cls),
		AnalysisWithTranslator(&fakeTranslator{out: english}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), hindi)
	require.NoError(t, err)

	assert.Equal(t, hindi, rec.Text)
	assert.Equal(t, models.LanguageHindi, rec.Language)
	assert.Equal(t, english, cls.lastSeen())
	assert.Equal(t, SummaryHindi, rec.RuleSummary)
	assert.Empty(t, rec.Degradations)
}

func TestAnalyzeClause_TranslationFailureDegrades(t *testing.T) {
	const hindi = "किरायेदार हर महीने की पहली तारीख को किराया देगा।"
	cls := &fakeClassifier{label: "Rent and Lease Terms"}
	svc := newTestAnalysisService(
		AnalysisWithClassifier(cls),
		AnalysisWithTranslator(&fakeTranslator{err: errors.New("quota exceeded")}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), hindi)
	require.NoError(t, err)

	assert.Equal(t, hindi, cls.lastSeen())
	assert.Equal(t, SummaryHindi, rec.RuleSummary)
	assert.Contains(t, rec.Degradations, models.DegradedTranslation)
}

func TestAnalyzeClause_EmptyTranslationDegrades(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms"}),
		AnalysisWithTranslator(&fakeTranslator{out: "  "}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "भुगतान तीस दिनों के भीतर किया जाएगा।")
	require.NoError(t, err)

	assert.Contains(t, rec.Degradations, models.DegradedTranslation)
}

func TestAnalyzeClause_SummarizerFailure(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms"}),
		AnalysisWithSummarizer(&fakeSummarizer{err: errors.New("model server down")}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "Invoices are payable within thirty days of receipt.")
	require.NoError(t, err)

	assert.Equal(t, SummaryUnavailable, rec.RuleSummary)
	assert.Equal(t, []models.Degradation{models.DegradedSummary}, rec.Degradations)
}

func TestAnalyzeClause_RefinementAccepted(t *testing.T) {
	refiner := &fakeRefiner{
		reply: `"Safer alternative: Disputes shall first be referred to good-faith negotiation between senior representatives."`,
	}
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Dispute Resolution"}),
		AnalysisWithRefiner(refiner),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "The Company may resolve any dispute at its sole discretion.")
	require.NoError(t, err)

	assert.Equal(t, models.RiskHigh, rec.RiskLevel)
	assert.Equal(t, "Disputes shall first be referred to good-faith negotiation between senior representatives.", rec.SaferAlternative)
	assert.Equal(t, models.AlternativeRefined, rec.AlternativeSource)

	require.Len(t, refiner.requests, 1)
	req := refiner.requests[0]
	assert.Equal(t, float32(0.5), req.Temperature)
	assert.Equal(t, 150, req.MaxTokens)
	assert.Contains(t, req.UserPrompt, "Template to refine")
	assert.Contains(t, req.UserPrompt, SafeGeneral)
	assert.Contains(t, req.UserPrompt, "Risk Level: High")
}

func TestAnalyzeClause_RefinementTooLongKeepsTemplate(t *testing.T) {
	refiner := &fakeRefiner{reply: strings.Repeat("The parties shall negotiate. ", 12)}
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Dispute Resolution"}),
		AnalysisWithRefiner(refiner),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "The Company may resolve any dispute at its sole discretion.")
	require.NoError(t, err)

	assert.Equal(t, SafeGeneral, rec.SaferAlternative)
	assert.Equal(t, models.AlternativeTemplate, rec.AlternativeSource)
	assert.Empty(t, rec.Degradations)
}

func TestAnalyzeClause_RefinementErrorDegrades(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Dispute Resolution"}),
		AnalysisWithRefiner(&fakeRefiner{err: errors.New("status 502")}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "The Company may resolve any dispute at its sole discretion.")
	require.NoError(t, err)

	assert.Equal(t, SafeGeneral, rec.SaferAlternative)
	assert.Contains(t, rec.Degradations, models.DegradedRefinement)
}

func TestAnalyzeClause_CommonTypeSkipsRefinement(t *testing.T) {
	refiner := &fakeRefiner{reply: "Something else entirely that is long enough."}
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Force Majeure"}),
		AnalysisWithRefiner(refiner),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "Performance is excused at the Supplier's sole discretion for any reason.")
	require.NoError(t, err)

	assert.Equal(t, SafeForceMajeure, rec.SaferAlternative)
	assert.Empty(t, refiner.requests)
}

func TestAnalyzeClause_SpecificTemplateSkipsRefinement(t *testing.T) {
	refiner := &fakeRefiner{reply: "Something else entirely that is long enough."}
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Governing Law and Jurisdiction"}),
		AnalysisWithRefiner(refiner),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "The Vendor waives all claims, including claims for termination fees.")
	require.NoError(t, err)

	assert.Equal(t, SafeTermination, rec.SaferAlternative)
	assert.Empty(t, refiner.requests)
}

func TestAnalyzeClause_OutOfEnumLabelUsesLabelTemplate(t *testing.T) {
	refiner := &fakeRefiner{reply: "Something else entirely that is long enough."}
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Termination of Services"}),
		AnalysisWithRefiner(refiner),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "The Company may change the fees at its sole discretion.")
	require.NoError(t, err)

	assert.Equal(t, models.RiskHigh, rec.RiskLevel)
	assert.Equal(t, SafeTermination, rec.SaferAlternative)
	assert.Equal(t, models.AlternativeTemplate, rec.AlternativeSource)
	assert.Empty(t, refiner.requests)
}

func TestAnalyzeClause_DatasetKeyDoesNotEscalate(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "termination"}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "Either party may end this arrangement by written notice.")
	require.NoError(t, err)

	assert.Equal(t, models.RiskLow, rec.RiskLevel)
	assert.Empty(t, rec.SaferAlternative)
}

func TestAnalyzeClause_ExplainerFailure(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms"}),
		AnalysisWithExplainer(&fakeExplainer{err: errors.New("boom")}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "Invoices are payable within thirty days of receipt.")
	require.NoError(t, err)

	assert.NotNil(t, rec.Explanation)
	assert.Empty(t, rec.Explanation)
	assert.Contains(t, rec.Degradations, models.DegradedExplanation)
}

func TestAnalyzeClause_ExplanationPassedThrough(t *testing.T) {
	weights := []models.TokenWeight{{Word: "payable", Weight: 0.214}, {Word: "Invoices", Weight: -0.031}}
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms"}),
		AnalysisWithExplainer(&fakeExplainer{out: weights}),
	)

	rec, err := svc.AnalyzeClause(context.Background(), "Invoices are payable within thirty days of receipt.")
	require.NoError(t, err)

	assert.Equal(t, weights, rec.Explanation)
}

func TestAnalyzeClause_Errors(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		svc := newTestAnalysisService(AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms"}))
		_, err := svc.AnalyzeClause(context.Background(), "   \n")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("no classifier", func(t *testing.T) {
		svc := newTestAnalysisService()
		_, err := svc.AnalyzeClause(context.Background(), "Invoices are payable within thirty days.")
		assert.ErrorIs(t, err, ErrModelUnavailable)
	})

	t.Run("classifier error", func(t *testing.T) {
		svc := newTestAnalysisService(AnalysisWithClassifier(&fakeClassifier{err: errors.New("connection refused")}))
		_, err := svc.AnalyzeClause(context.Background(), "Invoices are payable within thirty days.")
		assert.ErrorIs(t, err, ErrClassificationFailed)
	})
}

func TestAnalyzeClause_AppendsLog(t *testing.T) {
	sink := &fakeAnalysisLog{}
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Termination", confidence: 0.55}),
		AnalysisWithLog(sink),
		AnalysisWithClock(func() time.Time { return now }),
	)

	_, err := svc.AnalyzeClause(context.Background(), "Either party may end this arrangement by written notice.")
	require.NoError(t, err)

	require.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	assert.Equal(t, now, entry.Timestamp)
	assert.Equal(t, "Termination", entry.PredictedLabel)
	assert.InDelta(t, 0.55, entry.Confidence, 1e-9)
	assert.True(t, entry.RequiresReview)
	assert.Equal(t, models.RiskHigh, entry.RiskLevel)
	assert.Equal(t, "lime", entry.ExplainMethod)

	recent, err := svc.RecentLogs(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestAnalyzeClause_LogFailureIsIgnored(t *testing.T) {
	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms"}),
		AnalysisWithLog(&fakeAnalysisLog{err: errors.New("disk full")}),
	)

	_, err := svc.AnalyzeClause(context.Background(), "Invoices are payable within thirty days of receipt.")
	assert.NoError(t, err)
}

func TestAnalyzeDocument_PreservesOrder(t *testing.T) {
	lines := make([]string, 12)
	byText := make(map[string]string, len(lines))
	for i := range lines {
		lines[i] = fmt.Sprintf("Clause number %02d of the services agreement applies.", i)
		byText[lines[i]] = fmt.Sprintf("label-%02d", i)
	}
	doc := "[Start of Document]\n" + strings.Join(lines, "\n") + "\nshort line\n[End of Document]"

	svc := newTestAnalysisService(
		AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms", byText: byText}),
		AnalysisWithConcurrency(4),
	)

	res, err := svc.AnalyzeDocument(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, res.Records, len(lines))
	for i, rec := range res.Records {
		assert.Equal(t, lines[i], rec.Text)
		assert.Equal(t, fmt.Sprintf("label-%02d", i), rec.Label)
	}
}

func TestAnalyzeDocument_FallsBackToWholeText(t *testing.T) {
	svc := newTestAnalysisService(AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms"}))

	res, err := svc.AnalyzeDocument(context.Background(), "Pay on time.\nOr else.")
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Pay on time.\nOr else.", res.Records[0].Text)
}

func TestAnalyzeDocument_Errors(t *testing.T) {
	svc := newTestAnalysisService(AnalysisWithClassifier(&fakeClassifier{label: "Payment Terms"}))
	_, err := svc.AnalyzeDocument(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)

	failing := newTestAnalysisService(AnalysisWithClassifier(&fakeClassifier{err: errors.New("timeout")}))
	_, err = failing.AnalyzeDocument(context.Background(), "The Tenant shall pay rent on the first day of each month.")
	assert.ErrorIs(t, err, ErrClassificationFailed)
}

func TestSummarize(t *testing.T) {
	sum := &fakeSummarizer{out: "Rent is due monthly."}
	svc := newTestAnalysisService(AnalysisWithSummarizer(sum))

	got, err := svc.Summarize(context.Background(), "This Agreement may be ended by termination notice.")
	require.NoError(t, err)
	assert.Equal(t, SummaryTermination, got)
	assert.Zero(t, sum.calls)

	got, err = svc.Summarize(context.Background(), "The Tenant shall pay rent on the first day of each month.")
	require.NoError(t, err)
	assert.Equal(t, "Rent is due monthly.", got)

	_, err = svc.Summarize(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}
