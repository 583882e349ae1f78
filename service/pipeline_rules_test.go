package service

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"lexsaksham-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsDevanagari(t *testing.T) {
	assert.True(t, ContainsDevanagari("यह अनुबंध"))
	assert.True(t, ContainsDevanagari("Clause 4: पक्षकार"))
	assert.False(t, ContainsDevanagari("The Tenant shall pay rent."))
	assert.False(t, ContainsDevanagari(""))
	assert.Equal(t, models.LanguageHindi, DetectLanguage("किराया"))
	assert.Equal(t, models.LanguageEnglish, DetectLanguage("rent"))
}

func TestSegmentDocument(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "markers and short lines removed",
			raw:  "[Start of Document]\n  The Tenant shall pay rent monthly in advance.  \nshort\n\nThe Landlord shall maintain the premises.[End of Document]",
			want: []string{"The Tenant shall pay rent monthly in advance.", "The Landlord shall maintain the premises."},
		},
		{
			name: "exactly twenty characters is too short",
			raw:  "12345678901234567890\n123456789012345678901",
			want: []string{"123456789012345678901"},
		},
		{
			name: "nothing qualifies returns raw text",
			raw:  "Short one.\nShort two.",
			want: []string{"Short one.\nShort two."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clauseTexts(SegmentDocument(tt.raw)))
		})
	}
}

func TestSegmentDocument_TagsLanguage(t *testing.T) {
	clauses := SegmentDocument("The Tenant shall pay rent monthly in advance.\nकिरायेदार हर महीने अग्रिम किराया देगा।")
	require.Len(t, clauses, 2)
	assert.Equal(t, models.LanguageEnglish, clauses[0].Language)
	assert.Equal(t, models.LanguageHindi, clauses[1].Language)
}

func TestSegmentDocument_Idempotent(t *testing.T) {
	docs := map[string]string{
		"multi-line": "[Start of Document]\n  The Tenant shall pay rent monthly in advance.  \nshort\n\n" +
			"The Landlord shall maintain the premises.\nEither party may end this lease with notice.[End of Document]",
		"whole-text fallback": "Short one.\nShort two.",
		"single long line":    "The Supplier shall deliver the goods within thirty days.",
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			for _, clause := range SegmentDocument(doc) {
				again := SegmentDocument(clause.Text)
				require.Len(t, again, 1)
				assert.Equal(t, clause, again[0])
			}
		})
	}
}

func clauseTexts(clauses []models.Clause) []string {
	out := make([]string, len(clauses))
	for i, c := range clauses {
		out[i] = c.Text
	}
	return out
}

func TestSummaryChain(t *testing.T) {
	svc := NewAnalysisService(
		AnalysisWithLogger(slog.New(slog.DiscardHandler)),
		AnalysisWithSummarizer(&fakeSummarizer{out: "abstractive"}),
	)

	tests := []struct {
		name  string
		text  string
		hindi bool
		want  string
	}{
		{"hindi wins over keywords", "liability and termination", true, SummaryHindi},
		{"liability", "the supplier's liability is capped", false, SummaryLiability},
		{"indemnification", "indemnification of third-party claims", false, SummaryLiability},
		{"liability before termination", "liability survives termination", false, SummaryLiability},
		{"termination", "termination for convenience", false, SummaryTermination},
		{"termination before force majeure", "termination following force majeure", false, SummaryTermination},
		{"force majeure", "a force majeure event", false, SummaryForceMajeure},
		{"force_majeure token", "see force_majeure schedule", false, SummaryForceMajeure},
		{"breach with damages", "any breach entitles the buyer to damages", false, SummaryBreach},
		{"breach with penalty", "breach attracts a penalty", false, SummaryBreach},
		{"breach alone falls through", "breach of warranty", false, "abstractive"},
		{"no rule", "rent is due monthly", false, "abstractive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := svc.summarize(context.Background(), tt.text, strings.ToLower(tt.text), tt.hindi)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummaryChain_EmptySummarizerOutput(t *testing.T) {
	svc := NewAnalysisService(
		AnalysisWithLogger(slog.New(slog.DiscardHandler)),
		AnalysisWithSummarizer(&fakeSummarizer{out: "   "}),
	)

	got, _, ok := svc.summarize(context.Background(), "rent is due", "rent is due", false)
	assert.False(t, ok)
	assert.Equal(t, SummaryUnavailable, got)
}

func TestSelectTemplate(t *testing.T) {
	tests := []struct {
		name  string
		label models.ClauseType
		raw   string
		text  string
		want  models.TemplateKind
	}{
		{"label force majeure", models.ClauseForceMajeure, "", "", models.TemplateForceMajeure},
		{"label indemnity/liability uses liability", models.ClauseIndemnityLiability, "", "", models.TemplateLiability},
		{"label short indemnity", models.ClauseIndemnity, "", "", models.TemplateIndemnity},
		{"label wins over text", models.ClauseConfidentiality, "", "termination", models.TemplateConfidentiality},
		{"text breach with penalty", models.ClauseUnknown, "", "any breach shall attract a penalty", models.TemplateBreachPenalties},
		{"text liable damages injunctive", models.ClauseUnknown, "", "liable for damages and injunctive relief", models.TemplateBreachPenalties},
		{"text liable damages", models.ClauseUnknown, "", "liable for damages", models.TemplateLiability},
		{"text force majeure before liability", models.ClauseUnknown, "", "force majeure limits liability", models.TemplateForceMajeure},
		{"text termination", models.ClauseUnknown, "", "upon termination", models.TemplateTermination},
		{"text indemnity", models.ClauseUnknown, "", "indemnity obligations", models.TemplateIndemnity},
		{"text non-compete", models.ClauseUnknown, "", "noncompete obligations", models.TemplateNonCompete},
		{"text confidentiality", models.ClauseUnknown, "", "strict confidentiality", models.TemplateConfidentiality},
		{"text nda", models.ClauseUnknown, "", "the nda survives", models.TemplateConfidentiality},
		{"generic", models.ClausePaymentTerms, "", "payment is due in 30 days", models.TemplateGeneral},
		{"unknown label termination", models.ClauseUnknown, "Termination of Services", "sole discretion of the company", models.TemplateTermination},
		{"unknown label breach and penalties", models.ClauseUnknown, "Breach and Penalties", "as the company decides", models.TemplateBreachPenalties},
		{"unknown label before text", models.ClauseUnknown, "Force Majeure Events", "upon termination", models.TemplateForceMajeure},
		{"known label ignores raw label", models.ClausePaymentTerms, "Termination of Services", "payment is due", models.TemplateGeneral},
		{"unmatched label falls back to text", models.ClauseUnknown, "LABEL_4", "strict confidentiality", models.TemplateConfidentiality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectTemplate(tt.label, tt.raw, tt.text))
		})
	}
}

func TestTemplateText_AllKinds(t *testing.T) {
	kinds := []models.TemplateKind{
		models.TemplateForceMajeure,
		models.TemplateBreachPenalties,
		models.TemplateLiability,
		models.TemplateTermination,
		models.TemplateIndemnity,
		models.TemplateNonCompete,
		models.TemplateConfidentiality,
		models.TemplateGeneral,
	}
	seen := map[string]bool{}
	for _, k := range kinds {
		text := TemplateText(k)
		assert.NotEmpty(t, text, k)
		assert.False(t, seen[text], "duplicate template for %s", k)
		seen[text] = true
	}
	assert.Empty(t, TemplateText(models.TemplateNone))
}

func TestNeedsAlternative(t *testing.T) {
	assert.False(t, NeedsAlternative(models.RiskLow))
	assert.False(t, NeedsAlternative(models.RiskMedium))
	assert.True(t, NeedsAlternative(models.RiskHigh))
	assert.True(t, NeedsAlternative(models.RiskCritical))
}

func TestCleanRefinement(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`  'Refined clause:  The parties shall consult first.'  `, "The parties shall consult first."},
		{`"SAFER CLAUSE: Either party may exit on notice."`, "Either party may exit on notice."},
		{"Here's a safer alternative: Disputes go to mediation.", "Disputes go to mediation."},
		{"Alternative: Notice of 30 days applies.", "Notice of 30 days applies."},
		{"No prefix at all.", "No prefix at all."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanRefinement(tt.in))
	}
}

func TestAcceptableRefinement_StrictBounds(t *testing.T) {
	assert.False(t, acceptableRefinement(strings.Repeat("a", 20)))
	assert.True(t, acceptableRefinement(strings.Repeat("a", 21)))
	assert.True(t, acceptableRefinement(strings.Repeat("a", 249)))
	assert.False(t, acceptableRefinement(strings.Repeat("a", 250)))
	assert.True(t, acceptableRefinement(strings.Repeat("क", 30)))
}

func TestBuildRefineRequest(t *testing.T) {
	refine := BuildRefineRequest("clause", "Dispute Resolution", models.RiskHigh, "summary", SafeGeneral)
	assert.Equal(t, 150, refine.MaxTokens)
	assert.Contains(t, refine.SystemPrompt, "REFINE an existing clause template")
	assert.Contains(t, refine.UserPrompt, `Template to refine: "`+SafeGeneral+`"`)
	assert.NotContains(t, refine.UserPrompt, "Analysis:")

	generate := BuildRefineRequest("clause", "Dispute Resolution", models.RiskCritical, "summary text", "short")
	assert.Equal(t, 200, generate.MaxTokens)
	assert.Equal(t, float32(0.5), generate.Temperature)
	assert.Contains(t, generate.SystemPrompt, "Indian Contract Act, 1872")
	assert.Contains(t, generate.UserPrompt, "Analysis: summary text")
	assert.Contains(t, generate.UserPrompt, "Risk Level: Critical")
}
