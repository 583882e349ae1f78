package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"lexsaksham-backend/models"
)

// Pre-approved safer clauses, one per template family
const (
	SafeLiability       = "The Provider's total liability under this Agreement shall not exceed the total fees paid by the Client during the preceding 12 months."
	SafeTermination     = "Either party may terminate this Agreement for convenience upon providing thirty (30) days' prior written notice to the other party."
	SafeIndemnity       = "Indemnification shall be limited to third-party claims arising directly from gross negligence or willful misconduct."
	SafeForceMajeure    = "Neither party shall be liable for any failure or delay in performance under this Agreement due to circumstances beyond its reasonable control, including but not limited to acts of God, natural disasters, war, terrorism, labor disputes, or government actions. The affected party shall notify the other party promptly and use reasonable efforts to resume performance."
	SafeBreachPenalties = "In the event of a material breach, the non-breaching party may terminate this Agreement upon thirty (30) days' written notice, provided the breaching party fails to cure such breach within such notice period. Remedies shall be limited to termination and recovery of actual damages directly caused by the breach."
	SafeNonCompete      = "During the term of this Agreement and for a period of twelve (12) months thereafter, the Employee agrees not to engage in any business activity that directly competes with the Employer's business, provided such restriction is limited to the geographic area where the Employer operates and is necessary to protect the Employer's legitimate business interests."
	SafeConfidentiality = "Each party agrees to maintain the confidentiality of all proprietary and confidential information disclosed by the other party, using the same degree of care as it uses to protect its own confidential information, but in no event less than reasonable care. This obligation shall survive termination of this Agreement for a period of three (3) years."
	SafeGeneral         = "The parties agree to resolve any disputes through mutual consultation before seeking other legal remedies."
)

var templateText = map[models.TemplateKind]string{
	models.TemplateForceMajeure:    SafeForceMajeure,
	models.TemplateBreachPenalties: SafeBreachPenalties,
	models.TemplateLiability:       SafeLiability,
	models.TemplateTermination:     SafeTermination,
	models.TemplateIndemnity:       SafeIndemnity,
	models.TemplateNonCompete:      SafeNonCompete,
	models.TemplateConfidentiality: SafeConfidentiality,
	models.TemplateGeneral:         SafeGeneral,
}

// TemplateText returns the pre-approved clause for a template family
func TemplateText(kind models.TemplateKind) string {
	return templateText[kind]
}

// templateRule matches lower-cased clause text against one template family
type templateRule struct {
	kind  models.TemplateKind
	match func(lower string) bool
}

// templateRules are tried in order when the label does not imply a template
var templateRules = []templateRule{
	{models.TemplateForceMajeure, func(t string) bool {
		return containsAny(t, "force majeure", "force_majeure")
	}},
	{models.TemplateBreachPenalties, func(t string) bool {
		return (strings.Contains(t, "breach") && containsAny(t, "penalty", "penalties")) ||
			(strings.Contains(t, "liable") && strings.Contains(t, "damages") && strings.Contains(t, "injunctive"))
	}},
	{models.TemplateLiability, func(t string) bool {
		return strings.Contains(t, "liability") || (strings.Contains(t, "liable") && strings.Contains(t, "damages"))
	}},
	{models.TemplateTermination, func(t string) bool {
		return strings.Contains(t, "termination")
	}},
	{models.TemplateIndemnity, func(t string) bool {
		return containsAny(t, "indemnity", "indemnification")
	}},
	{models.TemplateNonCompete, func(t string) bool {
		return containsAny(t, "non-compete", "noncompete", "non_compete")
	}},
	{models.TemplateConfidentiality, func(t string) bool {
		return containsAny(t, "confidentiality", "nda", "non-disclosure")
	}},
}

// SelectTemplate picks the safer-clause family for a clause.
// A known type decides from the policy table. A label outside the enum is
// matched by keyword like clause text. Then the clause text is tried, and
// finally the generic template.
func SelectTemplate(clauseType models.ClauseType, label, lower string) models.TemplateKind {
	if kind := clauseType.Template(); kind != models.TemplateNone {
		return kind
	}
	if clauseType == models.ClauseUnknown {
		if kind, ok := matchTemplate(strings.ToLower(label)); ok {
			return kind
		}
	}
	if kind, ok := matchTemplate(lower); ok {
		return kind
	}
	return models.TemplateGeneral
}

func matchTemplate(lower string) (models.TemplateKind, bool) {
	for _, r := range templateRules {
		if r.match(lower) {
			return r.kind, true
		}
	}
	return models.TemplateNone, false
}

// NeedsAlternative reports whether a risk level calls for a safer alternative
func NeedsAlternative(level models.RiskLevel) bool {
	return level == models.RiskHigh || level == models.RiskCritical
}

const (
	refineTemperature      = 0.5
	refineMaxTokens        = 150
	generateMaxTokens      = 200
	refineTemplateMinChars = 50

	// accepted refinements are strictly between these lengths
	minRefinedChars = 20
	maxRefinedChars = 250
)

const refineSystemPrompt = `You are a legal expert specializing in Indian contract law. Your task is to REFINE an existing clause template to make it slightly more context-aware while keeping it CONCISE.

CRITICAL REQUIREMENTS:
1. Keep the suggestion SHORT and CONCISE (1-3 sentences maximum, under 200 words)
2. Maintain the structure and intent of the provided template
3. Only make minor improvements for context-awareness
4. Do NOT expand into multiple paragraphs or detailed definitions
5. Generate ONLY the refined clause text, no explanations`

const generateSystemPrompt = `You are a legal expert specializing in Indian contract law. Generate a SHORT, CONCISE safer alternative clause.

CRITICAL REQUIREMENTS:
1. Keep it SHORT (1-3 sentences maximum, under 200 words)
2. No long definitions or multiple paragraphs
3. Direct, clear, and enforceable
4. Compliant with Indian Contract Act, 1872
5. Generate ONLY the clause text, no explanations`

// BuildRefineRequest prepares the LLM call for a clause.
// Templates longer than 50 characters are refined; otherwise a fresh
// clause is generated from the analysis summary.
func BuildRefineRequest(clause, label string, level models.RiskLevel, summary, template string) RefineRequest {
	if utf8.RuneCountInString(template) > refineTemplateMinChars {
		return RefineRequest{
			SystemPrompt: refineSystemPrompt,
			UserPrompt: fmt.Sprintf(`Original Clause: "%s"
Clause Type: %s
Risk Level: %s

Template to refine: "%s"

Refine this template to be slightly more context-aware while keeping it SHORT and CONCISE (1-3 sentences). Do NOT expand it into a long detailed clause.

Refined clause (SHORT, 1-3 sentences only):`, clause, label, level, template),
			Temperature: refineTemperature,
			MaxTokens:   refineMaxTokens,
		}
	}
	return RefineRequest{
		SystemPrompt: generateSystemPrompt,
		UserPrompt: fmt.Sprintf(`Original Clause: "%s"
Clause Type: %s
Risk Level: %s
Analysis: %s

Generate a SHORT, CONCISE safer alternative (1-3 sentences only, under 200 words):`, clause, label, level, summary),
		Temperature: refineTemperature,
		MaxTokens:   generateMaxTokens,
	}
}

var refinementPrefixes = []string{
	"Safer clause:",
	"Alternative:",
	"Here's a safer alternative:",
	"Safer alternative:",
	"Refined clause:",
}

// CleanRefinement strips surrounding quotes and boilerplate prefixes from an LLM reply
func CleanRefinement(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	s = strings.Trim(s, `'`)
	s = strings.TrimSpace(s)
	for _, prefix := range refinementPrefixes {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = strings.TrimSpace(s[len(prefix):])
		}
	}
	return s
}

// acceptableRefinement applies the length window to a cleaned reply
func acceptableRefinement(s string) bool {
	n := utf8.RuneCountInString(s)
	return n > minRefinedChars && n < maxRefinedChars
}

// alternativeResult is the outcome of safer-alternative selection
type alternativeResult struct {
	text     string
	kind     models.TemplateKind
	source   models.AlternativeSource
	degraded bool
}

// saferAlternative selects a template for High/Critical clauses and, for
// uncommon clause types that only matched the generic template, asks the
// refiner for a context-aware rewrite. A label that selected a dedicated
// template is never refined, whether or not it is in the enum.
func (s *AnalysisService) saferAlternative(
	ctx context.Context,
	text, lower string,
	cls *models.Classification,
	level models.RiskLevel,
	summary string,
) alternativeResult {
	if !NeedsAlternative(level) {
		return alternativeResult{}
	}

	kind := SelectTemplate(cls.Type, cls.Label, lower)
	res := alternativeResult{
		text:   TemplateText(kind),
		kind:   kind,
		source: models.AlternativeTemplate,
	}

	if cls.Type.Common() || kind != models.TemplateGeneral || s.refiner == nil {
		return res
	}

	req := BuildRefineRequest(text, cls.Label, level, summary, res.text)
	reply, err := s.refiner.Refine(ctx, req)
	if err != nil {
		s.logger.WarnContext(ctx, "refinement failed, keeping template",
			slog.String("label", cls.Label),
			slog.Any("error", err),
		)
		s.metrics.ObserveRefinement("error")
		res.degraded = true
		return res
	}

	cleaned := CleanRefinement(reply)
	if !acceptableRefinement(cleaned) {
		s.logger.InfoContext(ctx, "refinement rejected, keeping template",
			slog.String("label", cls.Label),
			slog.Int("chars", utf8.RuneCountInString(cleaned)),
		)
		s.metrics.ObserveRefinement("rejected")
		return res
	}

	s.metrics.ObserveRefinement("accepted")
	res.text = cleaned
	res.source = models.AlternativeRefined
	return res
}
