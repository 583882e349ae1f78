package service

import (
	"context"
	"log/slog"
	"strings"
)

// Fixed summaries used instead of the abstractive summarizer
const (
	SummaryHindi          = "This Hindi clause (translated) outlines responsibilities. Please review the English translation carefully."
	SummaryLiability      = "This clause outlines who is financially responsible if something goes wrong (liability) and who must pay legal costs (indemnity)."
	SummaryTermination    = "This clause defines when and how the agreement can be ended."
	SummaryForceMajeure   = "This clause addresses circumstances beyond either party's control that may prevent performance of the agreement."
	SummaryBreach         = "This clause defines penalties and remedies for breach of contract."
	SummaryUnavailable    = "Summary unavailable."
	summaryRuleSummarizer = "summarizer"
)

// summaryInput is what the summary rules inspect
type summaryInput struct {
	hindi bool
	lower string
}

// summaryRule is one guard of the summary decision chain
type summaryRule struct {
	name  string
	match func(in summaryInput) bool
	text  string
}

// summaryRules are evaluated in order; the first match wins
var summaryRules = []summaryRule{
	{
		name:  "hindi",
		match: func(in summaryInput) bool { return in.hindi },
		text:  SummaryHindi,
	},
	{
		name:  "liability",
		match: func(in summaryInput) bool { return containsAny(in.lower, "liability", "indemnification") },
		text:  SummaryLiability,
	},
	{
		name:  "termination",
		match: func(in summaryInput) bool { return strings.Contains(in.lower, "termination") },
		text:  SummaryTermination,
	},
	{
		name:  "force_majeure",
		match: func(in summaryInput) bool { return containsAny(in.lower, "force majeure", "force_majeure") },
		text:  SummaryForceMajeure,
	},
	{
		name: "breach",
		match: func(in summaryInput) bool {
			return strings.Contains(in.lower, "breach") && containsAny(in.lower, "penalty", "penalties", "damages")
		},
		text: SummaryBreach,
	},
}

// summarize runs the summary decision chain over the (translated) clause.
// It returns the rule that fired and false when the summarizer had to be
// replaced by the fallback text.
func (s *AnalysisService) summarize(ctx context.Context, text, lower string, hindi bool) (summary, rule string, ok bool) {
	in := summaryInput{hindi: hindi, lower: lower}
	for _, r := range summaryRules {
		if r.match(in) {
			return r.text, r.name, true
		}
	}

	if s.summarizer == nil {
		return SummaryUnavailable, summaryRuleSummarizer, false
	}
	out, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		s.logger.WarnContext(ctx, "summarizer failed", slog.Any("error", err))
		return SummaryUnavailable, summaryRuleSummarizer, false
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return SummaryUnavailable, summaryRuleSummarizer, false
	}
	return out, summaryRuleSummarizer, true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
