// Package risk implements the keyword rule engine and the policy that fuses
// its verdict with the classifier label into a final clause risk level.
package risk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lexsaksham-backend/models"

	"gopkg.in/yaml.v3"
)

// Rules maps a risk level to the keywords that trigger it.
// Only High and Medium are consulted. A Rules value is read-only once built.
type Rules struct {
	high   []string
	medium []string
}

// DefaultKeywords is the built-in keyword table used when no rules file exists
var DefaultKeywords = map[string][]string{
	"High": {
		"without limitation",
		"unlimited liability",
		"indemnify",
		"hold harmless",
		"terminate immediately",
		"sole discretion",
		"liquidated damages",
		"irrevocable",
		"waives all",
		"non-refundable",
	},
	"Medium": {
		"terminate",
		"penalty",
		"exclusive",
		"non-compete",
		"automatically renew",
		"late fee",
		"confidential",
		"arbitration",
	},
}

// NewRules builds a rule set from level-name keyed keyword lists.
// Keywords are trimmed and lower-cased; unknown levels are rejected.
func NewRules(keywords map[string][]string) (*Rules, error) {
	r := &Rules{}
	for name, words := range keywords {
		lvl, err := models.ParseRiskLevel(name)
		if err != nil {
			return nil, fmt.Errorf("invalid risk rules: %w", err)
		}
		cleaned := normalizeKeywords(words)
		switch lvl {
		case models.RiskHigh:
			r.high = append(r.high, cleaned...)
		case models.RiskMedium:
			r.medium = append(r.medium, cleaned...)
		}
	}
	return r, nil
}

// DefaultRules returns the built-in rule set
func DefaultRules() *Rules {
	r, _ := NewRules(DefaultKeywords)
	return r
}

func normalizeKeywords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// LoadRules reads a keyword file in JSON or YAML (by extension).
// An empty path or a missing file yields the defaults; malformed content is an error.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRules(), nil
		}
		return nil, fmt.Errorf("failed to read risk rules: %w", err)
	}

	var keywords map[string][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &keywords)
	default:
		err = json.Unmarshal(data, &keywords)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse risk rules: %w", err)
	}

	return NewRules(keywords)
}

// Match is the outcome of scanning text against the rules
type Match struct {
	Level   models.RiskLevel
	Keyword string // empty when nothing fired
}

// Match scans lowerText for High keywords, then Medium keywords.
// The first substring hit wins; no hit yields Low.
func (r *Rules) Match(lowerText string) Match {
	for _, kw := range r.high {
		if strings.Contains(lowerText, kw) {
			return Match{Level: models.RiskHigh, Keyword: kw}
		}
	}
	for _, kw := range r.medium {
		if strings.Contains(lowerText, kw) {
			return Match{Level: models.RiskMedium, Keyword: kw}
		}
	}
	return Match{Level: models.RiskLow}
}

// Keywords returns a copy of the keywords configured for a level
func (r *Rules) Keywords(level models.RiskLevel) []string {
	switch level {
	case models.RiskHigh:
		return append([]string(nil), r.high...)
	case models.RiskMedium:
		return append([]string(nil), r.medium...)
	default:
		return nil
	}
}
