package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClauseType(t *testing.T) {
	tests := map[string]ClauseType{
		"Force Majeure":                       ClauseForceMajeure,
		"force_majeure":                       ClauseForceMajeure,
		"FORCE-MAJEURE":                       ClauseForceMajeure,
		"Indemnity / Liability":               ClauseIndemnityLiability,
		"Indemnity":                           ClauseIndemnity,
		"indemnity":                           ClauseIndemnityLiability,
		"termination":                         ClauseTerminationOrExpiry,
		"TERMINATION":                         ClauseTerminationOrExpiry,
		"Termination":                         ClauseTermination,
		"Liability":                           ClauseLiability,
		"liability":                           ClauseUnknown,
		"LIABILITY":                           ClauseUnknown,
		"non_compete":                         ClauseNonCompete,
		"Non-Compete / Restrictive Covenants": ClauseNonCompete,
		"Service Levels (SLA)":                ClauseServiceLevels,
		"governing_law":                       ClauseGoverningLaw,
		"LABEL_3":                             ClauseUnknown,
		"":                                    ClauseUnknown,
	}
	for label, want := range tests {
		assert.Equal(t, want, ParseClauseType(label), "label %q", label)
	}
}

func TestClauseTypePolicyTable(t *testing.T) {
	assert.True(t, ClauseIndemnity.HighStakes())
	assert.True(t, ClauseLiability.HighStakes())
	assert.True(t, ClauseTermination.HighStakes())
	assert.False(t, ClauseTerminationOrExpiry.HighStakes())
	assert.False(t, ClausePaymentTerms.HighStakes())

	assert.Equal(t, TemplateLiability, ClauseIndemnityLiability.Template())
	assert.Equal(t, TemplateConfidentiality, ClauseNDAExclusions.Template())
	assert.Equal(t, TemplateNone, ClauseDisputeResolution.Template())
	assert.Equal(t, TemplateNone, ClauseUnknown.Template())

	assert.True(t, ClauseForceMajeure.Common())
	assert.False(t, ClauseNonCompete.Common())
	assert.False(t, ClauseUnknown.Common())
}

func TestRiskLevelOrderingAndJSON(t *testing.T) {
	assert.Less(t, int(RiskLow), int(RiskMedium))
	assert.Less(t, int(RiskMedium), int(RiskHigh))
	assert.Less(t, int(RiskHigh), int(RiskCritical))

	data, err := json.Marshal(struct {
		Level RiskLevel `json:"level"`
	}{RiskHigh})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"High"}`, string(data))

	var lvl RiskLevel
	require.NoError(t, json.Unmarshal([]byte(`"medium"`), &lvl))
	assert.Equal(t, RiskMedium, lvl)
	assert.Error(t, json.Unmarshal([]byte(`"Severe"`), &lvl))
}

func TestSimilarityFromDistance(t *testing.T) {
	assert.Equal(t, 1.0, SimilarityFromDistance(0))
	assert.InDelta(t, 0.5, SimilarityFromDistance(1), 1e-9)
	assert.Equal(t, 1.0, SimilarityFromDistance(-3))
}

func TestGenerateAPIKey(t *testing.T) {
	key, prefix, err := GenerateAPIKey()
	require.NoError(t, err)

	got, ok := ParseAPIKeyPrefix(key)
	require.True(t, ok)
	assert.Equal(t, prefix, got)
	assert.Len(t, key, len("lsk_")+8+1+48)
}

func TestParseAPIKeyPrefix_Rejects(t *testing.T) {
	for _, key := range []string{"", "lsk_", "lsk_abcd_secret", "sk_0123abcd_secret", "lsk_0123abcd_"} {
		_, ok := ParseAPIKeyPrefix(key)
		assert.False(t, ok, key)
	}
}
