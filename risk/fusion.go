package risk

import "lexsaksham-backend/models"

// Fuse combines the rule verdict with the classifier's clause type.
// Keyword evidence always dominates; the label only escalates clauses
// that no keyword flagged, and only for the high-stakes types.
func Fuse(rule models.RiskLevel, clauseType models.ClauseType) models.RiskLevel {
	switch {
	case rule == models.RiskHigh:
		return models.RiskHigh
	case rule == models.RiskMedium:
		return models.RiskMedium
	case clauseType.HighStakes():
		return models.RiskHigh
	default:
		return models.RiskLow
	}
}
