package service

import (
	"strings"

	"lexsaksham-backend/models"
)

const (
	documentStartMarker = "[Start of Document]"
	documentEndMarker   = "[End of Document]"

	// minClauseLength is the exclusive lower bound on a segment's length
	minClauseLength = 20
)

// SegmentDocument splits a document into clauses tagged with their language.
// Document markers are removed, the text is split on newlines and every
// trimmed line longer than 20 characters becomes a clause. When no line
// qualifies the raw document is returned as the only clause.
func SegmentDocument(raw string) []models.Clause {
	cleaned := strings.ReplaceAll(raw, documentStartMarker, "")
	cleaned = strings.ReplaceAll(cleaned, documentEndMarker, "")

	var clauses []models.Clause
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) > minClauseLength {
			clauses = append(clauses, NewClause(line))
		}
	}
	if len(clauses) == 0 {
		return []models.Clause{NewClause(raw)}
	}
	return clauses
}

// NewClause wraps text as a clause with its detected language
func NewClause(text string) models.Clause {
	return models.Clause{Text: text, Language: DetectLanguage(text)}
}
