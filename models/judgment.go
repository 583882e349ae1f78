package models

// Judgment is a prior court judgment returned by similarity search
type Judgment struct {
	JudgmentID      string  `json:"judgment_id"`
	CaseName        string  `json:"case_name"`
	Year            int     `json:"year"`
	TextSnippet     string  `json:"text_snippet"`
	Distance        float64 `json:"-"`                // L2 distance from the query embedding
	SimilarityScore float64 `json:"similarity_score"` // 1 / (1 + distance)
}

// SimilarityFromDistance converts an L2 distance into a (0, 1] similarity
func SimilarityFromDistance(d float64) float64 {
	if d < 0 {
		d = 0
	}
	return 1 / (1 + d)
}
