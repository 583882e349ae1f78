package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"lexsaksham-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// JudgmentDimensions is the width of the judgments.embedding column
const JudgmentDimensions = 768

// JudgmentRepository searches the pgvector judgment index
type JudgmentRepository struct {
	db *pgxpool.Pool
}

// NewJudgmentRepository creates a new judgment repository
func NewJudgmentRepository(db *pgxpool.Pool) *JudgmentRepository {
	return &JudgmentRepository{db: db}
}

// formatVector formats an embedding as a pgvector literal
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.Grow(len(embedding) * 10)
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', 6, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// Search returns the k judgments nearest to embedding by L2 distance, closest first
func (r *JudgmentRepository) Search(ctx context.Context, embedding []float32, k int) ([]models.Judgment, error) {
	if len(embedding) != JudgmentDimensions {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", JudgmentDimensions, len(embedding))
	}

	query := `
		SELECT
			judgment_id,
			case_name,
			year,
			text,
			embedding <-> $1::vector AS distance
		FROM judgments
		ORDER BY embedding <-> $1::vector
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, formatVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query judgments: %w", err)
	}
	defer rows.Close()

	judgments := make([]models.Judgment, 0, k)
	for rows.Next() {
		var j models.Judgment
		if err := rows.Scan(&j.JudgmentID, &j.CaseName, &j.Year, &j.TextSnippet, &j.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan judgment: %w", err)
		}
		judgments = append(judgments, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating judgments: %w", err)
	}

	return judgments, nil
}

// Count returns the number of indexed judgments
func (r *JudgmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM judgments`).Scan(&n)
	return n, err
}
