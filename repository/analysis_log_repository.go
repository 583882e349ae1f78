package repository

import (
	"context"
	"fmt"

	"lexsaksham-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalysisLogRepository stores the prediction audit log in Postgres
type AnalysisLogRepository struct {
	db *pgxpool.Pool
}

// NewAnalysisLogRepository creates a new analysis log repository
func NewAnalysisLogRepository(db *pgxpool.Pool) *AnalysisLogRepository {
	return &AnalysisLogRepository{db: db}
}

// Append inserts one audit entry
func (r *AnalysisLogRepository) Append(ctx context.Context, entry models.AnalysisLogEntry) error {
	query := `
		INSERT INTO analysis_logs (
			logged_at, input_text, input_lang, predicted_label, confidence,
			requires_review, risk_level, explain_method, degradations
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(
		ctx, query,
		entry.Timestamp,
		entry.InputText,
		string(entry.InputLang),
		entry.PredictedLabel,
		entry.Confidence,
		entry.RequiresReview,
		entry.RiskLevel.String(),
		entry.ExplainMethod,
		entry.Degradations,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis log: %w", err)
	}
	return nil
}

// Recent returns the latest limit entries, oldest first
func (r *AnalysisLogRepository) Recent(ctx context.Context, limit int) ([]models.AnalysisLogEntry, error) {
	query := `
		SELECT logged_at, input_text, input_lang, predicted_label, confidence,
		       requires_review, risk_level, explain_method, degradations
		FROM (
			SELECT * FROM analysis_logs
			ORDER BY id DESC
			LIMIT $1
		) latest
		ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis logs: %w", err)
	}
	defer rows.Close()

	entries := make([]models.AnalysisLogEntry, 0, limit)
	for rows.Next() {
		var (
			e         models.AnalysisLogEntry
			lang      string
			riskLevel string
		)
		if err := rows.Scan(
			&e.Timestamp,
			&e.InputText,
			&lang,
			&e.PredictedLabel,
			&e.Confidence,
			&e.RequiresReview,
			&riskLevel,
			&e.ExplainMethod,
			&e.Degradations,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis log: %w", err)
		}
		e.InputLang = models.Language(lang)
		if lvl, err := models.ParseRiskLevel(riskLevel); err == nil {
			e.RiskLevel = lvl
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis logs: %w", err)
	}
	return entries, nil
}
