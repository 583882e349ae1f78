package repository

import (
	"context"
	"errors"

	"lexsaksham-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyRepository handles database operations for issued API keys
type APIKeyRepository struct {
	db *pgxpool.Pool
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create inserts an API key record
func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	query := `
		INSERT INTO api_keys (id, name, prefix, key_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, key.ID, key.Name, key.Prefix, key.Hash, key.CreatedAt)
	return err
}

// Revoke marks every active key with the given prefix as revoked
func (r *APIKeyRepository) Revoke(ctx context.Context, prefix string) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE api_keys SET revoked_at = NOW() WHERE prefix = $1 AND revoked_at IS NULL`, prefix)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Verify reports whether key matches an active stored key
func (r *APIKeyRepository) Verify(ctx context.Context, key string) (bool, error) {
	prefix, ok := models.ParseAPIKeyPrefix(key)
	if !ok {
		return false, nil
	}

	var hash string
	err := r.db.QueryRow(ctx,
		`SELECT key_hash FROM api_keys WHERE prefix = $1 AND revoked_at IS NULL`,
		prefix,
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil, nil
}
