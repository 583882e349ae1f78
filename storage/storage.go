// Package storage keeps the original bytes of uploaded contracts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrFileNotFound is returned when a stored contract does not exist
var ErrFileNotFound = errors.New("file not found")

// Storage stores uploaded contract files
type Storage interface {
	// Upload stores a contract and returns its storage key
	Upload(ctx context.Context, documentID uuid.UUID, filename string, data io.Reader) (string, error)

	// Download opens a stored contract by key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a stored contract; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// Backend selects the storage implementation
type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
)

// Config holds configuration for storage
type Config struct {
	Backend      Backend
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string
	S3Prefix     string // Optional key prefix inside the bucket
	S3Endpoint   string // Optional custom endpoint (MinIO, localstack)
	AWSAccessKey string
	AWSSecretKey string
}

// New creates a storage instance for the configured backend
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		path := cfg.LocalPath
		if path == "" {
			path = "./storage/contracts"
		}
		return NewLocalStorage(path)
	case BackendS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3 bucket is required for s3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// storageKey builds a sharded, collision-free key for a contract
func storageKey(documentID uuid.UUID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = sanitizeName(base)
	if base == "" {
		base = "contract"
	}
	id := documentID.String()
	return fmt.Sprintf("contracts/%s/%s_%s%s", id[:2], id, base, ext)
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

// ContentType determines the MIME type of a contract from its filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
