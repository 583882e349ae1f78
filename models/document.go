package models

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an uploaded contract file
type Document struct {
	ID            uuid.UUID `json:"id"`
	Filename      string    `json:"filename"`
	MimeType      string    `json:"mime_type"`
	Size          int64     `json:"size"`
	StoragePath   string    `json:"storage_path"`
	ExtractedSize int       `json:"extracted_size"`
	CreatedAt     time.Time `json:"created_at"`
}
