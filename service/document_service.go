package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"lexsaksham-backend/models"
	"lexsaksham-backend/repository"
	"lexsaksham-backend/storage"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

var (
	ErrFileTooLarge        = errors.New("file exceeds maximum upload size")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrExtractionFailed    = errors.New("failed to extract text from file")
	ErrUploadFailed        = errors.New("failed to store uploaded file")
	ErrDocumentNotFound    = errors.New("document not found")
	// ErrDocumentsDisabled is returned by lookups when no metadata store is configured
	ErrDocumentsDisabled = errors.New("document store not configured")
)

const (
	// MaxUploadSize is the largest contract accepted for upload
	MaxUploadSize = 10 * 1024 * 1024

	// maxExtractedChars caps the text returned to the client
	maxExtractedChars = 5000
)

const (
	mimePDF  = "application/pdf"
	mimeText = "text/plain"
)

// DocumentStore records uploaded contract metadata
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
}

// DocumentService handles contract uploads and text extraction
type DocumentService struct {
	storage storage.Storage
	store   DocumentStore
	logger  *slog.Logger
	now     func() time.Time
}

// DocumentServiceOption is a functional option for DocumentService
type DocumentServiceOption func(*DocumentService)

// DocumentWithStorage sets the file storage backend
func DocumentWithStorage(s storage.Storage) DocumentServiceOption {
	return func(d *DocumentService) {
		d.storage = s
	}
}

// DocumentWithStore sets the metadata store
func DocumentWithStore(store DocumentStore) DocumentServiceOption {
	return func(d *DocumentService) {
		d.store = store
	}
}

// DocumentWithLogger sets the structured logger
func DocumentWithLogger(l *slog.Logger) DocumentServiceOption {
	return func(d *DocumentService) {
		d.logger = l
	}
}

// NewDocumentService creates a new document service.
// Without storage the upload is only extracted, never persisted.
func NewDocumentService(opts ...DocumentServiceOption) *DocumentService {
	d := &DocumentService{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// UploadDocumentRequest represents an uploaded contract
type UploadDocumentRequest struct {
	Filename string
	MimeType string // as declared by the client, may be empty
	Content  io.Reader
}

// UploadDocumentResult holds the extracted text and stored metadata
type UploadDocumentResult struct {
	Document      *models.Document
	ExtractedText string // truncated to 5000 characters
}

// Upload validates, extracts, and stores a contract
func (d *DocumentService) Upload(ctx context.Context, req UploadDocumentRequest) (*UploadDocumentResult, error) {
	data, err := io.ReadAll(io.LimitReader(req.Content, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	mimeType := detectMimeType(req.Filename, req.MimeType, data)
	if mimeType == "" {
		return nil, ErrUnsupportedFileType
	}

	text, err := ExtractText(mimeType, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	doc := &models.Document{
		ID:            uuid.New(),
		Filename:      req.Filename,
		MimeType:      mimeType,
		Size:          int64(len(data)),
		ExtractedSize: utf8.RuneCountInString(text),
		CreatedAt:     d.now().UTC(),
	}

	if d.storage != nil {
		key, err := d.storage.Upload(ctx, doc.ID, req.Filename, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}
		doc.StoragePath = key

		if d.store != nil {
			if err := d.store.Create(ctx, doc); err != nil {
				if delErr := d.storage.Delete(ctx, key); delErr != nil {
					d.logger.WarnContext(ctx, "failed to clean up stored file", slog.String("key", key), slog.Any("error", delErr))
				}
				return nil, fmt.Errorf("failed to record document: %w", err)
			}
		}
	}

	d.logger.InfoContext(ctx, "document uploaded",
		slog.String("document_id", doc.ID.String()),
		slog.String("mime_type", mimeType),
		slog.Int64("size", doc.Size),
		slog.Int("extracted_chars", doc.ExtractedSize),
	)

	return &UploadDocumentResult{
		Document:      doc,
		ExtractedText: truncateRunes(text, maxExtractedChars),
	}, nil
}

// Get returns the metadata of an uploaded document
func (d *DocumentService) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if d.store == nil {
		return nil, ErrDocumentsDisabled
	}
	doc, err := d.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// Open returns the metadata and the original bytes of an uploaded document.
// The caller must close the reader.
func (d *DocumentService) Open(ctx context.Context, id uuid.UUID) (*models.Document, io.ReadCloser, error) {
	doc, err := d.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if d.storage == nil || doc.StoragePath == "" {
		return nil, nil, ErrDocumentNotFound
	}
	rc, err := d.storage.Download(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, fmt.Errorf("failed to open document: %w", err)
	}
	return doc, rc, nil
}

// detectMimeType accepts PDFs and plain text, judged by content first,
// then by declared type or extension. Unsupported files yield "".
func detectMimeType(filename, declared string, data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return mimePDF
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".pdf" || declared == mimePDF {
		// claims to be a PDF but lacks the header; let the parser decide
		return mimePDF
	}
	if ext == ".txt" || strings.HasPrefix(declared, "text/") {
		if utf8.Valid(data) {
			return mimeText
		}
	}
	return ""
}

// ExtractText returns the plain text of a PDF or text file
func ExtractText(mimeType string, data []byte) (text string, err error) {
	// the PDF parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	switch mimeType {
	case mimeText:
		return string(data), nil
	case mimePDF:
		r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", err
		}
		plain, err := r.GetPlainText()
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(plain); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, mimeType)
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
