package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"lexsaksham-backend/service"
	"lexsaksham-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles HTTP requests for uploaded contracts
type DocumentHandler struct {
	documents *service.DocumentService
	logger    *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents *service.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		logger:    logger,
	}
}

// UploadPDF handles POST /upload_pdf
func (h *DocumentHandler) UploadPDF(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondLegacyError(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	if fileHeader.Size > service.MaxUploadSize {
		respondLegacyError(c, http.StatusRequestEntityTooLarge, "File size exceeds maximum of 10MB")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondLegacyError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.documents.Upload(c.Request.Context(), service.UploadDocumentRequest{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  file,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			respondLegacyError(c, http.StatusRequestEntityTooLarge, "File size exceeds maximum of 10MB")
		case errors.Is(err, service.ErrUnsupportedFileType):
			respondLegacyError(c, http.StatusUnsupportedMediaType, "Only PDF and plain text files are supported")
		case errors.Is(err, service.ErrExtractionFailed):
			respondLegacyError(c, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.ErrorContext(c.Request.Context(), "upload failed", slog.Any("error", err))
			respondLegacyError(c, http.StatusInternalServerError, "Failed to store uploaded file")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"extracted_text": result.ExtractedText,
		"document_id":    result.Document.ID,
	})
}

// GetDocument handles GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		h.documentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    doc,
	})
}

// DownloadDocument handles GET /api/documents/:id/download
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	doc, rc, err := h.documents.Open(c.Request.Context(), id)
	if err != nil {
		h.documentError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, doc.Size, storage.ContentType(doc.Filename), rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.Filename),
	})
}

func (h *DocumentHandler) documentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDocumentNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Document not found")
	case errors.Is(err, service.ErrDocumentsDisabled):
		respondError(c, http.StatusServiceUnavailable, "DOCUMENTS_UNAVAILABLE", "Document storage is not configured")
	default:
		h.logger.ErrorContext(c.Request.Context(), "document lookup failed", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to fetch document")
	}
}
