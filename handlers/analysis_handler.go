package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"lexsaksham-backend/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 1000
)

// AnalysisHandler handles HTTP requests for clause analysis
type AnalysisHandler struct {
	analysis *service.AnalysisService
	logger   *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysis *service.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analysis: analysis,
		logger:   logger,
	}
}

// TextRequest is the body of the analysis and summary endpoints
type TextRequest struct {
	Text string `json:"text"`
}

// AnalyzeDocument handles POST /analyze_document
func (h *AnalysisHandler) AnalyzeDocument(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondLegacyError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	result, err := h.analysis.AnalyzeDocument(c.Request.Context(), req.Text)
	if err != nil {
		status, message := h.analysisError(c, err)
		respondLegacyError(c, status, message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis_results": result.Records,
	})
}

// AnalyzeClause handles POST /analyze
func (h *AnalysisHandler) AnalyzeClause(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	record, err := h.analysis.AnalyzeClause(c.Request.Context(), req.Text)
	if err != nil {
		status, message := h.analysisError(c, err)
		respondError(c, status, errorCode(status), message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// Summarize handles POST /summarize
func (h *AnalysisHandler) Summarize(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondLegacyError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	summary, err := h.analysis.Summarize(c.Request.Context(), req.Text)
	if err != nil {
		status, message := h.analysisError(c, err)
		respondLegacyError(c, status, message)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
	})
}

// RecentLogs handles GET /api/analysis/logs
func (h *AnalysisHandler) RecentLogs(c *gin.Context) {
	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = min(n, maxLogLimit)
	}

	entries, err := h.analysis.RecentLogs(c.Request.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "failed to read analysis log", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, "LOG_READ_FAILED", "Failed to read analysis log")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

// analysisError maps pipeline errors to a status and client message
func (h *AnalysisHandler) analysisError(c *gin.Context, err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyText):
		return http.StatusBadRequest, "Empty text"
	case errors.Is(err, service.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "model not available"
	case errors.Is(err, service.ErrClassificationFailed):
		h.logger.ErrorContext(c.Request.Context(), "classification failed", slog.Any("error", err))
		return http.StatusBadGateway, "classification failed"
	default:
		h.logger.ErrorContext(c.Request.Context(), "analysis failed", slog.Any("error", err))
		return http.StatusInternalServerError, "analysis failed"
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "EMPTY_TEXT"
	case http.StatusServiceUnavailable:
		return "MODEL_UNAVAILABLE"
	case http.StatusBadGateway:
		return "CLASSIFICATION_FAILED"
	default:
		return "ANALYSIS_FAILED"
	}
}
