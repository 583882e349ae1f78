package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"lexsaksham-backend/service"

	"github.com/gin-gonic/gin"
)

// JudgmentHandler handles HTTP requests for judgment search
type JudgmentHandler struct {
	judgments *service.JudgmentService
	logger    *slog.Logger
}

// NewJudgmentHandler creates a new judgment handler
func NewJudgmentHandler(judgments *service.JudgmentService, logger *slog.Logger) *JudgmentHandler {
	return &JudgmentHandler{
		judgments: judgments,
		logger:    logger,
	}
}

// SearchJudgmentRequest is the body of POST /search_judgment
type SearchJudgmentRequest struct {
	ClauseText string `json:"clause_text"`
	TopK       int    `json:"top_k" binding:"omitempty,min=1"`
}

// Search handles POST /search_judgment
func (h *JudgmentHandler) Search(c *gin.Context) {
	var req SearchJudgmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondLegacyError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.judgments.Search(c.Request.Context(), service.SearchJudgmentsRequest{
		ClauseText: req.ClauseText,
		TopK:       req.TopK,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIndexUnavailable):
			respondLegacyError(c, http.StatusServiceUnavailable, "index not available")
		case errors.Is(err, service.ErrEmptyText):
			respondLegacyError(c, http.StatusBadRequest, "Empty clause_text")
		case errors.Is(err, service.ErrEmbeddingFailed):
			h.logger.ErrorContext(c.Request.Context(), "judgment embedding failed", slog.Any("error", err))
			respondLegacyError(c, http.StatusBadGateway, "Embedding model failed")
		default:
			h.logger.ErrorContext(c.Request.Context(), "judgment search failed", slog.Any("error", err))
			respondLegacyError(c, http.StatusInternalServerError, "Judgment search failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": result.Judgments,
	})
}
