package handlers

import (
	"net/http"

	"lexsaksham-backend/service"

	"github.com/gin-gonic/gin"
)

// StatusHandler reports service liveness
type StatusHandler struct {
	analysis  *service.AnalysisService
	judgments *service.JudgmentService
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(analysis *service.AnalysisService, judgments *service.JudgmentService) *StatusHandler {
	return &StatusHandler{
		analysis:  analysis,
		judgments: judgments,
	}
}

// Root handles GET /
func (h *StatusHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "LexSaksham Running",
		"index_active": h.judgments.Available(),
	})
}

// Health handles GET /health
func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"classifier_ready": h.analysis.Ready(),
	})
}
