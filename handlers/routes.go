package handlers

import (
	"github.com/gin-gonic/gin"
)

// Set groups the handlers served by the API
type Set struct {
	Status    *StatusHandler
	Analysis  *AnalysisHandler
	Judgments *JudgmentHandler
	Documents *DocumentHandler
}

// Register mounts every route on r. protect runs before the analysis,
// search and document routes; the status routes stay open.
func Register(r gin.IRouter, h Set, protect ...gin.HandlerFunc) {
	r.GET("/", h.Status.Root)
	r.GET("/health", h.Status.Health)

	guarded := r.Group("/", protect...)
	{
		guarded.POST("/analyze_document", h.Analysis.AnalyzeDocument)
		guarded.POST("/analyze", h.Analysis.AnalyzeClause)
		guarded.POST("/summarize", h.Analysis.Summarize)
		guarded.POST("/search_judgment", h.Judgments.Search)
		guarded.POST("/upload_pdf", h.Documents.UploadPDF)
	}

	api := r.Group("/api", protect...)
	{
		api.GET("/analysis/logs", h.Analysis.RecentLogs)
		api.GET("/documents/:id", h.Documents.GetDocument)
		api.GET("/documents/:id/download", h.Documents.DownloadDocument)
	}
}
