package handlers

import (
	"github.com/gin-gonic/gin"
)

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondLegacyError writes the flat {"error": ...} body used by the
// clause analysis routes that predate the envelope
func respondLegacyError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
