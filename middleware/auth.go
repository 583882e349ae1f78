// Package middleware holds the gin middleware shared by all routes.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyHeader is checked before the Authorization header
const APIKeyHeader = "X-API-Key"

// KeyVerifier checks a presented API key
type KeyVerifier interface {
	Verify(ctx context.Context, key string) (bool, error)
}

// StaticKeys verifies keys against a fixed list of bcrypt hashes
type StaticKeys struct {
	hashes [][]byte
}

// NewStaticKeys creates a verifier from bcrypt hashes
func NewStaticKeys(hashes []string) *StaticKeys {
	s := &StaticKeys{}
	for _, h := range hashes {
		s.hashes = append(s.hashes, []byte(h))
	}
	return s
}

// Verify reports whether key matches any configured hash
func (s *StaticKeys) Verify(ctx context.Context, key string) (bool, error) {
	for _, h := range s.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(key)) == nil {
			return true, nil
		}
	}
	return false, nil
}

// AnyOf accepts a key when one of the verifiers does.
// Nil verifiers are skipped.
func AnyOf(verifiers ...KeyVerifier) KeyVerifier {
	return anyOf(verifiers)
}

type anyOf []KeyVerifier

func (a anyOf) Verify(ctx context.Context, key string) (bool, error) {
	var lastErr error
	for _, v := range a {
		if v == nil {
			continue
		}
		ok, err := v.Verify(ctx, key)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, lastErr
}

// APIKeyAuth rejects requests without a valid API key
func APIKeyAuth(verifier KeyVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := extractKey(c)
		if key == "" {
			abort(c, http.StatusUnauthorized, "MISSING_API_KEY", "API key is required")
			return
		}

		ok, err := verifier.Verify(c.Request.Context(), key)
		if err != nil {
			logger.ErrorContext(c.Request.Context(), "api key verification failed", slog.Any("error", err))
			abort(c, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Could not verify API key")
			return
		}
		if !ok {
			abort(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key")
			return
		}

		c.Next()
	}
}

func extractKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader(APIKeyHeader)); key != "" {
		return key
	}
	auth := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
