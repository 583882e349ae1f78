package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errVerifier struct{ err error }

func (e errVerifier) Verify(ctx context.Context, key string) (bool, error) {
	return false, e.err
}

func hash(t *testing.T, key string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newAuthRouter(v KeyVerifier) *gin.Engine {
	r := gin.New()
	r.Use(APIKeyAuth(v, slog.New(slog.DiscardHandler)))
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func TestAPIKeyAuth(t *testing.T) {
	const key = "lsk_0123abcd_5f1e9a"
	verifier := NewStaticKeys([]string{hash(t, key)})

	tests := []struct {
		name   string
		header string
		value  string
		status int
		code   string
	}{
		{"api key header", APIKeyHeader, key, http.StatusOK, ""},
		{"bearer token", "Authorization", "Bearer " + key, http.StatusOK, ""},
		{"missing", "", "", http.StatusUnauthorized, "MISSING_API_KEY"},
		{"wrong key", APIKeyHeader, "lsk_0123abcd_000000", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"basic auth", "Authorization", "Basic " + key, http.StatusUnauthorized, "MISSING_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			newAuthRouter(verifier).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
			}
		})
	}
}

func TestAPIKeyAuth_VerifierError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(APIKeyHeader, "lsk_0123abcd_5f1e9a")
	w := httptest.NewRecorder()
	newAuthRouter(errVerifier{err: errors.New("connection refused")}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_UNAVAILABLE")
}

func TestAnyOf(t *testing.T) {
	const key = "lsk_89abcdef_77aa"
	broken := errVerifier{err: errors.New("db down")}
	static := NewStaticKeys([]string{hash(t, key)})

	ok, err := AnyOf(broken, nil, static).Verify(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AnyOf(broken, static).Verify(context.Background(), "lsk_89abcdef_other")
	assert.False(t, ok)
	assert.Error(t, err)

	ok, err = AnyOf().Verify(context.Background(), key)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestRequestID(t *testing.T) {
	var logs bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), AccessLog(slog.New(slog.NewJSONHandler(&logs, nil))))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())
	assert.Contains(t, logs.String(), generated)

	const given = "6f1c1c8e-3d8b-4c47-9d55-5d7a3f3bb0c4"
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, given)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, given, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}
