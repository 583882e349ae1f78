package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"lexsaksham-backend/service"
)

const keyPrefix = "lexsaksham:"

// DefaultTTL keeps cached model output for a week
const DefaultTTL = 7 * 24 * time.Hour

func key(kind, text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + kind + ":" + hex.EncodeToString(sum[:])
}

// remember returns the cached value for key or computes and stores it.
// Cache errors never fail the call.
func remember(ctx context.Context, c Cache, k string, ttl time.Duration, compute func() (string, error)) (string, error) {
	found, v, err := c.Get(ctx, k)
	if err != nil {
		slog.WarnContext(ctx, "cache get failed", "key", k, "error", err)
	} else if found {
		return v, nil
	}

	v, err = compute()
	if err != nil {
		return "", err
	}
	if v == "" {
		return v, nil
	}
	if err := c.Set(ctx, k, v, ttl); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", k, "error", err)
	}
	return v, nil
}

// Translator caches a service.Translator
type Translator struct {
	next  service.Translator
	cache Cache
	ttl   time.Duration
}

// NewTranslator wraps next with cache
func NewTranslator(next service.Translator, c Cache, ttl time.Duration) *Translator {
	return &Translator{next: next, cache: c, ttl: ttl}
}

// Translate implements service.Translator
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	return remember(ctx, t.cache, key("translate", text), t.ttl, func() (string, error) {
		return t.next.Translate(ctx, text)
	})
}

// Summarizer caches a service.Summarizer
type Summarizer struct {
	next  service.Summarizer
	cache Cache
	ttl   time.Duration
}

// NewSummarizer wraps next with cache
func NewSummarizer(next service.Summarizer, c Cache, ttl time.Duration) *Summarizer {
	return &Summarizer{next: next, cache: c, ttl: ttl}
}

// Summarize implements service.Summarizer
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	return remember(ctx, s.cache, key("summary", text), s.ttl, func() (string, error) {
		return s.next.Summarize(ctx, text)
	})
}
