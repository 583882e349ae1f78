package service

import (
	"context"
	"log/slog"
	"strings"

	"lexsaksham-backend/models"
)

// ContainsDevanagari reports whether any rune falls in the Devanagari block (U+0900-U+097F)
func ContainsDevanagari(text string) bool {
	for _, r := range text {
		if r >= '\u0900' && r <= '\u097F' {
			return true
		}
	}
	return false
}

// DetectLanguage returns LanguageHindi for Devanagari text and LanguageEnglish otherwise
func DetectLanguage(text string) models.Language {
	if ContainsDevanagari(text) {
		return models.LanguageHindi
	}
	return models.LanguageEnglish
}

// translate returns the English rendering of text.
// ok is false when the translator is missing, fails, or returns nothing;
// the input text is returned unchanged in that case.
func (s *AnalysisService) translate(ctx context.Context, text string) (string, bool) {
	if s.translator == nil {
		return text, false
	}
	translated, err := s.translator.Translate(ctx, text)
	if err != nil {
		s.logger.WarnContext(ctx, "translation failed, using source text", slog.Any("error", err))
		return text, false
	}
	if strings.TrimSpace(translated) == "" {
		s.logger.WarnContext(ctx, "translation returned empty text, using source text")
		return text, false
	}
	return translated, true
}
