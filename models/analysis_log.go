package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Degradations is a list of fallbacks stored as JSONB
type Degradations []Degradation

// Value implements driver.Valuer for JSONB
func (d Degradations) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB
func (d *Degradations) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		*d = Degradations{}
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*d = Degradations{}
		return nil
	}
	if len(bytes) == 0 {
		*d = Degradations{}
		return nil
	}
	return json.Unmarshal(bytes, d)
}

// AnalysisLogEntry is one line of the prediction audit log
type AnalysisLogEntry struct {
	Timestamp      time.Time    `json:"timestamp"`
	InputText      string       `json:"input_text"`
	InputLang      Language     `json:"input_lang"`
	PredictedLabel string       `json:"predicted_label"`
	Confidence     float64      `json:"confidence"`
	RequiresReview bool         `json:"requires_review"`
	RiskLevel      RiskLevel    `json:"risk_level"`
	ExplainMethod  string       `json:"explain_method"`
	Degradations   Degradations `json:"degradations,omitempty"`
}

// NewAnalysisLogEntry builds a log entry from a finished record
func NewAnalysisLogEntry(rec *AnalysisRecord, cls *Classification, explainMethod string, now time.Time) AnalysisLogEntry {
	entry := AnalysisLogEntry{
		Timestamp:     now.UTC(),
		InputText:     rec.Text,
		InputLang:     rec.Language,
		RiskLevel:     rec.RiskLevel,
		ExplainMethod: explainMethod,
		Degradations:  Degradations(rec.Degradations),
	}
	if cls != nil {
		entry.PredictedLabel = cls.Label
		entry.Confidence = cls.Confidence
		entry.RequiresReview = cls.NeedsReview
	}
	return entry
}
