package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RiskLevel is the categorical severity of a clause.
// Levels are ordered Low < Medium < High < Critical.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	// RiskCritical is accepted by downstream consumers but never produced by fusion
	RiskCritical
)

var riskNames = [...]string{"Low", "Medium", "High", "Critical"}

func (r RiskLevel) String() string {
	if r < RiskLow || r > RiskCritical {
		return fmt.Sprintf("RiskLevel(%d)", int(r))
	}
	return riskNames[r]
}

// ParseRiskLevel parses a level name case-insensitively
func ParseRiskLevel(s string) (RiskLevel, error) {
	for i, name := range riskNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return RiskLevel(i), nil
		}
	}
	return RiskLow, fmt.Errorf("unknown risk level %q", s)
}

// MarshalJSON encodes the level by name
func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a level name
func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	lvl, err := ParseRiskLevel(s)
	if err != nil {
		return err
	}
	*r = lvl
	return nil
}

// MarshalText lets RiskLevel be used as a map key in JSON and YAML
func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a level name used as a map key
func (r *RiskLevel) UnmarshalText(text []byte) error {
	lvl, err := ParseRiskLevel(string(text))
	if err != nil {
		return err
	}
	*r = lvl
	return nil
}
