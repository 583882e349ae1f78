package models

import (
	"strings"
	"unicode"
)

// Language is the detected language of a clause
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
)

// Clause is a self-contained segment of contract text analyzed on its own
type Clause struct {
	Text     string   `json:"text"`
	Language Language `json:"language,omitempty"`
}

// ClauseType is the clause-type label produced by the classifier
type ClauseType string

const (
	ClauseConfidentiality         ClauseType = "Confidentiality"
	ClauseConfidentialityDuration ClauseType = "Confidentiality Duration"
	ClauseDisputeResolution       ClauseType = "Dispute Resolution"
	ClauseForceMajeure            ClauseType = "Force Majeure"
	ClauseGoverningLaw            ClauseType = "Governing Law and Jurisdiction"
	ClauseIndemnityLiability      ClauseType = "Indemnity / Liability"
	ClauseIntellectualProperty    ClauseType = "Intellectual Property Rights"
	ClauseLeavePolicy             ClauseType = "Leave Policy / Severance"
	ClauseLimitationOfLiability   ClauseType = "Limitation of Liability"
	ClauseMaintenance             ClauseType = "Maintenance and Utilities"
	ClauseNDAExclusions           ClauseType = "NDA Exclusions"
	ClauseNonCompete              ClauseType = "Non-Compete / Restrictive Covenants"
	ClauseNoticePeriod            ClauseType = "Notice Period"
	ClauseObligations             ClauseType = "Obligations / Responsibilities"
	ClausePaymentTerms            ClauseType = "Payment Terms"
	ClauseProbationPeriod         ClauseType = "Probation Period"
	ClausePropertyUsage           ClauseType = "Property Usage Restrictions"
	ClauseRentTerms               ClauseType = "Rent and Lease Terms"
	ClauseReturnOfMaterials       ClauseType = "Return or Destruction of Materials"
	ClauseScopeOfWork             ClauseType = "Scope of Work / Services"
	ClauseSecurityDeposit         ClauseType = "Security Deposit"
	ClauseServiceLevels           ClauseType = "Service Levels (SLA)"
	ClauseSeverance               ClauseType = "Severance and Exit Benefits"
	ClauseTerminationOrExpiry     ClauseType = "Termination or Expiry"
	ClauseWarranties              ClauseType = "Warranties and Representations"

	// Short-form labels emitted by older label maps
	ClauseIndemnity   ClauseType = "Indemnity"
	ClauseLiability   ClauseType = "Liability"
	ClauseTermination ClauseType = "Termination"

	ClauseUnknown ClauseType = "Unknown"
)

// TemplateKind identifies a family of pre-approved safer clauses
type TemplateKind string

const (
	TemplateNone            TemplateKind = ""
	TemplateForceMajeure    TemplateKind = "force_majeure"
	TemplateBreachPenalties TemplateKind = "breach_penalties"
	TemplateLiability       TemplateKind = "liability"
	TemplateTermination     TemplateKind = "termination"
	TemplateIndemnity       TemplateKind = "indemnity"
	TemplateNonCompete      TemplateKind = "non_compete"
	TemplateConfidentiality TemplateKind = "confidentiality"
	TemplateGeneral         TemplateKind = "general"
)

// clauseTypeInfo is the canonical per-type policy table.
// Template is the safer-clause family selected from the label alone,
// HighStakes puts the label in the fusion safety net, and Common marks
// types whose templates are never sent for LLM refinement.
type clauseTypeInfo struct {
	Template   TemplateKind
	HighStakes bool
	Common     bool
}

var clauseTypes = map[ClauseType]clauseTypeInfo{
	ClauseConfidentiality:         {Template: TemplateConfidentiality},
	ClauseConfidentialityDuration: {Template: TemplateConfidentiality},
	ClauseDisputeResolution:       {},
	ClauseForceMajeure:            {Template: TemplateForceMajeure, Common: true},
	ClauseGoverningLaw:            {},
	ClauseIndemnityLiability:      {Template: TemplateLiability, Common: true},
	ClauseIntellectualProperty:    {},
	ClauseLeavePolicy:             {},
	ClauseLimitationOfLiability:   {Template: TemplateLiability, Common: true},
	ClauseMaintenance:             {},
	ClauseNDAExclusions:           {Template: TemplateConfidentiality},
	ClauseNonCompete:              {Template: TemplateNonCompete},
	ClauseNoticePeriod:            {},
	ClauseObligations:             {},
	ClausePaymentTerms:            {},
	ClauseProbationPeriod:         {},
	ClausePropertyUsage:           {},
	ClauseRentTerms:               {},
	ClauseReturnOfMaterials:       {},
	ClauseScopeOfWork:             {},
	ClauseSecurityDeposit:         {},
	ClauseServiceLevels:           {},
	ClauseSeverance:               {},
	ClauseTerminationOrExpiry:     {Template: TemplateTermination, Common: true},
	ClauseWarranties:              {},
	ClauseIndemnity:               {Template: TemplateIndemnity, HighStakes: true, Common: true},
	ClauseLiability:               {Template: TemplateLiability, HighStakes: true, Common: true},
	ClauseTermination:             {Template: TemplateTermination, HighStakes: true, Common: true},
	ClauseUnknown:                 {},
}

// aliases maps normalized dataset keys onto canonical types
var aliases = map[string]ClauseType{
	"confidentiality":          ClauseConfidentiality,
	"confidentiality duration": ClauseConfidentialityDuration,
	"dispute resolution":       ClauseDisputeResolution,
	"force majeure":            ClauseForceMajeure,
	"governing law":            ClauseGoverningLaw,
	"intellectual property":    ClauseIntellectualProperty,
	"leave policy":             ClauseLeavePolicy,
	"limitation of liability":  ClauseLimitationOfLiability,
	"maintenance":              ClauseMaintenance,
	"nda exclusions":           ClauseNDAExclusions,
	"non compete":              ClauseNonCompete,
	"notice period":            ClauseNoticePeriod,
	"obligations":              ClauseObligations,
	"payment terms":            ClausePaymentTerms,
	"probation period":         ClauseProbationPeriod,
	"property usage":           ClausePropertyUsage,
	"rent terms":               ClauseRentTerms,
	"return of materials":      ClauseReturnOfMaterials,
	"scope of work":            ClauseScopeOfWork,
	"security deposit":         ClauseSecurityDeposit,
	"service levels":           ClauseServiceLevels,
	"severance":                ClauseSeverance,
	"warranties":               ClauseWarranties,
	"indemnity":                ClauseIndemnityLiability,
	"termination":              ClauseTerminationOrExpiry,
}

// shortForms are the high-stakes labels. They match only verbatim; the
// lower-case dataset keys of the same words name the broader long-form types.
var shortForms = map[string]ClauseType{
	string(ClauseIndemnity):   ClauseIndemnity,
	string(ClauseLiability):   ClauseLiability,
	string(ClauseTermination): ClauseTermination,
}

var canonical map[string]ClauseType

func init() {
	canonical = make(map[string]ClauseType, len(clauseTypes)+len(aliases))
	for t := range clauseTypes {
		if _, short := shortForms[string(t)]; short {
			continue
		}
		canonical[normalizeLabel(string(t))] = t
	}
	for k, t := range aliases {
		canonical[k] = t
	}
}

// normalizeLabel lower-cases a label and collapses any run of
// non-alphanumeric characters into a single space.
func normalizeLabel(label string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// ParseClauseType maps a classifier label onto the canonical enum.
// The short forms Indemnity, Liability and Termination must match exactly;
// every other label matches ignoring case and separators. Unknown labels
// yield ClauseUnknown.
func ParseClauseType(label string) ClauseType {
	if t, ok := shortForms[label]; ok {
		return t
	}
	if t, ok := canonical[normalizeLabel(label)]; ok {
		return t
	}
	return ClauseUnknown
}

// Template returns the safer-clause family implied by the label alone
func (t ClauseType) Template() TemplateKind {
	return clauseTypes[t].Template
}

// HighStakes reports whether the label alone escalates an unflagged clause to High
func (t ClauseType) HighStakes() bool {
	return clauseTypes[t].HighStakes
}

// Common reports whether the type has a dedicated template that is never refined
func (t ClauseType) Common() bool {
	return clauseTypes[t].Common
}

// Classification is the classifier's verdict for one clause
type Classification struct {
	Label         string     `json:"label"`
	Type          ClauseType `json:"type"`
	LabelIndex    int        `json:"label_index"`
	Confidence    float64    `json:"confidence"`
	Probabilities []float64  `json:"probabilities,omitempty"`
	NeedsReview   bool       `json:"needs_review"`
}

// ReviewThreshold is the confidence below which a prediction is flagged for human review
const ReviewThreshold = 0.60

// TokenWeight is one word's contribution towards the predicted label
type TokenWeight struct {
	Word   string  `json:"word"`
	Weight float64 `json:"weight"`
}

// Degradation names a collaborator whose output was replaced by a fallback
type Degradation string

const (
	DegradedTranslation Degradation = "translation"
	DegradedSummary     Degradation = "summary"
	DegradedRefinement  Degradation = "refinement"
	DegradedExplanation Degradation = "explanation"
)

// AlternativeSource records where the safer alternative came from
type AlternativeSource string

const (
	AlternativeNone     AlternativeSource = ""
	AlternativeTemplate AlternativeSource = "template"
	AlternativeRefined  AlternativeSource = "refined"
)

// AnalysisRecord is the per-clause output of the pipeline.
// Confidence is a percentage rounded to two decimals.
type AnalysisRecord struct {
	Text              string            `json:"text"`
	Language          Language          `json:"language"`
	Label             string            `json:"label"`
	RiskLevel         RiskLevel         `json:"risk_level"`
	Confidence        float64           `json:"confidence"`
	NeedsReview       bool              `json:"needs_review"`
	RuleSummary       string            `json:"rule_summary"`
	SaferAlternative  string            `json:"safer_alternative"`
	AlternativeSource AlternativeSource `json:"alternative_source,omitempty"`
	Explanation       []TokenWeight     `json:"lime_explanation"`
	Degradations      []Degradation     `json:"degradations,omitempty"`
}
