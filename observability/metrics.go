// Package observability holds the Prometheus metrics and OpenTelemetry
// tracing setup shared by the server and the analysis pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace  = "lexsaksham"
	pipelineSubsystem = "pipeline"
	searchSubsystem   = "judgment_search"
)

// Metrics are the pipeline counters and histograms.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// ClausesTotal counts analysed clauses by final risk level
	ClausesTotal *prometheus.CounterVec

	// DegradationsTotal counts collaborator fallbacks by collaborator
	DegradationsTotal *prometheus.CounterVec

	// RefinementsTotal counts LLM refinement attempts by outcome
	RefinementsTotal *prometheus.CounterVec

	// StageDurationSeconds times each pipeline stage
	StageDurationSeconds *prometheus.HistogramVec

	// SearchesTotal counts judgment searches by status
	SearchesTotal *prometheus.CounterVec
}

// NewMetrics registers the pipeline metrics on a fresh registry that also
// carries the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := newMetrics(reg)
	m.Registry = reg
	return m
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ClausesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "clauses_total",
				Help:      "Total clauses analysed by final risk level",
			},
			[]string{"risk_level"},
		),

		DegradationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "degradations_total",
				Help:      "Total collaborator fallbacks by collaborator",
			},
			[]string{"collaborator"},
		),

		RefinementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "refinements_total",
				Help:      "Total LLM refinement attempts by outcome",
			},
			[]string{"outcome"},
		),

		StageDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),

		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: searchSubsystem,
				Name:      "requests_total",
				Help:      "Total judgment searches by status",
			},
			[]string{"status"},
		),
	}
}

// ObserveClause records one analysed clause
func (m *Metrics) ObserveClause(riskLevel string) {
	if m == nil {
		return
	}
	m.ClausesTotal.WithLabelValues(riskLevel).Inc()
}

// ObserveDegradation records a collaborator fallback
func (m *Metrics) ObserveDegradation(collaborator string) {
	if m == nil {
		return
	}
	m.DegradationsTotal.WithLabelValues(collaborator).Inc()
}

// ObserveRefinement records the outcome of a refinement call
func (m *Metrics) ObserveRefinement(outcome string) {
	if m == nil {
		return
	}
	m.RefinementsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a pipeline stage took
func (m *Metrics) ObserveStage(stage string, started time.Time) {
	if m == nil {
		return
	}
	m.StageDurationSeconds.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// ObserveSearch records a judgment search
func (m *Metrics) ObserveSearch(status string) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(status).Inc()
}
