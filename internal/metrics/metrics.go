// Package metrics holds the Prometheus collectors of the advisor. Every recording
// method is safe to call on a nil *Registry, so components can run without metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "advisor"

// Registry holds all Prometheus metrics for the advisor
type Registry struct {
	reg *prometheus.Registry

	// Pipeline metrics
	PhaseDuration *prometheus.HistogramVec
	Runs          *prometheus.CounterVec
	ActiveRuns    prometheus.Gauge

	// Scoring metrics
	FallbackScores prometheus.Counter
	SkippedAssets  prometheus.Counter

	// Optimizer metrics
	OptimizerDegraded *prometheus.CounterVec

	// Collaborator metrics
	SentimentRequests *prometheus.CounterVec
	ArchiveWrites     *prometheus.CounterVec
}

// NewRegistry creates a registry with every advisor metric plus the Go and process
// collectors registered on it
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Duration of each pipeline phase in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"phase"},
		),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by outcome",
			},
			[]string{"status"},
		),

		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_runs",
				Help:      "Number of pipeline runs in progress",
			},
		),

		FallbackScores: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_scores_total",
				Help:      "Assets scored on the fallback path",
			},
		),

		SkippedAssets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_assets_total",
				Help:      "Assets skipped because their identity was malformed",
			},
		),

		OptimizerDegraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "optimizer_degraded_total",
				Help:      "Optimizer runs that fell back to inverse-volatility weights, by reason",
			},
			[]string{"reason"},
		),

		SentimentRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sentiment_requests_total",
				Help:      "Sentiment provider requests by result",
			},
			[]string{"result"},
		),

		ArchiveWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "archive_writes_total",
				Help:      "Run archive writes by backend and result",
			},
			[]string{"backend", "result"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.PhaseDuration,
		r.Runs,
		r.ActiveRuns,
		r.FallbackScores,
		r.SkippedAssets,
		r.OptimizerDegraded,
		r.SentimentRequests,
		r.ArchiveWrites,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry for tests and custom exporters
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// PhaseTimer tracks execution time for one pipeline phase
type PhaseTimer struct {
	metrics *Registry
	phase   string
	start   time.Time
}

// StartPhase begins timing a pipeline phase
func (r *Registry) StartPhase(phase string) *PhaseTimer {
	return &PhaseTimer{metrics: r, phase: phase, start: time.Now()}
}

// Stop records the phase duration and returns it
func (pt *PhaseTimer) Stop() time.Duration {
	d := time.Since(pt.start)
	if pt.metrics != nil {
		pt.metrics.PhaseDuration.WithLabelValues(pt.phase).Observe(d.Seconds())
	}
	return d
}

// RunStarted marks a pipeline run in progress
func (r *Registry) RunStarted() {
	if r == nil {
		return
	}
	r.ActiveRuns.Inc()
}

// RunFinished records the outcome of a pipeline run
func (r *Registry) RunFinished(status string) {
	if r == nil {
		return
	}
	r.ActiveRuns.Dec()
	r.Runs.WithLabelValues(status).Inc()
}

// RecordFallbackScores adds n fallback-scored assets
func (r *Registry) RecordFallbackScores(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.FallbackScores.Add(float64(n))
}

// RecordSkippedAssets adds n skipped assets
func (r *Registry) RecordSkippedAssets(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.SkippedAssets.Add(float64(n))
}

// RecordOptimizerDegraded counts one inverse-volatility fallback
func (r *Registry) RecordOptimizerDegraded(reason string) {
	if r == nil {
		return
	}
	r.OptimizerDegraded.WithLabelValues(reason).Inc()
}

// RecordSentimentRequest counts one sentiment provider call
func (r *Registry) RecordSentimentRequest(result string) {
	if r == nil {
		return
	}
	r.SentimentRequests.WithLabelValues(result).Inc()
}

// RecordArchiveWrite counts one archive write
func (r *Registry) RecordArchiveWrite(backend, result string) {
	if r == nil {
		return
	}
	r.ArchiveWrites.WithLabelValues(backend, result).Inc()
}
