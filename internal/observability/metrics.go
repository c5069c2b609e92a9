package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// monitoring pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	SitesProcessed  prometheus.Counter
	SitesFailed     prometheus.Counter

	// Fetch metrics.
	FetchAttempts        *prometheus.CounterVec // labels: outcome={success,error}
	Fallbacks            prometheus.Counter
	ObservationsIngested prometheus.Counter
	ObservationsDropped  prometheus.Counter
	FetchDuration        prometheus.Histogram

	// Analysis metrics.
	AnomaliesFlagged prometheus.Counter
	AnalysisDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "swot_monitor",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is active, 0 otherwise.",
		}),
		SitesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swot_monitor",
			Name:      "sites_processed_total",
			Help:      "Sites that completed fetch and analysis.",
		}),
		SitesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swot_monitor",
			Name:      "sites_failed_total",
			Help:      "Sites skipped due to invalid descriptors or local errors.",
		}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swot_monitor",
			Name:      "fetch_attempts_total",
			Help:      "Remote fetch attempts by outcome.",
		}, []string{"outcome"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swot_monitor",
			Name:      "fallbacks_total",
			Help:      "Fetches that fell back to the simulated generator.",
		}),
		ObservationsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swot_monitor",
			Name:      "observations_ingested_total",
			Help:      "Observations that passed sanity checks and were stored.",
		}),
		ObservationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swot_monitor",
			Name:      "observations_dropped_total",
			Help:      "Raw records dropped by sanity checks.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "swot_monitor",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a complete per-site fetch including retries.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		AnomaliesFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swot_monitor",
			Name:      "anomalies_flagged_total",
			Help:      "Observations flagged as elevation anomalies.",
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "swot_monitor",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of per-site trend analysis.",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}

	prometheus.MustRegister(
		m.PipelineRunning,
		m.SitesProcessed,
		m.SitesFailed,
		m.FetchAttempts,
		m.Fallbacks,
		m.ObservationsIngested,
		m.ObservationsDropped,
		m.FetchDuration,
		m.AnomaliesFlagged,
		m.AnalysisDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PipelineRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "swot_monitor", Name: "pipeline_running"}),
		SitesProcessed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "swot_monitor", Name: "sites_processed_total"}),
		SitesFailed:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "swot_monitor", Name: "sites_failed_total"}),
		FetchAttempts:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "swot_monitor", Name: "fetch_attempts_total"}, []string{"outcome"}),
		Fallbacks:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "swot_monitor", Name: "fallbacks_total"}),
		ObservationsIngested: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "swot_monitor", Name: "observations_ingested_total"}),
		ObservationsDropped:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "swot_monitor", Name: "observations_dropped_total"}),
		FetchDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "swot_monitor", Name: "fetch_duration_seconds"}),
		AnomaliesFlagged:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "swot_monitor", Name: "anomalies_flagged_total"}),
		AnalysisDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "swot_monitor", Name: "analysis_duration_seconds"}),
	}
}
