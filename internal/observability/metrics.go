package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the engine.
type Metrics struct {
	// Fetch metrics.
	FetchAttempts   *prometheus.CounterVec // labels: source={primary,fallback}, outcome={success,error}
	Fallbacks       prometheus.Counter
	DataUnavailable prometheus.Counter
	ReadingCache    *prometheus.CounterVec // labels: result={hit,miss,stale}
	ProviderLatency *prometheus.HistogramVec // labels: source={primary,fallback}

	// Evaluation metrics.
	Evaluations        *prometheus.CounterVec // labels: level={LOW,MEDIUM,HIGH}
	Alerts             *prometheus.CounterVec // labels: type, level
	EvaluationDuration prometheus.Histogram
	PolicyReloads      *prometheus.CounterVec // labels: outcome={success,error}

	// Sink metrics.
	EvaluationsPublished prometheus.Counter
	PublishErrors        prometheus.Counter
	PipelineRunning      prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.FetchAttempts,
		m.Fallbacks,
		m.DataUnavailable,
		m.ReadingCache,
		m.ProviderLatency,
		m.Evaluations,
		m.Alerts,
		m.EvaluationDuration,
		m.PolicyReloads,
		m.EvaluationsPublished,
		m.PublishErrors,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      help("Weather fetch attempts by source and outcome."),
		}, []string{"source", "outcome"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      help("Times the primary source was exhausted and the fallback provider was used."),
		}),
		DataUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_unavailable_total",
			Help:      help("Fetches where neither source produced a reading."),
		}),
		ReadingCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reading_cache_total",
			Help:      help("Reading cache lookups by result."),
		}, []string{"result"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      help("Upstream weather provider request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      help("Completed evaluations by overall risk level."),
		}, []string{"level"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      help("Alerts emitted by type and level."),
		}, []string{"type", "level"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      help("Duration of a complete fetch-classify-derive evaluation."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		PolicyReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_reloads_total",
			Help:      help("Policy reload attempts by outcome."),
		}, []string{"outcome"}),
		EvaluationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_published_total",
			Help:      help("Evaluations written to the sink topic."),
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      help("Failed batch writes to the sink topic."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 when the scheduler is active, 0 when shut down."),
		}),
	}
}
