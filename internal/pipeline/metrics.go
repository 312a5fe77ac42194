package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "gigradar"

// Metrics holds the Prometheus collectors updated by the pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	JobsFetchedTotal     *prometheus.CounterVec // by source
	JobsTotal            *prometheus.CounterVec // by source and outcome
	ClassificationsTotal *prometheus.CounterVec // by strategy and priority
	NotificationsTotal   *prometheus.CounterVec // by result
	SourceFailuresTotal  *prometheus.CounterVec // by source
	RunDuration          prometheus.Histogram
	LastRunNewJobs       prometheus.Gauge
}

// NewMetrics creates and registers the pipeline metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		JobsFetchedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_fetched_total",
			Help:      "Jobs returned by source adapters",
		}, []string{"source"}),
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_total",
			Help:      "Jobs seen by the pipeline, by source and outcome",
		}, []string{"source", "outcome"}),
		ClassificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "classifications_total",
			Help:      "Classifications produced, by strategy and priority",
		}, []string{"strategy", "priority"}),
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "notifications_total",
			Help:      "Notification attempts, by result",
		}, []string{"result"}),
		SourceFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "source_failures_total",
			Help:      "Source fetches that failed or panicked",
		}, []string{"source"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one pipeline run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		LastRunNewJobs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_new_jobs",
			Help:      "Jobs persisted by the most recent run",
		}),
	}
}

func (m *Metrics) fetched(source string, n int) {
	if m != nil {
		m.JobsFetchedTotal.WithLabelValues(source).Add(float64(n))
	}
}

func (m *Metrics) job(source string, o outcome) {
	if m != nil {
		m.JobsTotal.WithLabelValues(source, string(o)).Inc()
	}
}

func (m *Metrics) classified(strategy, priority string) {
	if m != nil {
		m.ClassificationsTotal.WithLabelValues(strategy, priority).Inc()
	}
}

func (m *Metrics) notified(result string) {
	if m != nil {
		m.NotificationsTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) sourceFailed(source string) {
	if m != nil {
		m.SourceFailuresTotal.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) runFinished(seconds float64, newJobs int) {
	if m != nil {
		m.RunDuration.Observe(seconds)
		m.LastRunNewJobs.Set(float64(newJobs))
	}
}
