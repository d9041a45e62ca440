// Package metrics holds the Prometheus collectors. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "moodlog"

// Persistence stages counted on failure.
const (
	StageLedger  = "ledger"
	StageSession = "session"
)

// Metrics groups the service collectors.
type Metrics struct {
	analyses           *prometheus.CounterVec
	classifierErrors   *prometheus.CounterVec
	classifierLatency  prometheus.Histogram
	persistenceFailure *prometheus.CounterVec
	sessionsRepaired   prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Successful analyses by sentiment.",
		}, []string{"sentiment"}),
		classifierErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_errors_total",
			Help:      "Failed classifier calls by error code.",
		}, []string{"code"}),
		classifierLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_duration_seconds",
			Help:      "Latency of classifier calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		persistenceFailure: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Writes dropped after a successful classification.",
		}, []string{"stage"}),
		sessionsRepaired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_repaired_total",
			Help:      "Session aggregates rebuilt from the ledger.",
		}),
	}
}

// ObserveAnalysis records a successful classification.
func (m *Metrics) ObserveAnalysis(sentiment string, took time.Duration) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(sentiment).Inc()
	m.classifierLatency.Observe(took.Seconds())
}

// ObserveClassifierError records a failed classification.
func (m *Metrics) ObserveClassifierError(code string, took time.Duration) {
	if m == nil {
		return
	}
	m.classifierErrors.WithLabelValues(code).Inc()
	m.classifierLatency.Observe(took.Seconds())
}

// PersistenceFailed counts a dropped write.
func (m *Metrics) PersistenceFailed(stage string) {
	if m == nil {
		return
	}
	m.persistenceFailure.WithLabelValues(stage).Inc()
}

// SessionRepaired counts one reconciled session.
func (m *Metrics) SessionRepaired() {
	if m == nil {
		return
	}
	m.sessionsRepaired.Inc()
}
