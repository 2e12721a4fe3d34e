package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the process-wide instrumentation surface. Each instance owns
// its own registry, so tests build isolated copies without collisions.
type Metrics struct {
	registry *prometheus.Registry

	// Mediations counts completed mediated operations by outcome:
	// released, denied, consent_denied, consent_expired, fetch_failed.
	Mediations *prometheus.CounterVec

	// Redactions counts identifiers replaced, by category.
	Redactions *prometheus.CounterVec

	// ConsentResolutions counts consent requests by terminal state.
	ConsentResolutions *prometheus.CounterVec

	// AuditWriteFailures counts append failures; each one also failed a
	// mediated operation closed.
	AuditWriteFailures prometheus.Counter

	// PipelineDuration observes end-to-end mediation latency in seconds.
	PipelineDuration prometheus.Histogram
}

// New builds a Metrics instance backed by a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Mediations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crosscontext",
			Subsystem: "mediation",
			Name:      "operations_total",
			Help:      "Mediated operations by outcome.",
		}, []string{"outcome"}),
		Redactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crosscontext",
			Subsystem: "redaction",
			Name:      "identifiers_total",
			Help:      "Identifiers redacted from record content, by category.",
		}, []string{"category"}),
		ConsentResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crosscontext",
			Subsystem: "consent",
			Name:      "resolutions_total",
			Help:      "Consent requests resolved, by terminal state.",
		}, []string{"state"}),
		AuditWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crosscontext",
			Subsystem: "audit",
			Name:      "write_failures_total",
			Help:      "Audit log append failures; each fails its operation closed.",
		}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crosscontext",
			Subsystem: "mediation",
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end mediation pipeline latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler exposes the registry for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
