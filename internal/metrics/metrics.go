// Package metrics exposes Prometheus instrumentation for the punch clock.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "punchclock"

// Verification outcome labels.
const (
	OutcomeMatched        = "matched"
	OutcomeNoMatch        = "no_match"
	OutcomeLivenessFailed = "liveness_failed"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	// Template store health. A store size of zero with load failures
	// climbing means the service is silently denying everyone.
	TemplateStoreSize    prometheus.Gauge
	TemplateLoadFailures prometheus.Counter
	TemplateDecodeSkips  prometheus.Counter

	// Verification pipeline.
	Verifications        *prometheus.CounterVec
	VerificationDuration prometheus.Histogram

	// Attendance ledger.
	Toggles *prometheus.CounterVec
}

// New registers all collectors against the given registerer.
// Pass prometheus.NewRegistry() in tests to avoid collisions.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TemplateStoreSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "template_store_size",
			Help:      "Number of face templates currently held in memory.",
		}),
		TemplateLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_load_failures_total",
			Help:      "Template store loads that degraded to an empty (deny-all) store.",
		}),
		TemplateDecodeSkips: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_decode_skips_total",
			Help:      "Stored templates skipped during load because they failed to decode.",
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verification sessions by outcome.",
		}, []string{"outcome"}),
		VerificationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_duration_seconds",
			Help:      "Wall-clock duration of a full verification session.",
			Buckets:   []float64{0.5, 1, 2, 3, 5, 8, 13, 21},
		}),
		Toggles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clock_toggles_total",
			Help:      "Attendance toggles by resulting status.",
		}, []string{"status"}),
	}
}
