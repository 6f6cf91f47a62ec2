// Package metrics holds the Prometheus collectors for the field / progress engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	attendanceSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecoguard",
			Subsystem: "attendance",
			Name:      "attempts_total",
			Help:      "Attendance attempts by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	oracleVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecoguard",
			Subsystem: "oracle",
			Name:      "verdicts_total",
			Help:      "Photo authenticity results: verified, rejected, degraded or unavailable.",
		},
		[]string{"outcome"},
	)

	oracleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ecoguard",
			Subsystem: "oracle",
			Name:      "request_duration_seconds",
			Help:      "Duration of photo authenticity calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to ~32s
		},
	)

	xpAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecoguard",
			Subsystem: "ledger",
			Name:      "xp_awarded_total",
			Help:      "XP committed to progression ledgers by activity type.",
		},
		[]string{"activity"},
	)

	mintResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecoguard",
			Subsystem: "mint",
			Name:      "results_total",
			Help:      "Token mint attempts by outcome.",
		},
		[]string{"outcome"},
	)

	mintQueueDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ecoguard",
			Subsystem: "mint",
			Name:      "queue_full_total",
			Help:      "Mint jobs left for the reconciler because the dispatch queue was full.",
		},
	)
)

func init() {
	Registry.MustRegister(
		attendanceSteps,
		oracleVerdicts,
		oracleDuration,
		xpAwarded,
		mintResults,
		mintQueueDropped,
		prometheus.NewGoCollector(),
	)
}

func RecordAttendance(kind, outcome string) {
	attendanceSteps.WithLabelValues(kind, outcome).Inc()
}

func RecordOracle(outcome string, seconds float64) {
	oracleVerdicts.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		oracleDuration.Observe(seconds)
	}
}

func RecordXP(activity string, amount int) {
	if amount > 0 {
		xpAwarded.WithLabelValues(activity).Add(float64(amount))
	}
}

func RecordMint(outcome string) {
	mintResults.WithLabelValues(outcome).Inc()
}

func RecordMintQueueFull() {
	mintQueueDropped.Inc()
}

// Handler exposes the registry for /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
