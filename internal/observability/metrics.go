package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	requestsTotal        *prometheus.CounterVec
	latencySeconds       *prometheus.HistogramVec
	transitionsTotal     *prometheus.CounterVec
	staleVersionsTotal   prometheus.Counter
	idempotencyOutcomes  *prometheus.CounterVec
	validationFailsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "revu_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "revu_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "revu_evaluation_transitions_total",
			Help: "Evaluation state transitions applied, by action and outcome.",
		}, []string{"action", "outcome"})

		staleVersionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "revu_stale_version_conflicts_total",
			Help: "Writes rejected because the If-Match version was stale.",
		})

		idempotencyOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "revu_idempotency_outcomes_total",
			Help: "Idempotency key resolutions by outcome.",
		}, []string{"outcome"})

		validationFailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "revu_validation_failures_total",
			Help: "Draft and submit validation failures.",
		}, []string{"mode"})

		prometheus.MustRegister(
			requestsTotal,
			latencySeconds,
			transitionsTotal,
			staleVersionsTotal,
			idempotencyOutcomes,
			validationFailsTotal,
		)
	})
}

// Requests exposes the request counter.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Transitions exposes the evaluation transition counter.
func Transitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// StaleVersions exposes the stale-version conflict counter.
func StaleVersions() prometheus.Counter {
	RegisterMetrics()
	return staleVersionsTotal
}

// IdempotencyOutcomes exposes the idempotency resolution counter.
func IdempotencyOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return idempotencyOutcomes
}

// ValidationFailures exposes the validation failure counter.
func ValidationFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return validationFailsTotal
}
