// Package metrics defines the prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nourish_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nourish_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ExternalLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nourish_external_lookup_duration_seconds",
			Help:    "Latency of external food database calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "outcome"},
	)

	ExternalLookupDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nourish_search_degraded_total",
			Help: "Food searches answered from local data only after an external lookup failure",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nourish_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nourish_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	EntriesLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nourish_entries_logged_total",
			Help: "Food entries written, by source",
		},
		[]string{"source"}, // "single", "saved_meal"
	)

	ImageBytesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nourish_recipe_image_bytes_total",
			Help: "Bytes of recipe images accepted for storage",
		},
	)
)

// RecordAPIRequest records one handled request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordExternalLookup records one call to the external food database.
func RecordExternalLookup(operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ExternalLookupDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}
