package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce              sync.Once
	apiRequestsTotal          *prometheus.CounterVec
	apiLatencySeconds         *prometheus.HistogramVec
	apiErrorsTotal            *prometheus.CounterVec
	evaluationsRecordedTotal  *prometheus.CounterVec
	validationFailuresTotal   *prometheus.CounterVec
	statsCacheOutcomesCounter *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for API observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evalio_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evalio_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evalio_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		evaluationsRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evalio_evaluations_recorded_total",
			Help: "Total number of evaluations persisted, per evaluation type.",
		}, []string{"evaluation_type"})

		validationFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evalio_validation_failures_total",
			Help: "Total number of evaluation consistency violations, per kind.",
		}, []string{"kind"})

		statsCacheOutcomesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evalio_stats_cache_outcomes_total",
			Help: "Cache hits and misses of the statistics layer.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			evaluationsRecordedTotal,
			validationFailuresTotal,
			statsCacheOutcomesCounter,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// EvaluationsRecorded exposes the counter for persisted evaluations.
func EvaluationsRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsRecordedTotal
}

// ValidationFailures exposes the counter for consistency violations.
func ValidationFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return validationFailuresTotal
}

// StatsCacheOutcomes exposes the counter for statistics cache hits/misses.
func StatsCacheOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return statsCacheOutcomesCounter
}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
