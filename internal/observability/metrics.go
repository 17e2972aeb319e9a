// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Calculation outcome labels.
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusNoData   = "no_data"
	StatusError    = "error"
)

// Cache result labels.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Valuation metrics
	CalculationsTotal   *prometheus.CounterVec
	CalculationDuration prometheus.Histogram
	BucketsGenerated    prometheus.Counter
	BucketsValued       prometheus.Counter

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "fund_valuation"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CalculationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "valuation",
			Name:      "calculations_total",
			Help:      "Total number of fund performance calculations by status",
		}, []string{"status"}),
		CalculationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "valuation",
			Name:      "calculation_duration_seconds",
			Help:      "Fund performance calculation duration in seconds, including fetches",
			Buckets:   prometheus.DefBuckets,
		}),
		BucketsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "valuation",
			Name:      "buckets_generated_total",
			Help:      "Total number of hourly buckets generated",
		}),
		BucketsValued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "valuation",
			Name:      "buckets_valued_total",
			Help:      "Total number of buckets that received a value",
		}),

		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Total number of performance cache lookups by result",
		}, []string{"result"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordCalculation records one performance calculation.
func RecordCalculation(status string, seconds float64, buckets, values int) {
	DefaultMetrics.CalculationsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CalculationDuration.Observe(seconds)
	DefaultMetrics.BucketsGenerated.Add(float64(buckets))
	DefaultMetrics.BucketsValued.Add(float64(values))
}

// RecordCacheResult records a cache lookup outcome.
func RecordCacheResult(result string) {
	DefaultMetrics.CacheRequests.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(route string, code int, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
