package orbix

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector exports Prometheus metrics for the request lifecycle:
// outcomes, latency, retries, rate-limit rejections and cache
// effectiveness. Safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal     *prometheus.CounterVec
	rateLimitedTotal *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   prometheus.Gauge

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbix_requests_total",
				Help: "Total number of orchestrated requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orbix_request_duration_seconds",
				Help:    "Duration of orchestrated requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orbix_requests_in_flight",
				Help: "Number of requests currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbix_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method", "endpoint"},
		),
		rateLimitedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbix_rate_limited_total",
				Help: "Calls rejected by the local rate limiter",
			},
			[]string{"group"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbix_cache_hits_total",
				Help: "Cache hits by endpoint",
			},
			[]string{"endpoint"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbix_cache_misses_total",
				Help: "Cache misses by endpoint",
			},
			[]string{"endpoint"},
		),
		cacheSize: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "orbix_cache_entries",
				Help: "Number of entries currently cached",
			},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "orbix_errors_total",
				Help: "Errors by kind and endpoint",
			},
			[]string{"kind", "endpoint"},
		),
	}
}

// RecordRequestStart marks a request as in flight.
func (mc *MetricsCollector) RecordRequestStart(method, endpoint string) {
	mc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd marks a request as no longer in flight.
func (mc *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	mc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordRequest records a completed request with its status and duration.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	code := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, endpoint, code).Inc()
	mc.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt.
func (mc *MetricsCollector) RecordRetry(method, endpoint string) {
	mc.retriesTotal.WithLabelValues(method, endpoint).Inc()
}

// RecordRateLimited records a local rate-limit rejection for a group.
func (mc *MetricsCollector) RecordRateLimited(group string) {
	mc.rateLimitedTotal.WithLabelValues(group).Inc()
}

// RecordCacheHit records a cache hit for an endpoint.
func (mc *MetricsCollector) RecordCacheHit(endpoint string) {
	mc.cacheHits.WithLabelValues(endpoint).Inc()
}

// RecordCacheMiss records a cache miss for an endpoint.
func (mc *MetricsCollector) RecordCacheMiss(endpoint string) {
	mc.cacheMisses.WithLabelValues(endpoint).Inc()
}

// RecordCacheSize updates the cached-entries gauge.
func (mc *MetricsCollector) RecordCacheSize(n int) {
	mc.cacheSize.Set(float64(n))
}

// RecordError records a classified error for an endpoint.
func (mc *MetricsCollector) RecordError(kind, endpoint string) {
	mc.errorsTotal.WithLabelValues(kind, endpoint).Inc()
}
