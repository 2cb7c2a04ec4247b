package transport

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request lifecycle.
// It is safe for concurrent use. A nil collector is valid and records nothing.
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	retriesTotal *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec

	rateLimitWait *prometheus.HistogramVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer. Tests pass a private registry to avoid cross-test collisions.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlasmcp_requests_total",
				Help: "Total number of API requests made",
			},
			[]string{"service", "method", "status_code"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "atlasmcp_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlasmcp_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"service", "method"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlasmcp_cache_hits_total",
				Help: "Total number of response cache hits",
			},
			[]string{"service"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlasmcp_cache_misses_total",
				Help: "Total number of response cache misses",
			},
			[]string{"service"},
		),
		cacheSize: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "atlasmcp_cache_size",
				Help: "Current number of entries in the response cache",
			},
			[]string{"service"},
		),
		rateLimitWait: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "atlasmcp_rate_limit_wait_seconds",
				Help:    "Time spent waiting on the request pacer",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlasmcp_errors_total",
				Help: "Total number of classified request errors",
			},
			[]string{"service", "type"},
		),
	}
}

// RecordRequest records a completed request with its final status.
func (mc *MetricsCollector) RecordRequest(service, method string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.requestsTotal.WithLabelValues(service, method, strconv.Itoa(statusCode)).Inc()
	mc.requestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt.
func (mc *MetricsCollector) RecordRetry(service, method string) {
	if mc == nil {
		return
	}
	mc.retriesTotal.WithLabelValues(service, method).Inc()
}

// RecordCacheHit records a response cache hit.
func (mc *MetricsCollector) RecordCacheHit(service string) {
	if mc == nil {
		return
	}
	mc.cacheHits.WithLabelValues(service).Inc()
}

// RecordCacheMiss records a response cache miss.
func (mc *MetricsCollector) RecordCacheMiss(service string) {
	if mc == nil {
		return
	}
	mc.cacheMisses.WithLabelValues(service).Inc()
}

// RecordCacheSize records the current cache entry count.
func (mc *MetricsCollector) RecordCacheSize(service string, size int) {
	if mc == nil {
		return
	}
	mc.cacheSize.WithLabelValues(service).Set(float64(size))
}

// RecordRateLimitWait records time spent waiting on the pacer.
func (mc *MetricsCollector) RecordRateLimitWait(service string, waited time.Duration) {
	if mc == nil {
		return
	}
	mc.rateLimitWait.WithLabelValues(service).Observe(waited.Seconds())
}

// RecordError records a classified error by type.
func (mc *MetricsCollector) RecordError(service string, errType ErrorType) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(service, string(errType)).Inc()
}
