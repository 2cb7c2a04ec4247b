package transport

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCollector_NilReceiverIsSafe(t *testing.T) {
	var mc *MetricsCollector

	// Must not panic; callers treat metrics as optional.
	mc.RecordRequest("jira", "GET", 200, time.Millisecond)
	mc.RecordRetry("jira", "GET")
	mc.RecordCacheHit("jira")
	mc.RecordCacheMiss("confluence")
	mc.RecordCacheSize("jira", 3)
	mc.RecordRateLimitWait("jira", time.Millisecond)
	mc.RecordError("jira", ErrorTypeServer)
}

func TestMetricsCollector_CountsRequests(t *testing.T) {
	registry := prometheus.NewRegistry()
	mc := NewMetricsCollectorWithRegistry(registry)

	mc.RecordRequest("jira", "GET", 200, 15*time.Millisecond)
	mc.RecordRequest("jira", "GET", 200, 5*time.Millisecond)
	mc.RecordRequest("confluence", "GET", 404, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(mc.requestsTotal.WithLabelValues("jira", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(mc.requestsTotal.WithLabelValues("confluence", "GET", "404")))
}

func TestMetricsCollector_CountsCacheActivity(t *testing.T) {
	registry := prometheus.NewRegistry()
	mc := NewMetricsCollectorWithRegistry(registry)

	mc.RecordCacheHit("jira")
	mc.RecordCacheHit("jira")
	mc.RecordCacheMiss("jira")

	assert.Equal(t, float64(2), testutil.ToFloat64(mc.cacheHits.WithLabelValues("jira")))
	assert.Equal(t, float64(1), testutil.ToFloat64(mc.cacheMisses.WithLabelValues("jira")))
}
