package metrics

import (
	"strconv"
	"time"

	"github.com/cataloro/cataloro/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Dispatch metrics
	DispatchRequestsTotal  = "dispatch_requests_total"
	DispatchRetriesTotal   = "dispatch_retries_total"
	DispatchSkipsTotal     = "dispatch_backoff_skips_total"
	DispatchExhaustedTotal = "dispatch_exhausted_total"

	// Response cache metrics
	CacheHitsTotal   = "cache_hits_total"
	CacheMissesTotal = "cache_misses_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// The emitters below no-op until InitMetrics has run, so library code can
// record unconditionally.

func count(name string, labels map[string]string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(name, 1, labels)
}

func gauge(name string, value float64, labels map[string]string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Gauge(name, value, labels)
}

func observe(name string, value time.Duration, labels map[string]string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Histogram(name, value, labels)
}

// RecordDispatchRequest records a completed upstream round trip by endpoint
// key and response status.
func RecordDispatchRequest(endpoint string, statusCode int) {
	count(DispatchRequestsTotal, map[string]string{
		"endpoint": endpoint,
		"status":   strconv.Itoa(statusCode),
	})
}

// RecordDispatchRetry records one 429-triggered retry wait.
func RecordDispatchRetry(endpoint string) {
	count(DispatchRetriesTotal, map[string]string{"endpoint": endpoint})
}

// RecordBackoffSkip records a request refused locally because the endpoint's
// backoff window was still open.
func RecordBackoffSkip(endpoint string) {
	count(DispatchSkipsTotal, map[string]string{"endpoint": endpoint})
}

// RecordDispatchExhausted records a call that gave up after the retry budget.
func RecordDispatchExhausted(endpoint string) {
	count(DispatchExhaustedTotal, map[string]string{"endpoint": endpoint})
}

// RecordCacheLookup records a response cache hit or miss.
func RecordCacheLookup(endpoint string, hit bool) {
	name := CacheMissesTotal
	if hit {
		name = CacheHitsTotal
	}
	count(name, map[string]string{"endpoint": endpoint})
}

// RecordHealthCheck records one health check execution and its duration.
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	count(HealthCheckTotal, map[string]string{
		"check":  checkName,
		"status": status,
	})
	observe(HealthCheckDuration, duration, map[string]string{"check": checkName})
}

// SetServerStartTime records the server start time as a Unix timestamp.
func SetServerStartTime(timestamp int64) {
	gauge(ServerStartTime, float64(timestamp), nil)
}

// SetServerUptime records the server uptime in seconds.
func SetServerUptime(seconds int64) {
	gauge(ServerUptime, float64(seconds), nil)
}
