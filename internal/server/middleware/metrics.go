package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/observability"
)

// statusRecorder captures the status code and body size a handler writes
// so both can be attached to metrics after the handler returns.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(p []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(p)
	sr.written += int64(n)
	return n, err
}

// Proxied path families collapse into one endpoint label each. Raw paths
// embed listing and user IDs, which would make every series unique.
var endpointFamilies = []struct {
	prefix string
	label  string
}{
	{"/health", "/health/*"},
	{"/admin/", "/admin/*"},
	{"/api/", "/api/*"},
	{"/users/", "/users/*"},
}

// endpointLabel resolves the endpoint label for a request, preferring the
// chi route pattern. Requests that never reached the router fall back to
// a coarse path-family match.
func endpointLabel(r *http.Request) string {
	if pattern := chi.RouteContext(r.Context()).RoutePattern(); pattern != "" {
		return pattern
	}

	switch path := r.URL.Path; path {
	case "/", "/version", "/metrics":
		return path
	default:
		for _, fam := range endpointFamilies {
			if strings.HasPrefix(path, fam.prefix) {
				return fam.label
			}
		}
	}
	return "/unknown"
}

// RequestMetrics records a counter and duration histogram per request,
// request and response size gauges, and an error counter for non-2xx
// responses. Requests pass straight through when telemetry is off.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tel := observability.TelemetrySystem
		if tel == nil {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		reqBytes := int64(0)
		if r.ContentLength > 0 {
			reqBytes = r.ContentLength
		}

		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		endpoint := endpointLabel(r)
		status := strconv.Itoa(rec.status)
		series := map[string]string{"method": r.Method, "endpoint": endpoint, "status": status}
		sizes := map[string]string{"method": r.Method, "endpoint": endpoint}

		_ = tel.Counter("http_requests_total", 1, series)
		_ = tel.Histogram("http_request_duration_ms", elapsed, series)
		_ = tel.Gauge("http_request_size_bytes", float64(reqBytes), sizes)
		_ = tel.Gauge("http_response_size_bytes", float64(rec.written), sizes)

		if rec.status >= 400 {
			errorType := "client_error"
			if rec.status >= 500 {
				errorType = "server_error"
			}
			_ = tel.Counter("http_errors_total", 1, map[string]string{
				"method":     r.Method,
				"endpoint":   endpoint,
				"status":     status,
				"error_type": errorType,
			})
		}

		logRequest(r, rec, endpoint, elapsed, reqBytes)
	})
}

// The request ID stays in logs only; as a metric label it would defeat
// the cardinality cap the endpoint label exists for.
func logRequest(r *http.Request, rec *statusRecorder, endpoint string, elapsed time.Duration, reqBytes int64) {
	if observability.ServerLogger == nil {
		return
	}
	observability.ServerLogger.Info("HTTP request completed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("endpoint", endpoint),
		zap.Int("status", rec.status),
		zap.Duration("duration", elapsed),
		zap.Int64("request_size", reqBytes),
		zap.Int64("response_size", rec.written),
		zap.String("requestID", GetRequestID(r.Context())),
	)
}
