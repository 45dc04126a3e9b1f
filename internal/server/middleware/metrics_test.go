package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cataloro/cataloro/internal/observability"
)

// fakeTelemetry swaps the process telemetry system for an in-memory
// collector for the duration of one test.
func fakeTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	prev := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = prev })

	return collector
}

func statusHandler(code int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		if body != "" {
			_, _ = w.Write([]byte(body))
		}
	})
}

func serveThrough(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	RequestMetrics(handler).ServeHTTP(rec, req)
	return rec
}

func TestRequestMetricsCoreSeries(t *testing.T) {
	collector := fakeTelemetry(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"l-99"}`))
	})

	body := strings.NewReader(`{"title":"Vinyl crate","price":40}`)
	rec := serveThrough(handler, httptest.NewRequest(http.MethodPost, "/api/listings", body))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"id":"l-99"}`, rec.Body.String())

	for _, name := range []string{
		"http_requests_total",
		"http_request_duration_ms",
		"http_request_size_bytes",
		"http_response_size_bytes",
	} {
		assert.Greater(t, collector.CountMetricsByName(name), 0, "expected %s to be emitted", name)
	}
}

func TestRequestMetricsErrorCounter(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusBadGateway} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			collector := fakeTelemetry(t)

			serveThrough(statusHandler(code, ""), httptest.NewRequest(http.MethodGet, "/api/listings/l-1", nil))

			assert.Greater(t, collector.CountMetricsByName("http_requests_total"), 0)
			assert.Greater(t, collector.CountMetricsByName("http_errors_total"), 0,
				"expected http_errors_total for status %d", code)
		})
	}
}

func TestRequestMetricsNoErrorCounterOnSuccess(t *testing.T) {
	collector := fakeTelemetry(t)

	serveThrough(statusHandler(http.StatusOK, "ok"), httptest.NewRequest(http.MethodGet, "/users/search", nil))

	assert.Greater(t, collector.CountMetricsByName("http_requests_total"), 0)
	assert.Zero(t, collector.CountMetricsByName("http_errors_total"),
		"2xx responses must not bump the error counter")
}

func TestRequestMetricsTelemetryOff(t *testing.T) {
	prev := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = prev })

	rec := serveThrough(statusHandler(http.StatusOK, "ok"), httptest.NewRequest(http.MethodGet, "/api/marketplace/browse", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRequestMetricsPreservesRequestID(t *testing.T) {
	collector := fakeTelemetry(t)

	chain := RequestID(RequestMetrics(statusHandler(http.StatusOK, "")))

	req := httptest.NewRequest(http.MethodGet, "/api/marketplace/browse", nil)
	req.Header.Set("X-Request-ID", "req-metrics-1")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	assert.Equal(t, "req-metrics-1", rec.Header().Get("X-Request-ID"))
	assert.Greater(t, collector.CountMetricsByName("http_requests_total"), 0)
}

func TestEndpointLabelPathFamilies(t *testing.T) {
	cases := map[string]string{
		"/health":                 "/health/*",
		"/health/live":            "/health/*",
		"/health/ready":           "/health/*",
		"/version":                "/version",
		"/metrics":                "/metrics",
		"/admin/backoff":          "/admin/*",
		"/api/marketplace/browse": "/api/*",
		"/api/user/u1/favorites":  "/api/*",
		"/users/search":           "/users/*",
		"/":                       "/",
		"/favicon.ico":            "/unknown",
	}

	for path, want := range cases {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			assert.Equal(t, want, endpointLabel(req))
		})
	}
}
