package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry/exporters"

	"github.com/cataloro/cataloro/internal/observability"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// stubScrape pins the proxy client to a canned transport and installs a
// throwaway exporter handle so the handler passes its nil check. Nothing
// touches the network.
func stubScrape(t *testing.T, transport roundTripFunc) {
	t.Helper()

	prevClient := metricsProxyClient
	metricsProxyClient = &http.Client{Transport: transport}
	observability.PrometheusExporter = exporters.NewPrometheusExporter("test", ":9090")

	t.Cleanup(func() {
		metricsProxyClient = prevClient
		observability.PrometheusExporter = nil
	})
}

func textResponse(payload string) *http.Response {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(payload)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "text/plain; version=0.0.4")
	return resp
}

func TestMetricsHandlerProxiesScrapeOutput(t *testing.T) {
	const payload = "# HELP dispatch_requests_total Total dispatched requests\ndispatch_requests_total 1\n"
	stubScrape(t, func(*http.Request) (*http.Response, error) {
		return textResponse(payload), nil
	})

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Fatalf("expected text/plain content type, got %s", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "dispatch_requests_total") {
		t.Fatalf("expected scrape output in body, got: %s", body)
	}
}

func TestMetricsHandlerForwardsAcceptHeader(t *testing.T) {
	var gotAccept string
	stubScrape(t, func(req *http.Request) (*http.Response, error) {
		gotAccept = req.Header.Get("Accept")
		return textResponse("up 1\n"), nil
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept", "application/openmetrics-text")
	rec := httptest.NewRecorder()

	MetricsHandler(rec, req)

	if gotAccept != "application/openmetrics-text" {
		t.Fatalf("expected Accept header forwarded to exporter, got %q", gotAccept)
	}
}

func TestMetricsHandlerWithoutExporter(t *testing.T) {
	observability.PrometheusExporter = nil

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %s", resp.Error.Code)
	}
}
