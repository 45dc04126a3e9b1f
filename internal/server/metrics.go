package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/observability"
)

var metricsProxyClient = &http.Client{Timeout: 5 * time.Second}

// scrapeTarget resolves the local exporter address. The exporter may have
// bound a random port, so the discovered port wins over configuration.
func scrapeTarget() string {
	port := observability.GetMetricsPort()
	if port == 0 {
		port = viper.GetInt("metrics.port")
	}
	if port == 0 {
		port = 9090
	}
	return fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
}

// MetricsHandler re-serves the internal Prometheus exporter on the main
// listener so one scrape endpoint covers the whole process.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if observability.PrometheusExporter == nil {
		HandleError(w, r, errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "Metrics exporter not initialized"))
		return
	}

	target := scrapeTarget()
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		HandleError(w, r, metricsProxyError("INTERNAL_ERROR", "Unable to construct metrics request", target, err))
		return
	}

	// Preserve the caller's content negotiation hint.
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := metricsProxyClient.Do(req)
	if err != nil {
		HandleError(w, r, metricsProxyError("UPSTREAM_UNAVAILABLE", "Prometheus exporter unavailable", target, err))
		return
	}
	defer closeMetricsBody(resp.Body)

	copyProxyHeaders(w.Header(), resp.Header)
	if resp.Header.Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil && observability.ServerLogger != nil {
		observability.ServerLogger.Warn("Failed to write metrics response", zap.Error(err))
	}
}

func metricsProxyError(code, message, target string, err error) error {
	envelope, _ := errors.NewErrorEnvelope(code, message).
		WithContext(map[string]interface{}{
			"metrics_url":    target,
			"original_error": err.Error(),
		})
	return envelope
}

func closeMetricsBody(body io.ReadCloser) {
	if err := body.Close(); err != nil && observability.ServerLogger != nil {
		observability.ServerLogger.Warn("Failed to close metrics response body", zap.Error(err))
	}
}
