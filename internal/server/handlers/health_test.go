package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	err error
}

func (s stubChecker) CheckHealth(ctx context.Context) error {
	return s.err
}

// serveGet runs one GET through the given handler.
func serveGet(handler http.HandlerFunc, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// healthError mirrors the envelope shape written on probe failures.
type healthError struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHealthHandlerReturnsHealthyStatus(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("upstream", stubChecker{})

	rec := serveGet(manager.HealthHandler, "/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp HealthResponse
	decodeJSON(t, rec, &resp)

	if resp.Status != "healthy" {
		t.Fatalf("expected healthy status, got %s", resp.Status)
	}
	if resp.Version != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %s", resp.Version)
	}
	if resp.Checks["upstream"] != "healthy" {
		t.Fatalf("expected upstream check to be healthy, got %s", resp.Checks["upstream"])
	}
}

func TestHealthHandlerReturnsServiceUnavailableWhenUnhealthy(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("store", stubChecker{err: errors.New("down")})

	rec := serveGet(manager.HealthHandler, "/health")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}

	var resp healthError
	decodeJSON(t, rec, &resp)

	if resp.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Fatalf("expected SERVICE_UNAVAILABLE error code, got %s", resp.Error.Code)
	}

	checks, ok := resp.Error.Details["checks"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected checks in error details, got %v", resp.Error.Details)
	}
	if status, _ := checks["store"].(string); status != "unhealthy" {
		t.Fatalf("expected store check to be unhealthy, got %v", checks["store"])
	}
}

func TestReadinessHandlerReportsProbeName(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("upstream", CheckerFunc(func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	rec := serveGet(manager.ReadinessHandler, "/health/ready")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}

	var resp healthError
	decodeJSON(t, rec, &resp)

	if resp.Error.Message != "ready probe failed" {
		t.Fatalf("expected ready probe message, got %s", resp.Error.Message)
	}
	if probe, _ := resp.Error.Details["probe"].(string); probe != "ready" {
		t.Fatalf("expected probe detail ready, got %v", resp.Error.Details["probe"])
	}
}

func TestProbeHandlerReturnsOKWhenHealthy(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("upstream", CheckerFunc(func(ctx context.Context) error {
		return nil
	}))

	rec := serveGet(manager.LivenessHandler, "/health/live")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp ProbeResponse
	decodeJSON(t, rec, &resp)

	if resp.Status != "healthy" {
		t.Fatalf("expected healthy status, got %s", resp.Status)
	}
}

func TestAggregateStatusTreatsTimeoutAsDegraded(t *testing.T) {
	manager := NewHealthManager("dev")

	status := manager.aggregateStatus(map[string]string{
		"store": "timeout",
	})

	if status != "degraded" {
		t.Fatalf("expected degraded status, got %s", status)
	}
}

func TestAggregateStatusUnhealthyWinsOverDegraded(t *testing.T) {
	manager := NewHealthManager("dev")

	status := manager.aggregateStatus(map[string]string{
		"store":    "timeout",
		"upstream": "unhealthy",
	})

	if status != "unhealthy" {
		t.Fatalf("expected unhealthy status, got %s", status)
	}
}
