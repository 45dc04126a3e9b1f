package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/cataloro/cataloro/internal/errors"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()

	if opts.Upstream == "" {
		opts.Upstream = "http://127.0.0.1:8001"
	}

	srv, err := New(opts)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

func TestNewRequiresHTTPUpstream(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error for missing upstream")
	}

	if _, err := New(Options{Upstream: "ftp://marketplace.example"}); err == nil {
		t.Fatal("expected error for non-http upstream scheme")
	}
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newTestServer(t, Options{Host: "127.0.0.1"})

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected error code NOT_FOUND, got %s", body.Error.Code)
	}
}

func TestServerRejectsUnknownMethods(t *testing.T) {
	srv := newTestServer(t, Options{Host: "127.0.0.1"})

	req := httptest.NewRequest(http.MethodPost, "/version", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "METHOD_NOT_ALLOWED" {
		t.Fatalf("expected error code METHOD_NOT_ALLOWED, got %s", body.Error.Code)
	}
}
