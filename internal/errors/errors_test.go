package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cataloro/cataloro/internal/dispatch"
)

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[string]int{
		"VALIDATION_FAILED":    http.StatusBadRequest,
		"NOT_FOUND":            http.StatusNotFound,
		"UNAUTHORIZED":         http.StatusUnauthorized,
		"RATE_LIMITED":         http.StatusTooManyRequests,
		"UPSTREAM_UNAVAILABLE": http.StatusBadGateway,
		"SERVICE_UNAVAILABLE":  http.StatusServiceUnavailable,
		"NO_SUCH_CODE":         http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, HTTPStatusFromCode(code), code)
	}
}

func TestEnsureEnvelopePassesEnvelopesThrough(t *testing.T) {
	original := NewNotFoundError("listing not found")
	require.Same(t, original, EnsureEnvelope(original))
}

func TestEnsureEnvelopeWrapsForeignErrors(t *testing.T) {
	envelope := EnsureEnvelope(fmt.Errorf("connection reset"))
	require.Equal(t, "INTERNAL_ERROR", envelope.Code)
	require.Equal(t, "connection reset", envelope.Context["wrapped_error"])
}

func TestResponseDetailsMergePrefersDetails(t *testing.T) {
	envelope := NewRateLimitedError("backing off", 30)
	envelope, err := envelope.WithContext(map[string]interface{}{
		"retry_after_seconds": 999,
		"endpoint":            "/api/user/u1/favorites",
	})
	require.NoError(t, err)

	merged := ResponseDetails(envelope)
	require.Equal(t, 30, merged["retry_after_seconds"], "details value wins over context")
	require.Equal(t, "/api/user/u1/favorites", merged["endpoint"])

	require.Nil(t, ResponseDetails(NewNotFoundError("nothing attached")))
}

func TestRespondWithEnvelopeSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user/u1/messages", nil)

	RespondWithEnvelope(rec, req, NewRateLimitedError("endpoint is backing off", 60))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))

	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "RATE_LIMITED", payload.Error.Code)
	require.NotEmpty(t, payload.Error.RequestID)
}

func TestRespondWithEnvelopeOmitsRetryAfterOffPath(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/listings/9", nil)

	RespondWithError(rec, req, NewNotFoundError("listing not found"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, rec.Header().Get("Retry-After"))
}

func TestFromDispatchErrorBackoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := &dispatch.BackoffError{
		Key:   "http://localhost:8001/users/search",
		Until: now.Add(90*time.Second + 500*time.Millisecond),
	}

	envelope := FromDispatchError(context.Background(), err, now)
	require.Equal(t, "RATE_LIMITED", envelope.Code)
	require.Equal(t, "http://localhost:8001/users/search", envelope.Details["endpoint"])
	require.Equal(t, 91, envelope.Details["retry_after_seconds"], "partial seconds round up")
	require.NotContains(t, envelope.Details, "attempts")
}

func TestFromDispatchErrorExhausted(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := &dispatch.RetriesExhaustedError{
		Key:      "http://localhost:8001/api/user/u1/favorites",
		Attempts: 4,
		Until:    now.Add(240 * time.Second),
	}

	envelope := FromDispatchError(context.Background(), err, now)
	require.Equal(t, "RATE_LIMITED", envelope.Code)
	require.Equal(t, 240, envelope.Details["retry_after_seconds"])
	require.Equal(t, 4, envelope.Details["attempts"])
}

func TestFromDispatchErrorTransport(t *testing.T) {
	envelope := FromDispatchError(context.Background(), fmt.Errorf("dial tcp: connection refused"), time.Now())
	require.Equal(t, "UPSTREAM_UNAVAILABLE", envelope.Code)
	require.Equal(t, http.StatusBadGateway, HTTPStatusFromEnvelope(envelope))
}
