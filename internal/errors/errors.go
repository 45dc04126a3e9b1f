// Package errors builds the gofulmen error envelopes this service returns
// over HTTP and logs on the server side. Every envelope carries a stable
// machine code; the code alone decides the HTTP status.
package errors

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/metrics"
	"github.com/cataloro/cataloro/internal/observability"
	"github.com/cataloro/cataloro/internal/server/middleware"
)

// statusByCode is the single source of truth for code → HTTP status. Codes
// not listed here respond 500.
var statusByCode = map[string]int{
	"INVALID_INPUT":        http.StatusBadRequest,
	"VALIDATION_FAILED":    http.StatusBadRequest,
	"NOT_FOUND":            http.StatusNotFound,
	"UNAUTHORIZED":         http.StatusUnauthorized,
	"FORBIDDEN":            http.StatusForbidden,
	"METHOD_NOT_ALLOWED":   http.StatusMethodNotAllowed,
	"RATE_LIMITED":         http.StatusTooManyRequests,
	"UPSTREAM_UNAVAILABLE": http.StatusBadGateway,
	"SERVICE_UNAVAILABLE":  http.StatusServiceUnavailable,
}

func coded(code, message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(code, message)
}

// Caller-side envelopes (4xx).

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return coded("INVALID_INPUT", message)
}

func NewValidationError(message string) *errors.ErrorEnvelope {
	return coded("VALIDATION_FAILED", message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope { return coded("NOT_FOUND", message) }

func NewUnauthorizedError(message string) *errors.ErrorEnvelope {
	return coded("UNAUTHORIZED", message)
}

func NewForbiddenError(message string) *errors.ErrorEnvelope { return coded("FORBIDDEN", message) }

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return coded("METHOD_NOT_ALLOWED", message)
}

// NewRateLimitedError reports an endpoint sitting inside a backoff window.
// retryAfterSeconds feeds the Retry-After header on the 429 response.
func NewRateLimitedError(message string, retryAfterSeconds int) *errors.ErrorEnvelope {
	envelope := coded("RATE_LIMITED", message)
	if retryAfterSeconds > 0 {
		envelope = envelope.WithDetails(map[string]interface{}{
			"retry_after_seconds": retryAfterSeconds,
		})
	}
	return envelope
}

// Service-side envelopes (5xx).

func NewInternalError(message string) *errors.ErrorEnvelope { return coded("INTERNAL_ERROR", message) }

func NewDatabaseError(message string) *errors.ErrorEnvelope { return coded("DATABASE_ERROR", message) }

func NewUpstreamUnavailableError(message string) *errors.ErrorEnvelope {
	return coded("UPSTREAM_UNAVAILABLE", message)
}

func NewServiceUnavailableError(message string) *errors.ErrorEnvelope {
	return coded("SERVICE_UNAVAILABLE", message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return coded("CONFIG_INVALID", message)
}

// Wrap helpers attach the underlying error plus correlation and trace IDs
// pulled from the request context. They are the standard way to cross from
// an internal error into the envelope world.

func WrapValidationError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, "VALIDATION_FAILED", err, message)
}

func WrapUnauthorized(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, "UNAUTHORIZED", err, message)
}

func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, "INTERNAL_ERROR", err, message)
}

func WrapDatabaseError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, "DATABASE_ERROR", err, message)
}

func WrapUpstreamUnavailable(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, "UPSTREAM_UNAVAILABLE", err, message)
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, "CONFIG_INVALID", err, message)
}

func wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	id := correlationID(ctx)
	envelope := coded(code, message).
		WithCorrelationID(id).
		WithTraceID(id) // no tracer wired; correlation ID doubles as trace ID
	return withWrappedError(envelope, err)
}

// correlationID prefers the request ID already riding the context; requests
// that never passed through the middleware get a fresh UUID.
func correlationID(ctx context.Context) string {
	if ctx != nil {
		if requestID := middleware.GetRequestID(ctx); requestID != "" {
			return requestID
		}
	}
	return uuid.New().String()
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope. Foreign
// errors come back as INTERNAL_ERROR with the original text in context.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if envelope, ok := err.(*errors.ErrorEnvelope); ok && envelope != nil {
		return envelope
	}

	if err == nil {
		env := coded("INTERNAL_ERROR", "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	env := withWrappedError(coded("INTERNAL_ERROR", "unexpected error"), err)
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return env
}

// EnsureCorrelationID backfills a correlation ID on envelopes that were
// constructed away from a request context.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil || envelope.CorrelationID != "" {
		return envelope
	}

	id := ""
	if ctx != nil {
		id = middleware.GetRequestID(ctx)
	}
	if id == "" {
		id = "fallback-" + errors.GenerateCorrelationID()
	}
	return envelope.WithCorrelationID(id)
}

// HTTPStatusFromEnvelope resolves the response status for an envelope.
func HTTPStatusFromEnvelope(envelope *errors.ErrorEnvelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	return HTTPStatusFromCode(envelope.Code)
}

// HTTPStatusFromCode resolves the response status for a bare error code.
func HTTPStatusFromCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func withWrappedError(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}
	updated, updateErr := envelope.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	if updateErr != nil {
		return envelope
	}
	return updated
}

// ResponseDetails merges envelope details and context into the caller-facing
// details map. Details win on key collisions; an empty merge returns nil so
// the JSON field is omitted.
func ResponseDetails(envelope *errors.ErrorEnvelope) map[string]interface{} {
	if envelope == nil {
		return nil
	}

	merged := make(map[string]interface{}, len(envelope.Details)+len(envelope.Context))
	for key, value := range envelope.Context {
		merged[key] = value
	}
	for key, value := range envelope.Details {
		merged[key] = value
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// HTTPErrorDetail is the error body returned to callers.
type HTTPErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HTTPErrorResponse wraps HTTPErrorDetail in the standard envelope structure.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithError normalizes the supplied error and writes a JSON response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	RespondWithEnvelope(w, r, EnsureEnvelope(err))
}

// RespondWithEnvelope writes the envelope as JSON, logging it and counting it
// in metrics on the way out. 429 responses additionally carry Retry-After
// when the envelope knows the remaining wait.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *errors.ErrorEnvelope) {
	if w == nil {
		return
	}

	var ctx context.Context
	if r != nil {
		ctx = r.Context()
	}
	envelope = EnsureCorrelationID(envelope, ctx)

	statusCode := HTTPStatusFromEnvelope(envelope)
	logHTTPError(envelope, statusCode)
	emitErrorMetrics(r, envelope, statusCode)

	w.Header().Set("Content-Type", "application/json")
	if statusCode == http.StatusTooManyRequests {
		if seconds := retryAfterSeconds(envelope); seconds > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
	}
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error: HTTPErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   ResponseDetails(envelope),
			RequestID: envelope.CorrelationID,
		},
	})
}

// retryAfterSeconds pulls the advisory wait out of a RATE_LIMITED envelope.
// Details decoded from JSON arrive as float64, so all numeric shapes count.
func retryAfterSeconds(envelope *errors.ErrorEnvelope) int {
	if envelope == nil {
		return 0
	}
	switch v := envelope.Details["retry_after_seconds"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// logHTTPError mirrors the envelope into the server log. Severity picks the
// level; envelope context rides along as fields.
func logHTTPError(envelope *errors.ErrorEnvelope, statusCode int) {
	if observability.ServerLogger == nil || envelope == nil {
		return
	}

	log := observability.ServerLogger.Info
	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		log = observability.ServerLogger.Error
	case errors.SeverityMedium:
		log = observability.ServerLogger.Warn
	}
	log(envelope.Message, errorLogFields(envelope, statusCode)...)
}

func errorLogFields(envelope *errors.ErrorEnvelope, statusCode int) []zap.Field {
	fields := make([]zap.Field, 0, 4+len(envelope.Context))
	fields = append(fields,
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode))
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}
	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", envelope.CorrelationID))
	}
	return fields
}

func emitErrorMetrics(r *http.Request, envelope *errors.ErrorEnvelope, statusCode int) {
	if envelope == nil {
		return
	}
	metrics.RecordError(envelope.Code, statusCode)
	if r != nil {
		metrics.RecordErrorByEndpoint(r.URL.Path, envelope.Code)
	}
}
