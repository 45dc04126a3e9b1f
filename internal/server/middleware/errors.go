package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/cataloro/cataloro/internal/metrics"
)

// Recovery converts handler panics into structured 500 responses. The
// stack trace goes into the envelope context, never the response body.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}

			metrics.RecordPanic()
			writeErrorResponse(w, panicEnvelope(r, v), http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

// ErrorHandler is an alias for Recovery kept for existing route setups.
func ErrorHandler(next http.Handler) http.Handler {
	return Recovery(next)
}

func panicEnvelope(r *http.Request, v interface{}) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope("INTERNAL_ERROR", fmt.Sprintf("panic: %v", v)).
		WithCorrelationID(GetRequestID(r.Context()))
	envelope, _ = envelope.WithContext(map[string]interface{}{
		"stack_trace": string(debug.Stack()),
	})
	envelope, _ = envelope.WithSeverity(errors.SeverityCritical)
	return envelope
}

// ErrorResponse is the JSON body produced for panics.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// The central responder in internal/errors imports this package, so the
// panic path writes its response inline.
func writeErrorResponse(w http.ResponseWriter, envelope *errors.ErrorEnvelope, statusCode int) {
	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   envelope.Context,
			RequestID: envelope.CorrelationID,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}
