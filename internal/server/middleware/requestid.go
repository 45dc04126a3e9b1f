package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader is the header used to accept and echo request IDs.
const RequestIDHeader = "X-Request-ID"

type requestIDContextKey string

// RequestIDContextKey is the context key the resolved ID is stored under.
const RequestIDContextKey = requestIDContextKey("request_id")

// RequestID ensures every request carries an ID: chi's generated one,
// the caller's X-Request-ID header, or a fresh UUID, in that order. The
// ID is echoed on the response and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := resolveRequestID(r)
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func resolveRequestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get(RequestIDHeader); id != "" {
		return id
	}
	return uuid.New().String()
}

// GetRequestID returns the request ID from ctx, checking this package's
// key first and chi's second. Empty string when neither is set.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok && id != "" {
		return id
	}
	return middleware.GetReqID(ctx)
}
