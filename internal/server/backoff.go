package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/dispatch"
	apperrors "github.com/cataloro/cataloro/internal/errors"
	"github.com/cataloro/cataloro/internal/observability"
)

// BackoffListResponse is the payload of GET /admin/backoff.
type BackoffListResponse struct {
	Backoffs []dispatch.BackoffStatus `json:"backoffs"`
	Count    int                      `json:"count"`
}

// BackoffResetResponse is the payload of DELETE /admin/backoff.
type BackoffResetResponse struct {
	Cleared int `json:"cleared"`
}

// handleBackoffList reports the active backoff windows of the shared registry.
func (s *Server) handleBackoffList(w http.ResponseWriter, r *http.Request) {
	statuses := s.dispatcher.Backoffs()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(BackoffListResponse{
		Backoffs: statuses,
		Count:    len(statuses),
	})
}

// handleBackoffReset drops every registry entry, expired ones included.
func (s *Server) handleBackoffReset(w http.ResponseWriter, r *http.Request) {
	cleared := s.dispatcher.Registry().Len()
	s.dispatcher.Reset()

	if logger := observability.ServerLogger; logger != nil {
		logger.Info("Backoff registry reset", zap.Int("cleared", cleared))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(BackoffResetResponse{Cleared: cleared})
}

// requireAdminToken rejects mutating admin calls unless the request carries
// the configured bearer token.
func (s *Server) requireAdminToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			HandleError(w, r, apperrors.NewForbiddenError("Admin endpoints are disabled"))
			return
		}

		token := bearerToken(r)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			HandleError(w, r, apperrors.NewUnauthorizedError("Invalid admin token"))
			return
		}

		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}
