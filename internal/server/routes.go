package server

import (
	"net/http"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/observability"
	"github.com/cataloro/cataloro/internal/server/handlers"
)

// registerRoutes wires every HTTP surface the gateway exposes.
func (s *Server) registerRoutes() {
	s.router.Route("/health", func(r chi.Router) {
		r.Get("/", handlers.HealthHandler)
		r.Get("/live", handlers.LivenessHandler)
		r.Get("/ready", handlers.ReadinessHandler)
		r.Get("/startup", handlers.StartupHandler)
	})

	s.router.Get("/version", handlers.VersionHandler)

	// MetricsHandler lives in this package so it can reach HandleError.
	s.router.Get("/metrics", MetricsHandler)

	// Backoff registry: snapshot is open for local diagnostics, reset is
	// admin-token guarded.
	s.router.Get("/admin/backoff", s.handleBackoffList)
	s.router.Delete("/admin/backoff", s.requireAdminToken(s.handleBackoffReset))

	s.registerSignalEndpoint()

	// Everything on the marketplace API surface forwards upstream through
	// the shared dispatcher.
	s.router.Handle("/api/*", http.HandlerFunc(s.proxyHandler))
	s.router.Handle("/users/*", http.HandlerFunc(s.proxyHandler))
}

// registerSignalEndpoint mounts the gofulmen signal endpoint when an admin
// token is configured. The handler enforces bearer auth and its own rate
// limit on top of the shared middleware stack.
func (s *Server) registerSignalEndpoint() {
	logger := observability.ServerLogger

	if s.adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no admin token configured)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.adminToken,
		RateLimit: 10, // per minute
		RateBurst: 5,
		Manager:   nil, // default global manager
	})
	s.router.Post("/admin/signal", handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("auth", "bearer token"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
