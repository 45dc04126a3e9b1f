package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/dispatch"
	apperrors "github.com/cataloro/cataloro/internal/errors"
	"github.com/cataloro/cataloro/internal/metrics"
	"github.com/cataloro/cataloro/internal/observability"
	"github.com/cataloro/cataloro/internal/server/handlers"
	servermw "github.com/cataloro/cataloro/internal/server/middleware"
)

// Options configures the local proxy server.
type Options struct {
	Host string
	Port int

	// Upstream is the marketplace API root. Every /api/* and /users/*
	// request is forwarded there.
	Upstream string

	// Token is attached as a bearer credential to forwarded requests that
	// do not carry their own Authorization header.
	Token string

	// AdminToken guards the signal endpoint and the backoff reset. Empty
	// leaves the mutating admin surface disabled.
	AdminToken string

	// Dispatcher is shared with the rest of the process so the proxy and
	// the CLI see one backoff registry. Nil gets a private dispatcher.
	Dispatcher *dispatch.Dispatcher

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server is the localhost gateway in front of the marketplace API.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	host       string
	port       int
	upstream   *url.URL
	token      string
	adminToken string
	dispatcher *dispatch.Dispatcher

	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// New creates the gateway. The upstream URL is required; everything else has
// a working default.
func New(opts Options) (*Server, error) {
	rawUpstream := strings.TrimSpace(opts.Upstream)
	if rawUpstream == "" {
		return nil, fmt.Errorf("upstream URL is required")
	}
	upstream, err := url.Parse(rawUpstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream URL: %w", err)
	}
	if upstream.Scheme != "http" && upstream.Scheme != "https" {
		return nil, fmt.Errorf("upstream URL %q must use http or https", rawUpstream)
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = dispatch.New()
	}

	r := chi.NewRouter()

	// Standard chi middleware
	r.Use(middleware.RealIP)

	// Our custom middleware in correct order (RequestID → Metrics → Logging → Recovery)
	r.Use(servermw.RequestID)      // 1. Request ID (early for correlation)
	r.Use(servermw.RequestMetrics) // 2. Metrics (measure everything)
	r.Use(servermw.ErrorHandler)   // 3. Error handling (after metrics)
	r.Use(servermw.Recovery)       // 4. Panic recovery (outermost)

	// Standardized error responses using centralized HandleError
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		err := apperrors.NewNotFoundError("The requested resource was not found")
		HandleError(w, req, err)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		err := apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource")
		HandleError(w, req, err)
	})

	s := &Server{
		router:       r,
		host:         opts.Host,
		port:         opts.Port,
		upstream:     upstream,
		token:        strings.TrimSpace(opts.Token),
		adminToken:   strings.TrimSpace(opts.AdminToken),
		dispatcher:   dispatcher,
		readTimeout:  opts.ReadTimeout,
		writeTimeout: opts.WriteTimeout,
		idleTimeout:  opts.IdleTimeout,
		done:         make(chan struct{}),
	}
	if s.readTimeout <= 0 {
		s.readTimeout = 30 * time.Second
	}
	if s.writeTimeout <= 0 {
		s.writeTimeout = 30 * time.Second
	}
	if s.idleTimeout <= 0 {
		s.idleTimeout = 120 * time.Second
	}

	// Ensure handlers use the centralized error responder
	handlers.SetHTTPErrorResponder(HandleError)

	s.registerRoutes()

	return s, nil
}

// Start listens and serves until Shutdown or a listener error. A port of 0
// picks a free port; Port reports the resolved one.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  s.idleTimeout,
	}

	if logger := observability.ServerLogger; logger != nil {
		logger.Info("Starting HTTP server",
			zap.String("host", s.host),
			zap.Int("port", s.port),
			zap.String("upstream", s.upstream.String()))
	}

	started := time.Now()
	metrics.SetServerStartTime(started.Unix())
	go s.trackUptime(started)

	return s.server.Serve(listener)
}

// trackUptime refreshes the uptime gauge until Shutdown closes the server.
func (s *Server) trackUptime(started time.Time) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			metrics.SetServerUptime(int64(time.Since(started).Seconds()))
		}
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })
	if s.server == nil {
		return nil
	}
	if logger := observability.ServerLogger; logger != nil {
		logger.Info("Shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port. After Start it is the bound port even when
// the configured port was 0.
func (s *Server) Port() int {
	return s.port
}
