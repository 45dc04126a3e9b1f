package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/appid"
	"github.com/cataloro/cataloro/internal/config"
	"github.com/cataloro/cataloro/internal/core/store"
	errwrap "github.com/cataloro/cataloro/internal/errors"
	"github.com/cataloro/cataloro/internal/market"
	"github.com/cataloro/cataloro/internal/observability"
	"github.com/cataloro/cataloro/internal/server"
	"github.com/cataloro/cataloro/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local marketplace gateway",
	Long: `Start the localhost gateway in front of the marketplace API.

Every /api/* and /users/* request is forwarded upstream through one shared
dispatcher, so rate-limit backoff windows apply across all proxied calls.
Forwarded requests without their own Authorization header get the stored
login token.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

The server cleanly shuts down the HTTP listener, closes the credential
store, and flushes logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		identity := GetAppIdentity()
		observability.InitServerLogger(identity.BinaryName, viper.GetString("logging.level"), identity.TelemetryNamespace)

		cfg, err := config.Load()
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "config load failed")
		}

		metricsPort, err := initGatewayTelemetry(ctx, identity, cfg)
		if err != nil {
			return err
		}

		observability.ServerLogger.Info("Initializing gateway",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", identity.TelemetryNamespace),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.String("upstream", cfg.API.BaseURL),
			zap.Int("metrics_port", metricsPort))

		// The gateway reuses the stored login token for forwarded requests.
		token, db := loadStoredToken(ctx)

		// One dispatcher for the whole process: the proxy and the health
		// probes share a single backoff registry.
		dispatcher := buildDispatcher(cfg)
		dispatcher.Logger = observability.ServerLogger

		probe := market.New(cfg.API.BaseURL, "")
		probe.UserAgent = cfg.API.UserAgent
		probe.Dispatcher = dispatcher

		handlers.InitHealthManager(versionInfo.Version)
		registerGatewayHealth(probe, db, cfg.Metrics.Enabled)

		srv, err := server.New(server.Options{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			Upstream:     cfg.API.BaseURL,
			Token:        token,
			AdminToken:   cfg.Server.AdminToken,
			Dispatcher:   dispatcher,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		})
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "invalid server configuration")
		}

		handlers.SetAppIdentity(&appidentity.Identity{
			BinaryName: identity.BinaryName,
		})

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}
		registerShutdownHooks(srv, db, shutdownTimeout)
		registerReloadHook()

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()
		go func() {
			if err := signals.Listen(ctx); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(ctx, err, "server error")
		}
		return nil
	},
}

// initGatewayTelemetry starts the Prometheus exporter unless metrics are
// disabled, returning the effective metrics port.
func initGatewayTelemetry(ctx context.Context, identity *appid.Identity, cfg *config.Config) (int, error) {
	metricsPort := cfg.Metrics.Port
	if metricsPort == 0 {
		metricsPort = 9090
	}

	if !cfg.Metrics.Enabled {
		observability.ServerLogger.Info("Metrics disabled by configuration")
		return metricsPort, nil
	}

	if err := observability.InitMetrics(identity.BinaryName, metricsPort, identity.TelemetryNamespace); err != nil {
		observability.ServerLogger.Error("Failed to initialize metrics", zap.Error(err))
		return 0, errwrap.WrapInternal(ctx, err, "metrics initialization failed")
	}
	return metricsPort, nil
}

// loadStoredToken opens the credential store and reads the login token. A
// missing or unreadable store degrades to anonymous forwarding.
func loadStoredToken(ctx context.Context) (string, *store.Store) {
	db, err := openStore(ctx)
	if err != nil {
		observability.ServerLogger.Warn("Credential store unavailable; forwarding without stored token", zap.Error(err))
		return "", nil
	}

	token, err := db.GetCredential(ctx, store.TokenKey)
	if err != nil {
		observability.ServerLogger.Warn("Failed to read stored token; forwarding without it", zap.Error(err))
		return "", db
	}
	return token, db
}

func registerGatewayHealth(probe *market.Client, db *store.Store, telemetryRequired bool) {
	hm := handlers.GetHealthManager()
	hm.RegisterChecker("upstream", handlers.CheckerFunc(probe.Ping))
	if db != nil {
		hm.RegisterChecker("store", handlers.CheckerFunc(db.DB.PingContext))
	}
	if telemetryRequired {
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
	}
}

// registerShutdownHooks wires graceful shutdown. Hooks run LIFO, so the HTTP
// listener stops first and the logger flushes last.
func registerShutdownHooks(srv *server.Server, db *store.Store, timeout time.Duration) {
	signals.OnShutdown(func(ctx context.Context) error {
		observability.ServerLogger.Info("Flushing logger...")
		if err := observability.ServerLogger.Sync(); err != nil {
			// Sync errors are often benign (stdout/stderr already closed)
			observability.ServerLogger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})

	if db != nil {
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Closing credential store...")
			if err := db.Close(); err != nil {
				observability.ServerLogger.Warn("Store close returned error", zap.Error(err))
			}
			return nil
		})
	}

	signals.OnShutdown(func(ctx context.Context) error {
		observability.ServerLogger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}
		observability.ServerLogger.Info("HTTP server stopped gracefully")
		return nil
	})
}

func registerReloadHook() {
	signals.OnReload(func(ctx context.Context) error {
		observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				observability.ServerLogger.Info("No config file found - using defaults and environment variables")
				return nil
			}
			observability.ServerLogger.Error("Failed to reload config file",
				zap.String("file", viper.ConfigFileUsed()),
				zap.Error(err))
			return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
		}

		observability.ServerLogger.Info("Configuration reloaded successfully",
			zap.String("file", viper.ConfigFileUsed()))

		// TODO: rebuild the dispatcher when dispatch.* values change instead
		// of requiring a restart

		return nil
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
