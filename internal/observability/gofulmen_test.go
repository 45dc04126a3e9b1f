package observability_test

import (
	"testing"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/observability"
)

// Smoke checks that the gofulmen logging wiring holds together. These
// exercise the real library, not mocks, so a profile or middleware rename
// upstream surfaces here first.
func TestLoggerInitialization(t *testing.T) {
	t.Run("CLI profile", func(t *testing.T) {
		observability.InitCLILogger("cataloro-test", false)

		if observability.CLILogger == nil {
			t.Fatal("expected CLI logger after init")
		}
		observability.CLILogger.Info("cli logger ready", zap.String("mode", "simple"))
	})

	t.Run("structured profile", func(t *testing.T) {
		observability.InitServerLogger("cataloro-test", "info")

		if observability.ServerLogger == nil {
			t.Fatal("expected server logger after init")
		}
		observability.ServerLogger.Info("server logger ready",
			zap.String("component", "gateway"),
			zap.Int("port", 8080))
	})

	t.Run("structured profile with namespace", func(t *testing.T) {
		observability.InitServerLogger("cataloro-test", "debug", "cataloro")

		if observability.ServerLogger == nil {
			t.Fatal("expected server logger after init")
		}
		observability.ServerLogger.Debug("namespaced logger ready",
			zap.String("component", "gateway"))
	})

	t.Run("verbose drops level to debug", func(t *testing.T) {
		logger, err := logging.NewCLI("cataloro-verbose")
		if err != nil {
			t.Fatalf("NewCLI: %v", err)
		}

		logger.SetLevel(logging.DEBUG)
		logger.Debug("debug visible", zap.String("mode", "verbose"))
	})

	t.Run("correlation middleware accepted", func(t *testing.T) {
		logger, err := logging.New(&logging.LoggerConfig{
			Profile:      logging.ProfileStructured,
			DefaultLevel: "INFO",
			Service:      "correlation-test",
			Environment:  "test",
			Middleware: []logging.MiddlewareConfig{
				{
					Name:    "correlation",
					Enabled: true,
					Order:   100,
					Config:  make(map[string]any),
				},
			},
			Sinks: []logging.SinkConfig{
				{
					Type:   "console",
					Format: "json",
					Console: &logging.ConsoleSinkConfig{
						Stream:   "stderr",
						Colorize: false,
					},
				},
			},
		})
		if err != nil {
			t.Fatalf("logging.New with correlation middleware: %v", err)
		}

		logger.Info("correlated message", zap.String("feature", "correlation"))
	})
}

// The crucible registries ship embedded in gofulmen; config and schema
// validation depend on them being present at runtime.
func TestCrucibleEmbedded(t *testing.T) {
	version := crucible.GetVersion()
	if version.Gofulmen == "" || version.Crucible == "" {
		t.Fatalf("embedded version info incomplete: %+v", version)
	}
	t.Logf("gofulmen %s / crucible %s", version.Gofulmen, version.Crucible)

	if crucible.SchemaRegistry == nil {
		t.Fatal("schema registry missing")
	}
	if crucible.SchemaRegistry.Observability() == nil {
		t.Fatal("observability schemas missing")
	}
}
