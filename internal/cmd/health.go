package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/config"
	"github.com/cataloro/cataloro/internal/observability"
	"github.com/cataloro/cataloro/internal/server/handlers"
)

var (
	healthHost    string
	healthPort    int
	healthTimeout time.Duration
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check a running gateway",
	Long:  "Query the /health endpoint of a running gateway and report per-component status.",
	Run: func(cmd *cobra.Command, args []string) {
		host := healthHost
		port := healthPort
		if cfg, err := config.Load(); err == nil {
			if !cmd.Flags().Changed("host") {
				host = cfg.Server.Host
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Server.Port
			}
		}

		url := fmt.Sprintf("http://%s:%d/health", host, port)
		observability.CLILogger.Info("Checking gateway health...", zap.String("url", url))

		client := &http.Client{Timeout: healthTimeout}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitFailure, "Failed to build health request", err)
			return
		}

		resp, err := client.Do(req)
		if err != nil {
			observability.CLILogger.Error("❌ Gateway unreachable (is 'serve' running?)")
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Gateway unreachable", err)
			return
		}
		defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Failed to read health response", err)
			return
		}

		var health handlers.HealthResponse
		if err := json.Unmarshal(body, &health); err != nil || health.Status == "" {
			// Unhealthy responses arrive as an error envelope, not a
			// HealthResponse. Report the raw status instead of guessing.
			observability.CLILogger.Error("❌ Gateway reported unhealthy",
				zap.Int("status_code", resp.StatusCode))
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Gateway unhealthy", fmt.Errorf("health endpoint returned HTTP %d", resp.StatusCode))
			return
		}

		names := make([]string, 0, len(health.Checks))
		for name := range health.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			state := health.Checks[name]
			if state == "healthy" {
				observability.CLILogger.Info("✅ " + name + ": " + state)
			} else {
				observability.CLILogger.Warn("⚠️ " + name + ": " + state)
			}
		}

		observability.CLILogger.Info("")
		switch health.Status {
		case "healthy":
			observability.CLILogger.Info("✅ Gateway healthy",
				zap.String("version", health.Version))
		case "degraded":
			observability.CLILogger.Warn("⚠️ Gateway degraded",
				zap.String("version", health.Version))
		default:
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Gateway unhealthy", fmt.Errorf("gateway status %q", health.Status))
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().StringVar(&healthHost, "host", "localhost", "gateway host")
	healthCmd.Flags().IntVar(&healthPort, "port", 8080, "gateway port")
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "request timeout")
}
