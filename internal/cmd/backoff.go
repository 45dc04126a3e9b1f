package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/config"
	"github.com/cataloro/cataloro/internal/observability"
	"github.com/cataloro/cataloro/internal/output"
	"github.com/cataloro/cataloro/internal/server"
)

var (
	backoffHost       string
	backoffPort       int
	backoffListOutput string
	backoffResetYes   bool
	backoffAdminToken string
)

var backoffCmd = &cobra.Command{
	Use:   "backoff",
	Short: "Inspect the gateway's backoff registry",
	Long: `Inspect and reset the per-endpoint backoff windows of a running gateway.

The registry lives inside the 'serve' process; these commands talk to its
/admin/backoff endpoints. Reset requires the configured admin token.`,
}

var backoffListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active backoff windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(backoffListOutput)
		if err != nil {
			return err
		}

		body, status, err := gatewayRequest(cmd, http.MethodGet, "/admin/backoff", "")
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("gateway returned HTTP %d", status)
		}

		var list server.BackoffListResponse
		if err := json.Unmarshal(body, &list); err != nil {
			return fmt.Errorf("decode backoff list: %w", err)
		}

		rendered, err := output.FormatBackoffs(format, list.Backoffs)
		if err != nil {
			return err
		}

		sink, err := resolveSink(cmd, "backoff.list", format)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		_, err = fmt.Fprint(sink.writer, rendered)
		return err
	},
}

var backoffResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear every backoff window",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !backoffResetYes {
			return errors.New("reset requires --yes")
		}

		token := strings.TrimSpace(backoffAdminToken)
		if token == "" {
			if cfg, err := config.Load(); err == nil {
				token = strings.TrimSpace(cfg.Server.AdminToken)
			}
		}
		if token == "" {
			return errors.New("admin token required (set server.admin_token or pass --admin-token)")
		}

		body, status, err := gatewayRequest(cmd, http.MethodDelete, "/admin/backoff", token)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return fmt.Errorf("gateway rejected admin token (HTTP %d)", status)
		}
		if status != http.StatusOK {
			return fmt.Errorf("gateway returned HTTP %d", status)
		}

		var result server.BackoffResetResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("decode backoff reset response: %w", err)
		}

		observability.CLILogger.Info("✅ Backoff registry cleared",
			zap.Int("cleared", result.Cleared))
		return nil
	},
}

// gatewayRequest performs one HTTP call against the local gateway, resolving
// host and port from flags with config fallback.
func gatewayRequest(cmd *cobra.Command, method, path, token string) ([]byte, int, error) {
	host := backoffHost
	port := backoffPort
	if cfg, err := config.Load(); err == nil {
		if !cmd.Flags().Changed("host") {
			host = cfg.Server.Host
		}
		if !cmd.Flags().Changed("port") {
			port = cfg.Server.Port
		}
	}

	url := fmt.Sprintf("http://%s:%d%s", host, port, path)
	req, err := http.NewRequestWithContext(cmd.Context(), method, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("gateway unreachable (is 'serve' running?): %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func init() {
	backoffCmd.AddCommand(backoffListCmd)
	backoffCmd.AddCommand(backoffResetCmd)
	rootCmd.AddCommand(backoffCmd)

	backoffCmd.PersistentFlags().StringVar(&backoffHost, "host", "localhost", "gateway host")
	backoffCmd.PersistentFlags().IntVar(&backoffPort, "port", 8080, "gateway port")

	backoffListCmd.Flags().StringVar(&backoffListOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
	backoffListCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	backoffListCmd.Flags().String("out-dir", "", "Write output to a directory")

	backoffResetCmd.Flags().BoolVar(&backoffResetYes, "yes", false, "Confirm destructive reset")
	backoffResetCmd.Flags().StringVar(&backoffAdminToken, "admin-token", "", "Admin bearer token (defaults to server.admin_token)")
}
