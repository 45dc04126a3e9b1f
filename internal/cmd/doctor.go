package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cataloro/cataloro/internal/config"
	"github.com/cataloro/cataloro/internal/core"
	"github.com/cataloro/cataloro/internal/core/store"
	"github.com/cataloro/cataloro/internal/observability"
	"github.com/cataloro/cataloro/internal/output"
)

var (
	doctorOutput  string
	doctorTimeout time.Duration
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Probe configuration, local store, and upstream marketplace connectivity, and report the results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(doctorOutput)
		if err != nil {
			return err
		}

		identity := GetAppIdentity()
		bannerName := "doctor"
		if identity != nil && identity.BinaryName != "" {
			bannerName = identity.BinaryName + " doctor"
		}
		observability.CLILogger.Info("=== " + bannerName + " ===")
		observability.CLILogger.Info("Running diagnostic checks...")

		ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
		defer cancel()

		checks := runDoctorChecks(ctx)

		rendered, err := output.FormatDoctorReport(format, checks)
		if err != nil {
			return err
		}

		sink, err := resolveSink(cmd, "doctor", format)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if _, err := fmt.Fprint(sink.writer, rendered); err != nil {
			return err
		}

		if !core.AllHealthy(checks) {
			failed := 0
			for _, check := range checks {
				if !check.OK {
					failed++
				}
			}
			return fmt.Errorf("%d of %d checks failed", failed, len(checks))
		}

		observability.CLILogger.Info("✅ All checks passed")
		return nil
	},
}

type doctorProbe struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// runDoctorChecks executes every probe concurrently. A probe failure becomes
// a failed check, not an aborted run; only context cancellation stops the
// remaining probes early.
func runDoctorChecks(ctx context.Context) []core.DoctorCheck {
	probes := []doctorProbe{
		{name: "config", run: probeConfig},
		{name: "store", run: probeStore},
		{name: "upstream", run: probeUpstream},
		{name: "auth", run: probeAuth},
		{name: "cache", run: probeCache},
	}

	checks := make([]core.DoctorCheck, len(probes))
	g, gctx := errgroup.WithContext(ctx)

	for i, probe := range probes {
		g.Go(func() error {
			start := time.Now()
			detail, err := probe.run(gctx)

			check := core.DoctorCheck{
				Name:    probe.name,
				OK:      err == nil,
				Detail:  detail,
				Elapsed: time.Since(start),
			}
			if err != nil {
				check.Detail = err.Error()
			}
			checks[i] = check

			return gctx.Err()
		})
	}

	_ = g.Wait()
	return checks
}

func probeConfig(context.Context) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return "", fmt.Errorf("api.base_url is empty")
	}
	return cfg.API.BaseURL, nil
}

func probeStore(ctx context.Context) (string, error) {
	db, err := openStore(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	cfg := config.GetConfig()
	if cfg != nil && strings.TrimSpace(cfg.Store.URL) != "" {
		return fmt.Sprintf("%s (remote)", cfg.Store.URL), nil
	}
	return db.Driver(), nil
}

func probeUpstream(ctx context.Context) (string, error) {
	client, cfg, err := newMarketClient(ctx, nil, false)
	if err != nil {
		return "", err
	}
	if err := client.Ping(ctx); err != nil {
		return "", err
	}
	return cfg.API.BaseURL + " reachable", nil
}

func probeAuth(ctx context.Context) (string, error) {
	db, err := openStore(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	token, err := db.GetCredential(ctx, store.TokenKey)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("not logged in (run '%s login')", binaryName())
	}
	return "token present", nil
}

func probeCache(ctx context.Context) (string, error) {
	db, err := openStore(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	count, err := db.CountCacheEntries(ctx, store.CacheQuery{All: true})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d entries", count), nil
}

var (
	doctorInitForce      bool
	doctorInitAdminToken string
	doctorResetConfig    bool
	doctorResetData      bool
	doctorResetAll       bool
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if !doctorInitForce && fileExists(configPath) {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		adminToken, err := resolveInitAdminToken()
		if err != nil {
			return err
		}
		if err := writeInitConfig(configPath, adminToken); err != nil {
			return err
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

// resolveInitAdminToken returns the --admin-token value, prompting when the
// literal "prompt" was given.
func resolveInitAdminToken() (string, error) {
	token := strings.TrimSpace(doctorInitAdminToken)
	if !strings.EqualFold(token, "prompt") {
		return token, nil
	}
	return promptForValue("Enter server admin token (leave blank to skip): ")
}

// writeInitConfig writes the generated config file, tightening permissions
// when a secret is embedded in it.
func writeInitConfig(configPath, adminToken string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	mode := os.FileMode(0644)
	if adminToken != "" {
		mode = 0600
	}
	if err := os.WriteFile(configPath, []byte(buildInitConfig(adminToken)), mode); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

var doctorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration status and paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		logInfo := observability.CLILogger.Info

		configPath := config.DefaultConfigPath()
		logInfo("Configuration:")
		logInfo(fmt.Sprintf("  Config file:   %s (%s)", configPath, pathStatus(configPath)))
		logDirStatus("Data directory", config.DefaultDataDir())
		logDirStatus("Cache directory", config.DefaultCacheDir())

		cfg, err := config.Load()
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
			return nil
		}

		logDatabaseStatus(cfg)

		prefix := envPrefix()
		logInfo("")
		logInfo("Environment:")
		logInfo(fmt.Sprintf("  %s_API_BASE_URL: %s", prefix, envStatus(prefix+"_API_BASE_URL")))
		logInfo(fmt.Sprintf("  %s_SERVER_ADMIN_TOKEN: %s", prefix, envStatus(prefix+"_SERVER_ADMIN_TOKEN")))

		logInfo("")
		logInfo("Effective Settings:")
		logInfo(fmt.Sprintf("  api.base_url: %s", cfg.API.BaseURL))
		logInfo(fmt.Sprintf("  dispatch.max_retries: %d", cfg.Dispatch.MaxRetries))
		logInfo(fmt.Sprintf("  dispatch.base_delay: %s", cfg.Dispatch.BaseDelay))
		logInfo(fmt.Sprintf("  cache.enabled: %t", cfg.Cache.Enabled))

		return nil
	},
}

func logDirStatus(label, dir string) {
	if dir == "" {
		observability.CLILogger.Info(fmt.Sprintf("  %s: (not resolved)", label))
		return
	}
	observability.CLILogger.Info(fmt.Sprintf("  %s: %s (%s)", label, dir, pathStatus(dir)))
}

func logDatabaseStatus(cfg *config.Config) {
	if cfg.Store.URL != "" {
		observability.CLILogger.Info(fmt.Sprintf("  Database:      %s (remote)", cfg.Store.URL))
		return
	}

	absPath, _ := filepath.Abs(localStorePath(cfg))
	info, err := os.Stat(absPath)
	switch {
	case err == nil:
		observability.CLILogger.Info(fmt.Sprintf("  Database:      %s (%s)", absPath, formatFileSize(info.Size())))
	case os.IsNotExist(err):
		observability.CLILogger.Info(fmt.Sprintf("  Database:      %s (not created yet)", absPath))
	default:
		observability.CLILogger.Warn("Database status error", zap.String("db_path", absPath), zap.Error(err))
	}
}

// localStorePath returns the configured store path, falling back to the
// default location.
func localStorePath(cfg *config.Config) string {
	if cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	return config.DefaultStorePath()
}

func envPrefix() string {
	if identity := GetAppIdentity(); identity != nil && identity.EnvPrefix != "" {
		return identity.EnvPrefix
	}
	return "CATALORO"
}

var doctorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset user configuration and/or data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if doctorResetAll {
			doctorResetConfig = true
			doctorResetData = true
		}
		if !doctorResetConfig && !doctorResetData {
			return fmt.Errorf("specify --config, --data, or --all")
		}

		if doctorResetConfig {
			if err := resetConfigFile(); err != nil {
				return err
			}
		}
		if doctorResetData {
			if err := resetDatabase(); err != nil {
				return err
			}
		}
		return nil
	},
}

func resetConfigFile() error {
	configPath := config.DefaultConfigPath()
	if configPath == "" {
		observability.CLILogger.Warn("Config path not resolved; skipping config reset")
		return nil
	}
	return removeWithLog("Config", configPath)
}

func resetDatabase() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.URL != "" {
		return fmt.Errorf("remote store configured; database reset is not supported")
	}

	absPath, _ := filepath.Abs(localStorePath(cfg))
	return removeWithLog("Database", absPath)
}

// removeWithLog deletes path, treating an already-missing file as success.
func removeWithLog(label, path string) error {
	err := os.Remove(path)
	switch {
	case err == nil:
		observability.CLILogger.Info(label+" removed", zap.String("path", path))
	case os.IsNotExist(err):
		observability.CLILogger.Info(label+" already removed", zap.String("path", path))
	default:
		return fmt.Errorf("remove %s: %w", strings.ToLower(label), err)
	}
	return nil
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if !fileExists(configPath) {
			return fmt.Errorf("config file not found: %s", configPath)
		}
		if _, err := config.Load(); err != nil {
			return err
		}

		observability.CLILogger.Info("Config is valid", zap.String("path", configPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.AddCommand(doctorConfigCmd)
	doctorCmd.AddCommand(doctorResetCmd)
	doctorCmd.AddCommand(doctorValidateCmd)

	doctorCmd.Flags().StringVar(&doctorOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
	doctorCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	doctorCmd.Flags().String("out-dir", "", "Write output to a directory")
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 10*time.Second, "overall probe timeout")

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitAdminToken, "admin-token", "", "set server admin token or use 'prompt' to enter")

	doctorResetCmd.Flags().BoolVar(&doctorResetConfig, "config", false, "remove user config file")
	doctorResetCmd.Flags().BoolVar(&doctorResetData, "data", false, "remove local database")
	doctorResetCmd.Flags().BoolVar(&doctorResetAll, "all", false, "remove config and data")
}

func formatFileSize(n int64) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d bytes", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	case n < 1<<30:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	default:
		return fmt.Sprintf("%.1f GB", float64(n)/(1<<30))
	}
}

func buildInitConfig(adminToken string) string {
	lines := []string{
		"# cataloro config - created by 'cataloro doctor init'",
		"api:",
		"  base_url: http://localhost:8001",
		"  timeout: 30s",
		"dispatch:",
		"  max_retries: 3",
		"  base_delay: 30s",
		"cache:",
		"  enabled: true",
		"  ttl: 5m",
		"server:",
		"  host: localhost",
		"  port: 8080",
	}

	if strings.TrimSpace(adminToken) != "" {
		lines = append(lines, fmt.Sprintf("  admin_token: %q", adminToken))
	} else {
		lines = append(lines, "  # admin_token: \"\"  # Set via CATALORO_SERVER_ADMIN_TOKEN or uncomment")
	}

	return strings.Join(lines, "\n") + "\n"
}

func promptForValue(prompt string) (string, error) {
	if _, err := fmt.Fprint(os.Stdout, prompt); err != nil {
		return "", err
	}
	reader := bufio.NewReader(os.Stdin)
	value, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func pathStatus(path string) string {
	if fileExists(path) {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
