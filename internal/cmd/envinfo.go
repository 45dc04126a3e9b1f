package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/cataloro/cataloro/internal/config"
	"github.com/cataloro/cataloro/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display comprehensive environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		ssot := crucible.GetVersion()
		identity := GetAppIdentity()

		log.Info("=== Cataloro Environment Information ===")
		log.Info("")

		log.Info("Application:")
		log.Info("  Name:       " + identity.BinaryName)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+ssot.Gofulmen, zap.String("gofulmen_version", ssot.Gofulmen))
		log.Info("  Crucible:   "+ssot.Crucible, zap.String("crucible_version", ssot.Crucible))
		log.Info("")

		goVersion := runtime.Version()
		log.Info("Runtime:")
		log.Info("  Go Version: "+goVersion, zap.String("go_version", goVersion))
		log.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		log.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := config.Load()
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		log.Info("Marketplace API:")
		log.Info("  Base URL:       "+cfg.API.BaseURL, zap.String("base_url", cfg.API.BaseURL))
		log.Info("  Timeout:        " + cfg.API.Timeout.String())
		log.Info("  User Agent:     " + cfg.API.UserAgent)
		log.Info("")

		log.Info("Dispatch:")
		log.Info(fmt.Sprintf("  Max Retries:    %d", cfg.Dispatch.MaxRetries), zap.Int("max_retries", cfg.Dispatch.MaxRetries))
		log.Info("  Base Delay:     " + cfg.Dispatch.BaseDelay.String())
		if cfg.Dispatch.PaceRate > 0 {
			log.Info(fmt.Sprintf("  Pace Rate:      %.2f req/s (burst %d)", cfg.Dispatch.PaceRate, cfg.Dispatch.PaceBurst))
		} else {
			log.Info("  Pace Rate:      (unlimited)")
		}
		log.Info("")

		log.Info("Response Cache:")
		log.Info(fmt.Sprintf("  Enabled:        %t", cfg.Cache.Enabled), zap.Bool("cache_enabled", cfg.Cache.Enabled))
		if cfg.Cache.Enabled {
			log.Info("  TTL:            " + cfg.Cache.TTL.String())
		}
		log.Info("")

		log.Info("Configuration:")
		log.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		log.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		log.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		log.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			log.Info("  DB URL:         "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
		} else {
			log.Info("  DB Path:        "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		log.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		log.Info("  Config File:    "+config.DefaultConfigPath(), zap.String("config_file", config.DefaultConfigPath()))
		log.Info("")

		log.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
