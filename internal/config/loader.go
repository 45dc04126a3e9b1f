// Package config provides centralized configuration management for the
// cataloro client. Values are layered through viper: SetDefaults seeds every
// key, a YAML config file may override, and environment variables with the
// app identity prefix win over both.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/cataloro/cataloro/internal/appid"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults seeds viper with the default value for every config key. The
// CLI calls this once during init; tests call it to load a self-contained
// config.
func SetDefaults() {
	// Upstream API defaults
	viper.SetDefault("api.base_url", "http://localhost:8001")
	viper.SetDefault("api.timeout", "30s")
	viper.SetDefault("api.user_agent", "cataloro-cli")

	// Dispatcher defaults
	viper.SetDefault("dispatch.max_retries", 3)
	viper.SetDefault("dispatch.base_delay", "30s")
	viper.SetDefault("dispatch.pace_rate", 0.0)
	viper.SetDefault("dispatch.pace_burst", 1)

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("server.admin_token", "")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.profile", "structured")

	// Store defaults
	viper.SetDefault("store.driver", "libsql")
	viper.SetDefault("store.path", DefaultStorePath())
	viper.SetDefault("store.url", "")
	viper.SetDefault("store.auth_token", "")

	// Response cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", "5m")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)

	// Health check defaults
	viper.SetDefault("health.enabled", true)

	// Worker defaults (bulk operations)
	viper.SetDefault("workers", 4)

	// Debug defaults
	viper.SetDefault("debug.enabled", false)
	viper.SetDefault("debug.pprof_enabled", false)
}

// Load unmarshals the current viper state into a typed Config. It is safe to
// call multiple times (e.g. for config reload after SIGHUP).
func Load() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	setConfig(cfg)

	return cfg, nil
}

// GetConfig returns the most recently loaded configuration.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// appNamesForPaths returns the config and binary names from the app identity,
// falling back to "cataloro" when identity is unavailable.
func appNamesForPaths() (configName string, binaryName string) {
	configName, binaryName = "cataloro", "cataloro"

	identity, err := appid.Get()
	if err != nil || identity == nil {
		return
	}
	if name := strings.TrimSpace(identity.ConfigName); name != "" {
		configName = name
	}
	if name := strings.TrimSpace(identity.BinaryName); name != "" {
		binaryName = name
	}
	return
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configName, _ := appNamesForPaths()
	if dir := strings.TrimSpace(gfconfig.GetAppConfigDir(configName)); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return ""
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	configName, _ := appNamesForPaths()
	return gfconfig.GetAppDataDir(configName)
}

// DefaultCacheDir returns the XDG-compliant cache directory for the app.
func DefaultCacheDir() string {
	configName, _ := appNamesForPaths()
	return gfconfig.GetAppCacheDir(configName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	configName, binaryName := appNamesForPaths()
	dbFile := binaryName + ".db"
	if dataDir := strings.TrimSpace(gfconfig.GetAppDataDir(configName)); dataDir != "" {
		return filepath.Join(dataDir, dbFile)
	}
	return "./" + dbFile
}
