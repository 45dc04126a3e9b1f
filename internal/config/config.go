package config

import "time"

// Config represents the complete application configuration. Values come from
// viper: defaults from SetDefaults, then an optional YAML config file, then
// environment variables with the app identity prefix.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Health   HealthConfig   `mapstructure:"health"`
	Debug    DebugConfig    `mapstructure:"debug"`
	Workers  int            `mapstructure:"workers"`
}

// APIConfig describes the upstream marketplace API.
type APIConfig struct {
	// BaseURL is the upstream root, without a trailing slash.
	BaseURL string `mapstructure:"base_url"`

	// Timeout applies to each network attempt, not to a whole retry chain.
	Timeout time.Duration `mapstructure:"timeout"`

	UserAgent string `mapstructure:"user_agent"`
}

// DispatchConfig tunes the rate-limited request dispatcher.
type DispatchConfig struct {
	// MaxRetries bounds automatic retries after the initial attempt.
	MaxRetries int `mapstructure:"max_retries"`

	// BaseDelay is the backoff window opened by the first 429; each
	// consecutive 429 for the same endpoint doubles it.
	BaseDelay time.Duration `mapstructure:"base_delay"`

	// PaceRate throttles outgoing requests to this many per second before
	// they reach the network. Zero disables pacing.
	PaceRate float64 `mapstructure:"pace_rate"`

	// PaceBurst is the pacing bucket size when PaceRate is set.
	PaceBurst int `mapstructure:"pace_burst"`
}

// ServerConfig tunes the gateway's HTTP listener.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// ShutdownTimeout bounds the graceful drain on SIGTERM.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AdminToken guards the backoff admin endpoints when set.
	AdminToken string `mapstructure:"admin_token"`
}

// StoreConfig selects the libsql backend: a local file via Path, or a
// remote Turso database via URL plus AuthToken.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// CacheConfig controls the local response cache for GET requests.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LoggingConfig selects the logging profile.
//
// SIMPLE writes console output only, STRUCTURED adds structured sinks and
// correlation IDs, ENTERPRISE layers on middleware and throttling.
type LoggingConfig struct {
	// Level is the minimum level emitted: trace, debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Profile is one of SIMPLE, STRUCTURED, ENTERPRISE.
	Profile string `mapstructure:"profile"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port serves the Prometheus text format; the main HTTP port exposes
	// the same counters as JSON.
	Port int `mapstructure:"port"`
}

// HealthConfig toggles the health and readiness endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig gates development-only surfaces.
type DebugConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// PprofEnabled mounts net/http/pprof; keep off outside development.
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}
