package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/appid"
	"github.com/cataloro/cataloro/internal/config"
	"github.com/cataloro/cataloro/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// Identity decoded from the embedded app.yaml. Loaded eagerly in init
	// so help text is correct, reloaded in initConfig where failure is fatal.
	appIdentity *appid.Identity

	// Build metadata injected by main.
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo receives the ldflags-injected build metadata from main.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// GetAppIdentity returns the loaded app identity. Valid after initConfig.
func GetAppIdentity() *appid.Identity {
	return appIdentity
}

var rootCmd = &cobra.Command{
	// Placeholder surfaces; applyIdentity swaps in the embedded identity.
	Use:   filepath.Base(os.Args[0]),
	Short: "Marketplace API client with rate-limited request dispatch",
	Long: `A command line client for the Cataloro marketplace API.

Use the subcommands to perform specific operations.`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Keep global telemetry disabled until serve mode configures the real
	// exporter; otherwise config loading emits metrics to stdout.
	if sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false}); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	// Help text must be right even when cobra short-circuits on --help,
	// which happens before OnInitialize runs.
	if identity, err := appid.Get(); err == nil && identity != nil {
		appIdentity = identity
		applyIdentity(identity)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults to app identity config path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// applyIdentity rewrites the root command's help surfaces from the
// embedded identity.
func applyIdentity(identity *appid.Identity) {
	if identity.BinaryName != "" {
		rootCmd.Use = identity.BinaryName
	}
	if identity.Description != "" {
		rootCmd.Short = identity.Description
		rootCmd.Long = fmt.Sprintf("%s - %s\n\nUse the subcommands to perform specific operations.", identity.BinaryName, identity.Description)
	}
	if f := rootCmd.PersistentFlags().Lookup("config"); f != nil && identity.ConfigName != "" {
		f.Usage = fmt.Sprintf("config file (default is $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName)
	}
}

// initConfig loads the embedded identity, wires the CLI logger, and points
// viper at the config file, environment, and defaults.
func initConfig() {
	identity, err := appid.Get()
	if err != nil {
		ExitWithCodeStderr(foundry.ExitFileNotFound, "Failed to load embedded app identity", err)
	}
	appIdentity = identity
	if identity != nil {
		applyIdentity(identity)
	}

	observability.InitCLILogger(appIdentity.BinaryName, verbose)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configureSearchPaths()
	}

	// Nested keys map dots to underscores, e.g. CATALORO_API_BASE_URL.
	viper.SetEnvPrefix(appIdentity.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	readConfigFile()

	config.SetDefaults()
}

// configureSearchPaths points viper at the XDG config dir, a legacy dir
// named after the binary, and ./config. When no XDG dir resolves, a
// dotfile in the home directory serves as the last fallback.
func configureSearchPaths() {
	appConfigDir := gfconfig.GetAppConfigDir(appIdentity.ConfigName)
	if appConfigDir == "" {
		if verbose {
			observability.CLILogger.Warn("Could not resolve XDG config directory, falling back to home directory")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitFileNotFound, "Could not find home directory", err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName("." + appIdentity.ConfigName)
	} else {
		viper.AddConfigPath(appConfigDir)
		viper.SetConfigName("config")

		if appIdentity.BinaryName != "" && appIdentity.BinaryName != appIdentity.ConfigName {
			if legacyDir := gfconfig.GetAppConfigDir(appIdentity.BinaryName); legacyDir != "" {
				viper.AddConfigPath(legacyDir)
			}
		}
	}

	viper.AddConfigPath("./config")
	viper.SetConfigType("yaml")
}

// A missing config file is not an error; defaults and environment cover it.
func readConfigFile() {
	err := viper.ReadInConfig()
	if err == nil {
		if verbose {
			observability.CLILogger.Debug("Using config file", zap.String("path", viper.ConfigFileUsed()))
		}
		return
	}

	if !verbose {
		return
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		observability.CLILogger.Debug("No config file found, using defaults and environment variables")
	} else {
		observability.CLILogger.Warn("Error reading config file", zap.Error(err))
	}
}
