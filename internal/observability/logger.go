package observability

import (
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
)

var (
	// CLILogger carries the SIMPLE profile for command output.
	CLILogger *logging.Logger

	// ServerLogger carries the STRUCTURED profile for the gateway.
	ServerLogger *logging.Logger
)

// InitCLILogger sets up the CLI logger. Verbose mode drops the level to
// DEBUG.
func InitCLILogger(serviceName string, verbose bool) {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize CLI logger", err)
	}

	if verbose {
		logger.SetLevel(logging.DEBUG)
	}

	CLILogger = logger
}

// InitServerLogger sets up the structured gateway logger. The optional
// namespace lands in static fields so log lines can be joined with
// telemetry by namespace.
func InitServerLogger(serviceName string, logLevel string, namespace ...string) {
	staticFields := make(map[string]any)
	if len(namespace) > 0 && namespace[0] != "" {
		staticFields["namespace"] = namespace[0]
	}

	logger, err := logging.New(serverLoggerConfig(serviceName, parseLogLevel(logLevel), staticFields))
	if err != nil {
		exitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize server logger", err)
	}

	ServerLogger = logger
}

// JSON to stderr keeps stdout free for proxied payloads and command
// output.
func serverLoggerConfig(serviceName, level string, staticFields map[string]any) *logging.LoggerConfig {
	return &logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: level,
		Service:      serviceName,
		Environment:  "production",
		StaticFields: staticFields,
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
		EnableCaller:     true,
		EnableStacktrace: true,
	}
}

var logLevelNames = map[string]string{
	"trace":   "TRACE",
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// parseLogLevel maps the config level string to the logging severity
// name. Unknown values fall back to INFO.
func parseLogLevel(levelStr string) string {
	if level, ok := logLevelNames[levelStr]; ok {
		return level
	}
	return "INFO"
}

// exitWithCodeStderr writes to plain stderr because it runs before any
// logger exists.
func exitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	detail := msg
	if err != nil {
		detail = fmt.Sprintf("%s: %v", msg, err)
	}

	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s (exit code: %d)\n", detail, exitCode)
		os.Exit(int(exitCode))
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s\n", detail)
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	os.Exit(info.Code)
}
