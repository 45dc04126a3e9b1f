package main

import (
	"github.com/fulmenhq/gofulmen/foundry"

	"github.com/cataloro/cataloro/internal/cmd"
	"github.com/cataloro/cataloro/internal/server/handlers"
)

// Build metadata injected via ldflags, e.g.
// go build -ldflags="-X main.version=1.2.0 -X main.commit=abc123 -X main.buildDate=2026-08-25"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	handlers.SetVersionInfo(version, commit, buildDate)

	if err := cmd.Execute(); err != nil {
		// Commands log their own failures; this catches anything unhandled.
		cmd.ExitWithCodeStderr(foundry.ExitFailure, "Command execution failed", err)
	}
}
