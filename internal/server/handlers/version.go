package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/crucible"
)

// Build metadata, injected from main via SetVersionInfo.
var (
	AppVersion   = "dev"
	AppCommit    = "unknown"
	AppBuildDate = "unknown"
	appIdentity  *appidentity.Identity
)

// SetVersionInfo records the build metadata served by /version.
func SetVersionInfo(version, commit, buildDate string) {
	AppVersion = version
	AppCommit = commit
	AppBuildDate = buildDate
}

// SetAppIdentity records the identity whose binary name /version reports.
func SetAppIdentity(identity *appidentity.Identity) {
	appIdentity = identity
}

// VersionResponse is the /version payload. The CLI's health command
// decodes it, so field tags are part of the contract.
type VersionResponse struct {
	App          AppInfo     `json:"app"`
	Dependencies DepInfo     `json:"dependencies"`
	Runtime      RuntimeInfo `json:"runtime"`
}

// AppInfo describes this build.
type AppInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// DepInfo carries the embedded library versions.
type DepInfo struct {
	Gofulmen string `json:"gofulmen"`
	Crucible string `json:"crucible"`
}

// RuntimeInfo describes the running process.
type RuntimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

// VersionHandler serves build, dependency, and runtime information.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	deps := crucible.GetVersion()

	response := VersionResponse{
		App:          buildAppInfo(),
		Dependencies: DepInfo{Gofulmen: deps.Gofulmen, Crucible: deps.Crucible},
		Runtime:      buildRuntimeInfo(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func buildAppInfo() AppInfo {
	return AppInfo{
		Name:      resolveIdentity().BinaryName,
		Version:   AppVersion,
		Commit:    AppCommit,
		BuildDate: AppBuildDate,
		GoVersion: runtime.Version(),
	}
}

func buildRuntimeInfo() RuntimeInfo {
	return RuntimeInfo{
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
		NumCPU:        runtime.NumCPU(),
		NumGoroutines: runtime.NumGoroutine(),
	}
}

// resolveIdentity returns the configured identity, falling back to the
// executable name when none was set.
func resolveIdentity() *appidentity.Identity {
	if appIdentity != nil {
		return appIdentity
	}

	name := "unknown"
	if len(os.Args) > 0 && os.Args[0] != "" {
		name = filepath.Base(os.Args[0])
	}
	return &appidentity.Identity{BinaryName: name}
}
