// Package appid exposes the embedded application identity: the stable names
// the CLI uses for its binary, config paths, environment variables, and
// telemetry namespace.
package appid

import (
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	appidentityassets "github.com/cataloro/cataloro/internal/assets/appidentity"
)

// Identity describes the application to its config and observability layers.
type Identity struct {
	Name               string `yaml:"name"`
	BinaryName         string `yaml:"binary_name"`
	ConfigName         string `yaml:"config_name"`
	EnvPrefix          string `yaml:"env_prefix"`
	Vendor             string `yaml:"vendor"`
	Description        string `yaml:"description"`
	TelemetryNamespace string `yaml:"telemetry_namespace"`
}

var (
	once     sync.Once
	identity *Identity
	loadErr  error
)

// Get returns the embedded identity, decoding it on first use.
func Get() (*Identity, error) {
	once.Do(func() {
		parsed := &Identity{}
		if err := yaml.Unmarshal(appidentityassets.YAML, parsed); err != nil {
			loadErr = fmt.Errorf("decode embedded app identity: %w", err)
			return
		}
		if strings.TrimSpace(parsed.BinaryName) == "" {
			loadErr = fmt.Errorf("embedded app identity is missing binary_name")
			return
		}
		if strings.TrimSpace(parsed.ConfigName) == "" {
			parsed.ConfigName = parsed.BinaryName
		}
		if strings.TrimSpace(parsed.EnvPrefix) == "" {
			parsed.EnvPrefix = strings.ToUpper(parsed.BinaryName)
		}
		identity = parsed
	})
	return identity, loadErr
}
