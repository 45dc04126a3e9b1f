package cmd

import (
	"strings"
	"testing"

	"github.com/cataloro/cataloro/internal/appid"
)

func TestAppIdentityLoading(t *testing.T) {
	identity, err := appid.Get()
	if err != nil {
		t.Fatalf("load app identity: %v", err)
	}
	if identity == nil {
		t.Fatal("app identity is nil")
	}
	t.Logf("identity: %+v", identity)

	for field, value := range map[string]string{
		"vendor":              identity.Vendor,
		"binary_name":         identity.BinaryName,
		"env_prefix":          identity.EnvPrefix,
		"config_name":         identity.ConfigName,
		"telemetry_namespace": identity.TelemetryNamespace,
	} {
		if value == "" {
			t.Errorf("embedded app.yaml leaves %s empty", field)
		}
	}

	// viper appends the separator itself, so the prefix must be a bare
	// uppercase token.
	if prefix := identity.EnvPrefix; prefix != strings.ToUpper(prefix) || strings.HasSuffix(prefix, "_") {
		t.Errorf("env_prefix must be a bare uppercase token, got %q", prefix)
	}
}
