package handlers

import (
	"net/http"
	"testing"

	"github.com/fulmenhq/gofulmen/appidentity"
)

func TestVersionHandlerIncludesIdentityMetadata(t *testing.T) {
	SetVersionInfo("1.2.3", "abcd123", "2025-11-07T12:00:00Z")
	SetAppIdentity(&appidentity.Identity{BinaryName: "cataloro"})
	t.Cleanup(func() { SetAppIdentity(nil) })

	rec := serveGet(VersionHandler, "/version")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp VersionResponse
	decodeJSON(t, rec, &resp)

	fields := []struct {
		name, got, want string
	}{
		{"app name", resp.App.Name, "cataloro"},
		{"version", resp.App.Version, "1.2.3"},
		{"commit", resp.App.Commit, "abcd123"},
	}
	for _, f := range fields {
		if f.got != f.want {
			t.Fatalf("expected %s %q, got %q", f.name, f.want, f.got)
		}
	}

	if resp.Dependencies.Gofulmen == "" || resp.Dependencies.Crucible == "" {
		t.Fatal("expected dependency versions to be populated")
	}
}

func TestResolveIdentityFallsBackToExecutableName(t *testing.T) {
	SetAppIdentity(nil)

	identity := resolveIdentity()
	if identity == nil || identity.BinaryName == "" {
		t.Fatal("expected a fallback identity with a binary name")
	}
}
