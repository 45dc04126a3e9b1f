package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// buildStandaloneBinary compiles the CLI and returns a copy placed
// outside the repository tree, so runs cannot pick up go.mod, config
// files, or any other repo-relative state.
func buildStandaloneBinary(t *testing.T) string {
	t.Helper()

	out, err := exec.Command("go", "env", "GOMOD").Output()
	if err != nil {
		t.Fatalf("go env GOMOD: %v", err)
	}
	goMod := strings.TrimSpace(string(out))
	if goMod == "" {
		t.Fatal("go env GOMOD returned empty")
	}

	built := filepath.Join(t.TempDir(), "cataloro")
	build := exec.Command("go", "build", "-o", built, "./cmd/cataloro")
	build.Dir = filepath.Dir(goMod)
	build.Env = os.Environ()
	if output, err := build.CombinedOutput(); err != nil {
		t.Fatalf("go build: %v\n%s", err, output)
	}

	// Copy by hand so the test does not depend on cp or install.
	data, err := os.ReadFile(built)
	if err != nil {
		t.Fatalf("read built binary: %v", err)
	}
	copied := filepath.Join(t.TempDir(), "cataloro")
	if err := os.WriteFile(copied, data, 0o755); err != nil {
		t.Fatalf("write copied binary: %v", err)
	}
	return copied
}

func runStandalone(t *testing.T, binary string, args ...string) string {
	t.Helper()

	cmd := exec.Command(binary, args...)
	cmd.Dir = filepath.Dir(binary)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %s: %v\n%s", filepath.Base(binary), strings.Join(args, " "), err, out)
	}
	return string(out)
}

func TestStandaloneBinaryVersionAndHelpWorkOutsideRepo(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("standalone binary copy/exec test is unix-focused")
	}

	binary := buildStandaloneBinary(t)

	if out := runStandalone(t, binary, "version"); !strings.Contains(out, "cataloro") {
		t.Fatalf("version output missing binary name: %s", out)
	}
	runStandalone(t, binary, "version", "--extended")
	runStandalone(t, binary, "--help")
}
