package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cataloro/cataloro/internal/output"
)

// outputSink is where a command writes its rendered report: stdout by
// default, a file when --out or --out-dir is set.
type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

var formatExtensions = map[output.Format]string{
	output.FormatJSON:     "json",
	output.FormatMarkdown: "md",
	output.FormatTable:    "txt",
}

func outputExtension(format output.Format) string {
	if ext, ok := formatExtensions[format]; ok {
		return ext
	}
	return "txt"
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// sanitizeFilename lowercases the value and collapses anything unsafe
// for a filename into single dashes.
func sanitizeFilename(value string) string {
	clean := unsafeFilenameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	if clean = strings.Trim(clean, "-."); clean == "" {
		return "output"
	}
	return clean
}

// resolveSink opens the output target selected by --out/--out-dir. With
// --out-dir the file name is baseName plus the format's extension; with
// neither the sink is stdout.
func resolveSink(cmd *cobra.Command, baseName string, format output.Format) (*outputSink, error) {
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return nil, err
	}
	outDir, err := cmd.Flags().GetString("out-dir")
	if err != nil {
		return nil, err
	}

	outPath = strings.TrimSpace(outPath)
	outDir = strings.TrimSpace(outDir)
	switch {
	case outPath != "" && outDir != "":
		return nil, fmt.Errorf("--out and --out-dir are mutually exclusive")
	case outDir != "":
		dir, err := ensureOutDir(outDir)
		if err != nil {
			return nil, err
		}
		outPath = filepath.Join(dir, sanitizeFilename(baseName)+"."+outputExtension(format))
	}
	return openSink(outPath)
}

func openSink(path string) (*outputSink, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		return stdoutSink(), nil
	}
	return fileSink(trimmed)
}

func stdoutSink() *outputSink {
	return &outputSink{writer: os.Stdout, close: func() error { return nil }, path: "-"}
}

func fileSink(path string) (*outputSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &outputSink{writer: file, close: file.Close, path: path}, nil
}

// ensureOutDir creates the directory and resolves it to an absolute path
// so later joins do not depend on the working directory.
func ensureOutDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs, nil
	}
	return dir, nil
}
