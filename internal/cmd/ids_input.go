package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// resolveIDs collects listing IDs from positional arguments or, with --file,
// from a file with one ID per line. The two sources are mutually exclusive.
func resolveIDs(positional []string, idsFile string) ([]string, error) {
	trimmed := strings.TrimSpace(idsFile)
	if trimmed != "" {
		if len(positional) > 0 {
			return nil, fmt.Errorf("cannot combine positional ids with --file")
		}
		return readIDsFile(trimmed)
	}

	ids := make([]string, 0, len(positional))
	for _, raw := range positional {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one listing id is required")
	}
	return ids, nil
}

// readIDsFile reads one ID per line, skipping blanks and '#' comments.
// Path "-" reads from stdin.
func readIDsFile(path string) ([]string, error) {
	var reader io.Reader
	if path == "-" {
		reader = os.Stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close() // nolint:errcheck
		reader = file
	}

	ids := make([]string, 0)
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		ids = append(ids, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids found")
	}
	return ids, nil
}
