package output

import (
	"fmt"
	"strings"
)

// Format names a supported output encoding.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat normalizes a user-supplied format name. An empty value
// selects the table format.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// sheet is the row model shared by the table and markdown renderers. JSON
// output bypasses it and marshals the source value directly.
type sheet struct {
	Title  string
	Header []string
	Rows   [][]string
	Footer []string
}

// render produces the requested format: value feeds JSON, the sheet feeds
// table and markdown.
func render(format Format, value any, s sheet) (string, error) {
	switch format {
	case FormatJSON:
		return marshalJSON(value)
	case FormatMarkdown:
		return s.markdown(), nil
	default:
		return s.table(), nil
	}
}
