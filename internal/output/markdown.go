package output

import (
	"fmt"
	"strings"
)

// markdown renders the sheet as a markdown table with an optional heading.
func (s sheet) markdown() string {
	var sb strings.Builder

	if s.Title != "" {
		sb.WriteString(fmt.Sprintf("## %s\n\n", escapeCell(s.Title)))
	}

	sb.WriteString("| " + strings.Join(escapeCells(s.Header), " | ") + " |\n")

	separators := make([]string, len(s.Header))
	for i := range separators {
		separators[i] = "---"
	}
	sb.WriteString("|" + strings.Join(separators, "|") + "|\n")

	for _, row := range s.Rows {
		sb.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |\n")
	}

	if len(s.Footer) > 0 {
		sb.WriteString("\n**" + strings.Join(escapeCells(s.Footer), ", ") + "**\n")
	}

	return sb.String()
}

func escapeCells(cells []string) []string {
	escaped := make([]string, len(cells))
	for i, cell := range cells {
		escaped[i] = escapeCell(cell)
	}
	return escaped
}

// escapeCell keeps literal pipes from breaking the table layout.
func escapeCell(value string) string {
	return strings.ReplaceAll(value, "|", `\|`)
}
