package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// table renders the sheet as a rounded ASCII table.
func (s sheet) table() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	if len(s.Header) > 0 {
		t.AppendHeader(toRow(s.Header))
	}
	for _, row := range s.Rows {
		t.AppendRow(toRow(row))
	}
	if len(s.Footer) > 0 {
		t.AppendFooter(toRow(s.Footer))
	}

	return t.Render()
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return row
}
