package output

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

func renderTables(sections []section) string {
	rendered := make([]string, 0, len(sections))
	for _, sec := range sections {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		if sec.title != "" {
			t.SetTitle(sec.title)
		}
		t.AppendHeader(toRow(sec.header))
		for _, row := range sec.rows {
			t.AppendRow(toRow(row))
		}
		rendered = append(rendered, t.Render())
	}
	return strings.Join(rendered, "\n\n")
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return row
}
