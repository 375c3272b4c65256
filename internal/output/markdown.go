package output

import (
	"fmt"
	"strings"
)

func renderMarkdown(sections []section) string {
	var sb strings.Builder
	for i, sec := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		if sec.title != "" {
			sb.WriteString(fmt.Sprintf("### %s\n\n", escapeMarkdownCell(sec.title)))
		}
		writeMarkdownRow(&sb, sec.header)
		sep := make([]string, len(sec.header))
		for j := range sep {
			sep[j] = "---"
		}
		writeMarkdownRow(&sb, sep)
		for _, row := range sec.rows {
			writeMarkdownRow(&sb, row)
		}
	}
	return sb.String()
}

func writeMarkdownRow(sb *strings.Builder, cells []string) {
	escaped := make([]string, len(cells))
	for i, cell := range cells {
		escaped[i] = escapeMarkdownCell(cell)
	}
	sb.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.ReplaceAll(value, "|", "\\|")
}
