package report

import (
	"strings"

	"github.com/ecochat-research/analysis/internal/models"
)

// MarkdownTable renders a pipe table. Empty cells stay empty, which is
// how undefined statistics read in the reports.
func MarkdownTable(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(escapeCells(headers), " | ") + " |\n")
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows {
		cells := escapeCells(row)
		for len(cells) < len(headers) {
			cells = append(cells, "")
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

// TableMarkdown renders an aggregate table as a Markdown pipe table.
func TableMarkdown(t *models.Table) string {
	return MarkdownTable(t.Columns, t.Rows)
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", "\\|")
		c = strings.ReplaceAll(c, "\n", " ")
		out[i] = c
	}
	return out
}
