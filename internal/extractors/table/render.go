// Package table renders extracted tables as HTML, CSV and markdown.
package table

import (
	"bytes"
	"encoding/csv"
	"html"
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// New builds a table from a grid whose first row is the header.
// Ragged rows are padded to the widest row. Returns nil for an empty grid.
func New(index int, caption string, grid [][]string) *domain.Table {
	grid = trimEmptyRows(grid)
	if len(grid) == 0 {
		return nil
	}

	width := 0
	for _, row := range grid {
		width = max(width, len(row))
	}
	padded := make([][]string, len(grid))
	for i, row := range grid {
		cells := make([]string, width)
		for j, cell := range row {
			cells[j] = strings.TrimSpace(cell)
		}
		padded[i] = cells
	}

	t := &domain.Table{
		Index:   index,
		Caption: caption,
		Headers: padded[0],
		Rows:    padded[1:],
	}
	t.HTML = HTML(t)
	t.CSV = CSV(t)
	return t
}

// HTML renders a table as an escaped HTML <table>.
func HTML(t *domain.Table) string {
	var b strings.Builder
	b.WriteString("<table>")
	if t.Caption != "" {
		b.WriteString("<caption>" + html.EscapeString(t.Caption) + "</caption>")
	}
	if len(t.Headers) > 0 {
		b.WriteString("<thead><tr>")
		for _, h := range t.Headers {
			b.WriteString("<th>" + html.EscapeString(h) + "</th>")
		}
		b.WriteString("</tr></thead>")
	}
	b.WriteString("<tbody>")
	for _, row := range t.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

// CSV renders a table as RFC 4180 CSV, header first.
func CSV(t *domain.Table) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(t.Headers) > 0 {
		_ = w.Write(t.Headers)
	}
	for _, row := range t.Rows {
		_ = w.Write(row)
	}
	w.Flush()
	return buf.String()
}

// Markdown renders a table as a GitHub-style pipe table.
func Markdown(t *domain.Table) string {
	if len(t.Headers) == 0 {
		return ""
	}
	var b strings.Builder
	writeRow(&b, t.Headers)
	b.WriteString("|")
	for range t.Headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range t.Rows {
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, cell := range cells {
		cell = strings.ReplaceAll(cell, "|", `\|`)
		cell = strings.ReplaceAll(cell, "\n", " ")
		b.WriteString(" " + cell + " |")
	}
	b.WriteString("\n")
}

// trimEmptyRows drops rows whose cells are all blank.
func trimEmptyRows(grid [][]string) [][]string {
	out := grid[:0:0]
	for _, row := range grid {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
