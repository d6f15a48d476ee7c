// Package render turns canonical datasets, aggregations and capability
// reports into Markdown text and PNG charts.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/KaramelBytes/treedash-cli/internal/analysis"
	"github.com/KaramelBytes/treedash-cli/internal/schema"
)

// MarkdownTable lays out a pipe table whose columns are padded to their
// display width, so CJK and emoji cells stay aligned.
func MarkdownTable(header []string, rows [][]string) string {
	colCount := len(header)
	for _, r := range rows {
		if len(r) > colCount {
			colCount = len(r)
		}
	}
	if colCount == 0 {
		return ""
	}
	widths := make([]int, colCount)
	measure := func(row []string) {
		for i := 0; i < len(row) && i < colCount; i++ {
			if w := runewidth.StringWidth(cellText(row[i])); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(header)
	for _, r := range rows {
		measure(r)
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	var b strings.Builder
	writeRow := func(row []string) {
		b.WriteString("|")
		for j := 0; j < colCount; j++ {
			content := ""
			if j < len(row) {
				content = cellText(row[j])
			}
			b.WriteString(" ")
			b.WriteString(content)
			if pad := widths[j] - runewidth.StringWidth(content); pad > 0 {
				b.WriteString(strings.Repeat(" ", pad))
			}
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(header)
	b.WriteString("|")
	for _, w := range widths {
		b.WriteString(" " + strings.Repeat("-", w) + " |")
	}
	b.WriteString("\n")
	for _, r := range rows {
		writeRow(r)
	}
	return b.String()
}

func cellText(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s), "\n", " "), "|", "/")
}

// Preview renders the first n rows of c.
func Preview(c *schema.Canonical, n int) string {
	if n > c.NumRows() || n < 0 {
		n = c.NumRows()
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		cells := c.Row(i)
		rows[i] = make([]string, len(cells))
		for j, cell := range cells {
			rows[i][j] = cell.String()
		}
	}
	return MarkdownTable(c.Names(), rows)
}

// Groups renders grouped means with their row counts.
func Groups(groups []analysis.Group, key, value string) string {
	rows := make([][]string, len(groups))
	for i, g := range groups {
		rows[i] = []string{g.Key, humanize.Comma(int64(g.Count)), formatFloat(g.Mean)}
	}
	return MarkdownTable([]string{key, "rows", "mean " + value}, rows)
}

// Counts renders a value tally.
func Counts(counts []analysis.Count, label string) string {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Value, humanize.Comma(int64(c.Count))}
	}
	return MarkdownTable([]string{label, "count"}, rows)
}

// FitSummary describes a trendline in one line.
func FitSummary(f analysis.Fit) string {
	if !f.Defined {
		return fmt.Sprintf("%s ~ %s: trendline undefined (n=%d)", f.Y, f.X, f.N)
	}
	return fmt.Sprintf("%s = %s × %s + %s (r=%.3f, n=%s)",
		f.Y, formatFloat(f.Slope), f.X, formatFloat(f.Intercept), f.R, humanize.Comma(int64(f.N)))
}

// formatFloat rounds to two decimals; FtoaWithDigits alone truncates.
func formatFloat(f float64) string {
	return humanize.FtoaWithDigits(math.Round(f*100)/100, 2)
}
