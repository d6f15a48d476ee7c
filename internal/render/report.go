package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/treedash-cli/internal/schema"
)

// ReportMarkdown renders a capability report: usable fields, derived
// metrics, degradations and the availability of every view.
func ReportMarkdown(rep *schema.Report, rows int) string {
	var b strings.Builder
	b.WriteString("[CAPABILITY REPORT]\n")
	b.WriteString(fmt.Sprintf("Dataset: %s\n", rep.Dataset))
	b.WriteString(fmt.Sprintf("Rows: %s\n", humanize.Comma(int64(rows))))
	b.WriteString(fmt.Sprintf("Fields: %s\n", listOrNone(rep.Present)))
	if len(rep.Derived) > 0 {
		b.WriteString(fmt.Sprintf("Derived: %s\n", strings.Join(rep.Derived, ", ")))
	}
	if len(rep.Provided) > 0 {
		b.WriteString(fmt.Sprintf("Provided by source: %s\n", strings.Join(rep.Provided, ", ")))
	}
	if len(rep.Extra) > 0 {
		b.WriteString(fmt.Sprintf("Other columns: %s\n", strings.Join(rep.Extra, ", ")))
	}
	if len(rep.Unusable) > 0 {
		b.WriteString("\n[UNUSABLE FIELDS]\n")
		writeReasons(&b, rep.Unusable)
	}
	if len(rep.Unavailable) > 0 {
		b.WriteString("\n[UNAVAILABLE METRICS]\n")
		writeReasons(&b, rep.Unavailable)
	}

	b.WriteString("\n[VIEWS]\n")
	rowsOut := make([][]string, len(rep.Views))
	for i, v := range rep.Views {
		status := "available"
		if !v.Available {
			status = rep.Diagnostic(v.Name)
		}
		rowsOut[i] = []string{v.Name, status}
	}
	b.WriteString(MarkdownTable([]string{"view", "status"}, rowsOut))
	return b.String()
}

func writeReasons(b *strings.Builder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("- %s: %s\n", k, m[k]))
	}
}

func listOrNone(s []string) string {
	if len(s) == 0 {
		return "(none)"
	}
	return strings.Join(s, ", ")
}
