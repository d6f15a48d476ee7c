package loader

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/treedash-cli/internal/table"
)

// AutoHeader asks the loader to find the header among the first few
// non-blank rows instead of skipping a fixed number.
const AutoHeader = -1

// autoHeaderWindow is how many leading rows may precede the header in
// source workbooks (title and subtitle lines).
const autoHeaderWindow = 3

type buildOptions struct {
	SkipRows       int
	DropDuplicates bool
}

// buildDataset strips blank rows, locates the header and shapes the rest
// into a dataset. It returns the number of duplicate rows removed.
func buildDataset(name string, rows [][]table.Cell, opt buildOptions) (*table.Dataset, int, error) {
	rows = stripBlank(rows)
	hdr := opt.SkipRows
	if hdr < 0 {
		hdr = detectHeader(rows)
	}
	if hdr >= len(rows) {
		return nil, 0, fmt.Errorf("%w: %d non-blank rows, header expected at row %d", ErrNoHeader, len(rows), hdr+1)
	}
	header := headerNames(rows[hdr])
	if len(header) == 0 {
		return nil, 0, ErrNoHeader
	}
	ds := table.New(name, header, rows[hdr+1:])
	var dropped int
	if opt.DropDuplicates {
		dropped = ds.DropDuplicateRows()
	}
	return ds, dropped, nil
}

func blank(row []table.Cell) bool {
	for _, c := range row {
		if !c.IsMissing() {
			return false
		}
	}
	return true
}

func stripBlank(rows [][]table.Cell) [][]table.Cell {
	out := rows[:0:0]
	for _, r := range rows {
		if !blank(r) {
			out = append(out, r)
		}
	}
	return out
}

// detectHeader picks the first row in the leading window that is all text
// and spans at least half the width of the widest nearby row. Title rows
// usually hold a single cell, so they are passed over.
func detectHeader(rows [][]table.Cell) int {
	limit := autoHeaderWindow
	if limit > len(rows) {
		limit = len(rows)
	}
	width := 0
	for i := 0; i < len(rows) && i <= autoHeaderWindow; i++ {
		if n := filled(rows[i]); n > width {
			width = n
		}
	}
	for i := 0; i < limit; i++ {
		if allText(rows[i]) && 2*filled(rows[i]) > width {
			return i
		}
	}
	return 0
}

func filled(row []table.Cell) int {
	n := 0
	for _, c := range row {
		if !c.IsMissing() {
			n++
		}
	}
	return n
}

func allText(row []table.Cell) bool {
	for _, c := range row {
		if c.Kind == table.KindNumber {
			return false
		}
	}
	return true
}

// headerNames trims trailing empty header cells and names the remaining
// gaps unnamed_<n>.
func headerNames(row []table.Cell) []string {
	end := len(row)
	for end > 0 && row[end-1].IsMissing() {
		end--
	}
	out := make([]string, end)
	for i := 0; i < end; i++ {
		name := strings.TrimSpace(row[i].String())
		if name == "" {
			name = fmt.Sprintf("unnamed_%d", i)
		}
		out[i] = name
	}
	return out
}
