package loader

import (
	"fmt"

	"github.com/KaramelBytes/treedash-cli/internal/table"
)

// SheetSelector binds a workbook sheet by name (case-insensitive) or by
// 0-based position in workbook order. The zero value selects the first
// sheet; that is a convention, not a promise about what the sheet holds.
type SheetSelector struct {
	Name  string
	Index int
}

func (s SheetSelector) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("#%d", s.Index)
}

type readOptions struct {
	Sheet     SheetSelector
	Delimiter rune
	Numbers   table.NumberFormat
}

// reader turns source bytes into untyped-header rows of typed cells.
type reader interface {
	CanRead(f Format) bool
	Read(data []byte, opt readOptions) ([][]table.Cell, error)
}

// sheetLister is implemented by readers of multi-sheet sources.
type sheetLister interface {
	Sheets(data []byte) ([]string, error)
}

var registry []reader

func register(r reader) {
	registry = append(registry, r)
}

func readerFor(f Format) (reader, error) {
	for _, r := range registry {
		if r.CanRead(f) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

func init() {
	register(csvReader{})
	register(xlsxReader{})
}
