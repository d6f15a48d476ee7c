// Package table holds the in-memory tabular dataset shared by the loader,
// the schema normalizer and the analysis helpers.
package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateColumn is returned when a column name is already taken.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrLengthMismatch is returned when a column length differs from the row count.
	ErrLengthMismatch = errors.New("column length mismatch")
)

// Column is a named sequence of cells.
type Column struct {
	Name  string
	Cells []Cell
}

func (c *Column) Len() int { return len(c.Cells) }

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	cells := make([]Cell, len(c.Cells))
	copy(cells, c.Cells)
	return &Column{Name: c.Name, Cells: cells}
}

// Dataset is an ordered set of equal-length columns.
type Dataset struct {
	Name    string
	Columns []*Column
}

// Empty returns a dataset with zero rows and zero columns.
func Empty(name string) *Dataset {
	return &Dataset{Name: name, Columns: []*Column{}}
}

// New builds a dataset from a header and row-major cells. Short rows are
// padded with missing cells and long rows are truncated to the header width.
func New(name string, header []string, rows [][]Cell) *Dataset {
	ds := &Dataset{Name: name, Columns: make([]*Column, len(header))}
	for i, h := range header {
		ds.Columns[i] = &Column{Name: h, Cells: make([]Cell, len(rows))}
	}
	for r, row := range rows {
		for i := range header {
			if i < len(row) {
				ds.Columns[i].Cells[r] = row[i]
			}
		}
	}
	return ds
}

func (d *Dataset) NumRows() int {
	if d == nil || len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Cells)
}

func (d *Dataset) NumCols() int {
	if d == nil {
		return 0
	}
	return len(d.Columns)
}

// IsEmpty reports whether the dataset has no columns or no rows.
func (d *Dataset) IsEmpty() bool { return d.NumCols() == 0 || d.NumRows() == 0 }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, 0, d.NumCols())
	for _, c := range d.Columns {
		out = append(out, c.Name)
	}
	return out
}

// Index returns the position of the first column called name, or -1.
func (d *Dataset) Index(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the first column called name.
func (d *Dataset) Column(name string) (*Column, bool) {
	if i := d.Index(name); i >= 0 {
		return d.Columns[i], true
	}
	return nil, false
}

// Row returns a copy of row i across all columns.
func (d *Dataset) Row(i int) []Cell {
	out := make([]Cell, len(d.Columns))
	for j, c := range d.Columns {
		out[j] = c.Cells[i]
	}
	return out
}

// AddColumn appends c. Its length must match the row count (any length is
// accepted for the first column) and its name must be unused.
func (d *Dataset) AddColumn(c *Column) error {
	if d.Index(c.Name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
	}
	if len(d.Columns) > 0 && c.Len() != d.NumRows() {
		return fmt.Errorf("%w: %q has %d cells, dataset has %d rows", ErrLengthMismatch, c.Name, c.Len(), d.NumRows())
	}
	d.Columns = append(d.Columns, c)
	return nil
}

// Clone returns a deep copy; mutating the clone never affects d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{Name: d.Name, Columns: make([]*Column, len(d.Columns))}
	for i, c := range d.Columns {
		out.Columns[i] = c.Clone()
	}
	return out
}

// SelectRows returns a new dataset holding only the given rows, in order.
func (d *Dataset) SelectRows(rows []int) *Dataset {
	out := &Dataset{Name: d.Name, Columns: make([]*Column, len(d.Columns))}
	for i, c := range d.Columns {
		cells := make([]Cell, len(rows))
		for j, r := range rows {
			cells[j] = c.Cells[r]
		}
		out.Columns[i] = &Column{Name: c.Name, Cells: cells}
	}
	return out
}

// DropDuplicateRows removes rows identical to an earlier row, keeping the
// first occurrence. It returns the number of rows removed.
func (d *Dataset) DropDuplicateRows() int {
	n := d.NumRows()
	if n < 2 {
		return 0
	}
	seen := make(map[string]struct{}, n)
	keep := make([]int, 0, n)
	for r := 0; r < n; r++ {
		k := rowKey(d.Row(r))
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, r)
	}
	if len(keep) == n {
		return 0
	}
	d.Columns = d.SelectRows(keep).Columns
	return n - len(keep)
}

func rowKey(row []Cell) string {
	var b strings.Builder
	for _, c := range row {
		b.WriteByte(byte('0' + c.Kind))
		b.WriteString(c.String())
		b.WriteByte(0x1f)
	}
	return b.String()
}
