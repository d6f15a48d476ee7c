package schema

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/treedash-cli/internal/table"
)

// ErrColumnNotFound is returned when a canonical dataset lacks a column.
var ErrColumnNotFound = errors.New("column not found")

// Canonical is the normalized dataset handed to every dashboard section.
// It exposes no mutators; sections that need a table of their own call
// Table for a private copy.
type Canonical struct {
	ds *table.Dataset
}

func newCanonical(ds *table.Dataset) *Canonical { return &Canonical{ds: ds} }

// EmptyCanonical returns a canonical dataset with no rows and no columns.
func EmptyCanonical(name string) *Canonical { return newCanonical(table.Empty(name)) }

func (c *Canonical) Name() string { return c.ds.Name }
func (c *Canonical) NumRows() int { return c.ds.NumRows() }
func (c *Canonical) NumCols() int { return c.ds.NumCols() }
func (c *Canonical) Names() []string { return c.ds.Names() }

// Has reports whether the dataset carries a column called name.
func (c *Canonical) Has(name string) bool {
	return c.ds.Index(name) >= 0
}

func (c *Canonical) column(name string) (*table.Column, error) {
	col, ok := c.ds.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return col, nil
}

// Cell returns the value at row for column name.
func (c *Canonical) Cell(row int, name string) (table.Cell, error) {
	col, err := c.column(name)
	if err != nil {
		return table.Missing(), err
	}
	if row < 0 || row >= col.Len() {
		return table.Missing(), fmt.Errorf("row %d out of range [0,%d)", row, col.Len())
	}
	return col.Cells[row], nil
}

// Column returns a copy of the cells of column name.
func (c *Canonical) Column(name string) ([]table.Cell, error) {
	col, err := c.column(name)
	if err != nil {
		return nil, err
	}
	return col.Clone().Cells, nil
}

// Row returns a copy of row i.
func (c *Canonical) Row(i int) []table.Cell { return c.ds.Row(i) }

// Floats returns the numeric values of column name; ok[i] is false where
// the cell is missing or not a number.
func (c *Canonical) Floats(name string) (vals []float64, ok []bool, err error) {
	col, err := c.column(name)
	if err != nil {
		return nil, nil, err
	}
	vals = make([]float64, col.Len())
	ok = make([]bool, col.Len())
	for i, cell := range col.Cells {
		vals[i], ok[i] = cell.Float()
	}
	return vals, ok, nil
}

// Strings returns the display form of column name; missing cells are "".
func (c *Canonical) Strings(name string) ([]string, error) {
	col, err := c.column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, col.Len())
	for i, cell := range col.Cells {
		out[i] = cell.String()
	}
	return out, nil
}

// Table returns a deep copy of the underlying dataset.
func (c *Canonical) Table() *table.Dataset { return c.ds.Clone() }

// Where returns the rows whose cell in column name satisfies match.
func (c *Canonical) Where(name string, match func(table.Cell) bool) (*Canonical, error) {
	col, err := c.column(name)
	if err != nil {
		return nil, err
	}
	var keep []int
	for i, cell := range col.Cells {
		if match(cell) {
			keep = append(keep, i)
		}
	}
	return newCanonical(c.ds.SelectRows(keep)), nil
}
