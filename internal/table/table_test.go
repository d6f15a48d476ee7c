package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		msg  string
		in   string
		nf   NumberFormat
		want float64
		ok   bool
	}{
		{"plain int", "50", NumberFormat{}, 50, true},
		{"plain float", "12.25", NumberFormat{}, 12.25, true},
		{"scientific", "1e3", NumberFormat{}, 1000, true},
		{"percent", "87.5%", NumberFormat{}, 87.5, true},
		{"padded percent", " 40 % ", NumberFormat{}, 40, true},
		{"thousands comma", "1,000", NumberFormat{}, 1000, true},
		{"thousands multi", "1,234,567", NumberFormat{}, 1234567, true},
		{"decimal comma", "0,5", NumberFormat{}, 0.5, true},
		{"decimal comma short", "1,5", NumberFormat{}, 1.5, true},
		{"european", "1.234,5", NumberFormat{}, 1234.5, true},
		{"us mixed", "1,234.5", NumberFormat{}, 1234.5, true},
		{"dotted thousands", "1.234.567", NumberFormat{}, 1234567, true},
		{"space thousands", "12 345", NumberFormat{}, 12345, true},
		{"pinned european", "1.000,0", NumberFormat{Decimal: ',', Thousands: '.'}, 1000, true},
		{"pinned decimal comma", "10,5", NumberFormat{Decimal: ','}, 10.5, true},
		{"bad groups", "1,23,4", NumberFormat{}, 0, false},
		{"text", "oak", NumberFormat{}, 0, false},
		{"empty", "", NumberFormat{}, 0, false},
		{"nan", "NaN", NumberFormat{}, 0, false},
		{"inf", "Inf", NumberFormat{}, 0, false},
	}
	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			got, ok := ParseNumber(v.in, v.nf)
			assert.Equal(t, v.ok, ok)
			if v.ok {
				assert.InDelta(t, v.want, got, 1e-9)
			}
		})
	}
}

func TestParseCell(t *testing.T) {
	assert.True(t, ParseCell("", NumberFormat{}).IsMissing())
	assert.True(t, ParseCell(" N/A ", NumberFormat{}).IsMissing())
	assert.True(t, ParseCell("null", NumberFormat{}).IsMissing())
	assert.True(t, ParseCell("-", NumberFormat{}).IsMissing())

	c := ParseCell("42", NumberFormat{})
	assert.Equal(t, KindNumber, c.Kind)
	assert.Equal(t, 42.0, c.Num)

	c = ParseCell("  Quercus rubra ", NumberFormat{})
	assert.Equal(t, KindText, c.Kind)
	assert.Equal(t, "Quercus rubra", c.Str)
}

func TestCell(t *testing.T) {
	assert.True(t, Number(math.NaN()).IsMissing())
	assert.True(t, Number(math.Inf(1)).IsMissing())

	f, ok := Text("75%").Float()
	assert.True(t, ok)
	assert.Equal(t, 75.0, f)

	_, ok = Text("maple").Float()
	assert.False(t, ok)
	_, ok = Missing().Float()
	assert.False(t, ok)

	assert.Equal(t, "2.5", Number(2.5).String())
	assert.Equal(t, "", Missing().String())
	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(Text("1")))
	assert.True(t, Missing().Equal(Missing()))
	assert.Equal(t, "text", KindText.String())
}

func sample() *Dataset {
	return New("trees", []string{"site", "alive"}, [][]Cell{
		{Text("A"), Number(10)},
		{Text("B")},
		{Text("A"), Number(10), Text("extra")},
	})
}

func TestNewPadsRaggedRows(t *testing.T) {
	ds := sample()
	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, 2, ds.NumCols())
	assert.Equal(t, []string{"site", "alive"}, ds.Names())
	assert.True(t, ds.Row(1)[1].IsMissing())
	assert.Equal(t, 1, ds.Index("alive"))
	assert.Equal(t, -1, ds.Index("species"))
}

func TestEmpty(t *testing.T) {
	ds := Empty("planting")
	require.NotNil(t, ds)
	assert.Equal(t, "planting", ds.Name)
	assert.Equal(t, 0, ds.NumRows())
	assert.Equal(t, 0, ds.NumCols())
	assert.True(t, ds.IsEmpty())
}

func TestAddColumn(t *testing.T) {
	ds := sample()
	err := ds.AddColumn(&Column{Name: "site", Cells: make([]Cell, 3)})
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	err = ds.AddColumn(&Column{Name: "planted", Cells: make([]Cell, 2)})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	require.NoError(t, ds.AddColumn(&Column{Name: "planted", Cells: make([]Cell, 3)}))
	assert.Equal(t, 3, ds.NumCols())
}

func TestCloneIsDeep(t *testing.T) {
	ds := sample()
	cp := ds.Clone()
	cp.Columns[0].Name = "renamed"
	cp.Columns[1].Cells[0] = Number(99)

	assert.Equal(t, "site", ds.Columns[0].Name)
	assert.Equal(t, 10.0, ds.Columns[1].Cells[0].Num)
}

func TestDropDuplicateRows(t *testing.T) {
	ds := sample()
	removed := ds.DropDuplicateRows()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, ds.NumRows())
	assert.Equal(t, "B", ds.Row(1)[0].Str)

	assert.Equal(t, 0, ds.DropDuplicateRows())
}
