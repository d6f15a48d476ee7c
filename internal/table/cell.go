package table

import (
	"math"
	"strconv"
	"strings"
)

// CellKind tags the value held by a Cell.
type CellKind uint8

const (
	KindMissing CellKind = iota
	KindNumber
	KindText
)

func (k CellKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Cell is a single typed value: missing, numeric or text.
type Cell struct {
	Kind CellKind
	Num  float64
	Str  string
}

// Missing returns the missing cell.
func Missing() Cell { return Cell{} }

// Number returns a numeric cell. NaN and ±Inf are stored as missing.
func Number(f float64) Cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Cell{}
	}
	return Cell{Kind: KindNumber, Num: f}
}

// Text returns a text cell.
func Text(s string) Cell { return Cell{Kind: KindText, Str: s} }

func (c Cell) IsMissing() bool { return c.Kind == KindMissing }

// Float reports the numeric value of c. Text cells holding a number
// ("50", "12.5%", "1,000") convert; everything else does not.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case KindNumber:
		return c.Num, true
	case KindText:
		return ParseNumber(c.Str, NumberFormat{})
	}
	return 0, false
}

func (c Cell) String() string {
	switch c.Kind {
	case KindNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case KindText:
		return c.Str
	}
	return ""
}

// Equal reports whether both cells hold the same kind and value.
func (c Cell) Equal(o Cell) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case KindNumber:
		return c.Num == o.Num
	case KindText:
		return c.Str == o.Str
	}
	return true
}

var nullTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
	"-":    {},
	"#n/a": {},
}

// IsNull reports whether s is one of the placeholder tokens spreadsheets use
// for an absent value (blank, NA, N/A, null, ...).
func IsNull(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseCell types a raw text value the way a CSV source needs it:
// null-like tokens become missing, numbers become numeric, the rest stays text.
func ParseCell(s string, nf NumberFormat) Cell {
	v := strings.TrimSpace(s)
	if IsNull(v) {
		return Missing()
	}
	if f, ok := ParseNumber(v, nf); ok {
		return Number(f)
	}
	return Text(v)
}
