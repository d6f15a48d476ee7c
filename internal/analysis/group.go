// Package analysis aggregates canonical datasets for dashboard sections:
// grouped means, value counts, trendlines and column summaries.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/treedash-cli/internal/schema"
	"github.com/KaramelBytes/treedash-cli/internal/table"
)

var (
	// ErrColumnNotFound aliases the schema error so callers need one import.
	ErrColumnNotFound = schema.ErrColumnNotFound
	// ErrNotNumeric is returned when a value column holds no numbers.
	ErrNotNumeric = errors.New("column is not numeric")
)

// Order declares how grouped results are sorted.
type Order int

const (
	// OrderByKey sorts by group key; numeric keys compare as numbers.
	// Use it for time series.
	OrderByKey Order = iota
	// OrderByMeanAsc sorts by ascending mean.
	OrderByMeanAsc
	// OrderByMeanDesc sorts by descending mean, for ranked bar charts.
	OrderByMeanDesc
)

// ParseOrder maps "key", "asc" and "desc" to an Order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "key":
		return OrderByKey, nil
	case "asc":
		return OrderByMeanAsc, nil
	case "desc":
		return OrderByMeanDesc, nil
	}
	return 0, fmt.Errorf("unknown order %q (want key|asc|desc)", s)
}

func (o Order) String() string {
	switch o {
	case OrderByMeanAsc:
		return "asc"
	case OrderByMeanDesc:
		return "desc"
	}
	return "key"
}

// Group is the mean of a value column over one key.
type Group struct {
	Key   string
	Count int
	Mean  float64
}

// GroupMean averages value per distinct key. Rows with a missing key or a
// missing value are skipped.
func GroupMean(c *schema.Canonical, key, value string, order Order) ([]Group, error) {
	keys, err := c.Column(key)
	if err != nil {
		return nil, err
	}
	vals, ok, err := c.Floats(value)
	if err != nil {
		return nil, err
	}
	if !anyTrue(ok) && c.NumRows() > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotNumeric, value)
	}
	type acc struct {
		sum float64
		n   int
	}
	accs := map[string]*acc{}
	var seen []string
	for i, k := range keys {
		if k.IsMissing() || !ok[i] {
			continue
		}
		ks := k.String()
		a := accs[ks]
		if a == nil {
			a = &acc{}
			accs[ks] = a
			seen = append(seen, ks)
		}
		a.sum += vals[i]
		a.n++
	}
	out := make([]Group, 0, len(seen))
	for _, k := range seen {
		a := accs[k]
		out = append(out, Group{Key: k, Count: a.n, Mean: a.sum / float64(a.n)})
	}
	sortGroups(out, order)
	return out, nil
}

func sortGroups(gs []Group, order Order) {
	sort.SliceStable(gs, func(i, j int) bool {
		a, b := gs[i], gs[j]
		switch order {
		case OrderByMeanAsc:
			if a.Mean != b.Mean {
				return a.Mean < b.Mean
			}
		case OrderByMeanDesc:
			if a.Mean != b.Mean {
				return a.Mean > b.Mean
			}
		}
		return keyLess(a.Key, b.Key)
	})
}

// keyLess orders numeric keys numerically before any text key.
func keyLess(a, b string) bool {
	fa, ea := strconv.ParseFloat(a, 64)
	fb, eb := strconv.ParseFloat(b, 64)
	switch {
	case ea == nil && eb == nil:
		if fa != fb {
			return fa < fb
		}
		return a < b
	case ea == nil:
		return true
	case eb == nil:
		return false
	}
	return a < b
}

func anyTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}

// Count is the number of rows sharing one value.
type Count struct {
	Value string
	Count int
}

// ValueCounts tallies non-missing values of column name, most frequent first.
func ValueCounts(c *schema.Canonical, name string) ([]Count, error) {
	cells, err := c.Column(name)
	if err != nil {
		return nil, err
	}
	tally := map[string]int{}
	for _, cell := range cells {
		if cell.IsMissing() {
			continue
		}
		tally[cell.String()]++
	}
	out := make([]Count, 0, len(tally))
	for k, v := range tally {
		out = append(out, Count{Value: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return keyLess(out[i].Value, out[j].Value)
		}
		return out[i].Count > out[j].Count
	})
	return out, nil
}

// Filter keeps rows whose column equals value. Numeric cells match when
// value parses to the same number, so "2019" matches 2019.
func Filter(c *schema.Canonical, column, value string) (*schema.Canonical, error) {
	want := strings.TrimSpace(value)
	wantNum, isNum := table.ParseNumber(want, table.NumberFormat{})
	return c.Where(column, func(cell table.Cell) bool {
		if cell.Kind == table.KindNumber && isNum {
			return math.Abs(cell.Num-wantNum) < 1e-9
		}
		return strings.EqualFold(cell.String(), want)
	})
}
