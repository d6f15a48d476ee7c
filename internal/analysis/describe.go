package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/KaramelBytes/treedash-cli/internal/table"
)

// Options controls Describe.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset summaries.
func DefaultOptions() Options {
	return Options{SampleRows: 5, Correlations: true, Outliers: true, OutlierThreshold: 3.5}
}

// Report is a markdown-friendly summary of a dataset.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Groups   []GroupResult
	Corr     *CorrMatrix
	Warnings []string
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical|text|empty
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []Count
	ExampleTexts []string
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// colAcc accumulates one column with Welford's running mean/variance.
type colAcc struct {
	name   string
	unit   string
	nonNil int
	miss   int
	n      int
	mean   float64
	m2     float64
	min    float64
	max    float64
	txtCnt int
	cats   map[string]int
	exText []string
	vals   []float64
}

func (c *colAcc) addNumber(x float64) {
	c.n++
	if x < c.min {
		c.min = x
	}
	if x > c.max {
		c.max = x
	}
	delta := x - c.mean
	c.mean += delta / float64(c.n)
	c.m2 += delta * (x - c.mean)
	c.vals = append(c.vals, x)
}

type gAcc struct {
	size int
	sum  map[int]float64
	cnt  map[int]int
	min  map[int]float64
	max  map[int]float64
}

// Describe summarizes every column of ds.
func Describe(ds *table.Dataset, opt Options) *Report {
	rep := &Report{Name: ds.Name, Rows: ds.NumRows()}
	ncol := ds.NumCols()
	if ncol == 0 {
		return rep
	}
	cols := make([]*colAcc, ncol)
	gbIndex := map[string]int{}
	for i, col := range ds.Columns {
		clean, unit := splitUnits(col.Name)
		cols[i] = &colAcc{name: clean, unit: unit, min: math.Inf(1), max: math.Inf(-1), cats: map[string]int{}}
		gbIndex[strings.ToLower(strings.TrimSpace(col.Name))] = i
		gbIndex[strings.ToLower(clean)] = i
	}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}

	pair := map[int]*pairAcc{} // key = j*ncol + k with j>k
	groups := map[string]*gAcc{}

	for r := 0; r < ds.NumRows(); r++ {
		row := ds.Row(r)
		if len(rep.Samples) < sampleRows {
			s := make([]string, ncol)
			for j, c := range row {
				s[j] = c.String()
			}
			rep.Samples = append(rep.Samples, s)
		}
		gkey := groupKey(opt.GroupBy, gbIndex, cols, row)
		var numIdx []int
		rowNums := make([]float64, ncol)
		for j, cell := range row {
			c := cols[j]
			if cell.IsMissing() {
				c.miss++
				continue
			}
			c.nonNil++
			if x, ok := cell.Float(); ok {
				c.addNumber(x)
				rowNums[j] = x
				numIdx = append(numIdx, j)
				if gkey != "" {
					groups[gkey] = addGroup(groups[gkey], j, x)
				}
				continue
			}
			v := strings.TrimSpace(cell.String())
			c.txtCnt++
			if len(c.cats) <= 10000 && len(v) <= 64 {
				c.cats[v]++
			}
			if len(c.exText) < 3 {
				c.exText = append(c.exText, v)
			}
		}
		if gkey != "" {
			g := groups[gkey]
			if g == nil {
				g = newGAcc()
				groups[gkey] = g
			}
			g.size++
		}
		if opt.Correlations {
			for a := 1; a < len(numIdx); a++ {
				j := numIdx[a]
				for b := 0; b < a; b++ {
					k := numIdx[b]
					key := j*ncol + k
					if pair[key] == nil {
						pair[key] = &pairAcc{}
					}
					pair[key].add(rowNums[j], rowNums[k])
				}
			}
		}
	}

	var numCols []int
	for i, c := range cols {
		s := ColumnSummary{Name: c.name, Unit: c.unit, NonNull: c.nonNil, Missing: c.miss}
		switch {
		case c.n > 0 && c.n >= c.txtCnt:
			s.Kind = "numeric"
			s.Min, s.Max, s.Mean = c.min, c.max, c.mean
			if c.n > 1 {
				s.Std = math.Sqrt(c.m2 / float64(c.n-1))
			}
			numCols = append(numCols, i)
			if opt.Outliers && len(c.vals) >= 8 {
				s.OutliersCount, s.OutliersMaxAbsZ, s.OutlierThreshold = outliers(c.vals, opt.OutlierThreshold)
			}
		case len(c.cats) > 0 && len(c.cats) < c.txtCnt:
			s.Kind = "categorical"
			s.TopValues, s.Unique = topValues(c.cats, 8)
		case c.txtCnt > 0:
			s.Kind = "text"
			s.ExampleTexts = c.exText
		default:
			s.Kind = "empty"
		}
		c.vals = nil
		rep.Cols = append(rep.Cols, s)
	}

	rep.Groups = groupResults(groups, numCols, cols)
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = corrMatrix(pair, numCols, cols, ncol)
	}
	for _, name := range opt.GroupBy {
		if _, ok := gbIndex[strings.ToLower(strings.TrimSpace(name))]; !ok {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("group-by column %q not found", name))
		}
	}
	return rep
}

func newGAcc() *gAcc {
	return &gAcc{sum: map[int]float64{}, cnt: map[int]int{}, min: map[int]float64{}, max: map[int]float64{}}
}

func addGroup(g *gAcc, j int, x float64) *gAcc {
	if g == nil {
		g = newGAcc()
	}
	g.sum[j] += x
	g.cnt[j]++
	if v, ok := g.min[j]; !ok || x < v {
		g.min[j] = x
	}
	if v, ok := g.max[j]; !ok || x > v {
		g.max[j] = x
	}
	return g
}

func groupKey(by []string, index map[string]int, cols []*colAcc, row []table.Cell) string {
	var parts []string
	for _, name := range by {
		idx, ok := index[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", cols[idx].name, safeVal(row[idx].String())))
	}
	return strings.Join(parts, " | ")
}

func outliers(vals []float64, thr float64) (count int, maxAbsZ, threshold float64) {
	if thr <= 0 {
		thr = 3.5
	}
	median, mad := medianMAD(vals)
	if mad > 0 {
		for _, v := range vals {
			az := math.Abs(0.6745 * (v - median) / mad)
			if az > thr {
				count++
			}
			if az > maxAbsZ {
				maxAbsZ = az
			}
		}
	}
	return count, maxAbsZ, thr
}

func topValues(cats map[string]int, limit int) ([]Count, int) {
	tops := make([]Count, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, Count{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops, len(cats)
}

func groupResults(groups map[string]*gAcc, numCols []int, cols []*colAcc) []GroupResult {
	if len(groups) == 0 {
		return nil
	}
	outs := make([]GroupResult, 0, len(groups))
	for k, ga := range groups {
		gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
		for _, idx := range numCols {
			if ga.cnt[idx] == 0 {
				continue
			}
			gr.Metrics[cols[idx].name] = NumSummary{Count: ga.cnt[idx], Min: ga.min[idx], Max: ga.max[idx], Mean: ga.sum[idx] / float64(ga.cnt[idx])}
		}
		outs = append(outs, gr)
	}
	sort.Slice(outs, func(i, j int) bool {
		if outs[i].Size == outs[j].Size {
			return outs[i].Key < outs[j].Key
		}
		return outs[i].Size > outs[j].Size
	})
	if len(outs) > 20 {
		outs = outs[:20]
	}
	return outs
}

func corrMatrix(pair map[int]*pairAcc, numCols []int, cols []*colAcc, ncol int) *CorrMatrix {
	n := len(numCols)
	names := make([]string, n)
	mat := make([][]float64, n)
	for i, idx := range numCols {
		names[i] = cols[idx].name
		mat[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			if a == b {
				mat[a][b] = 1
				continue
			}
			ia, ib := numCols[a], numCols[b]
			key := max(ia, ib)*ncol + min(ia, ib)
			r, _ := pair[key].r()
			mat[a][b] = r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}
}

// Markdown renders the report as a compact plain-text document.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Dataset: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(" — e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		names := make([]string, len(r.Cols))
		dashes := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			names[i] = safeName(c.Name)
			dashes[i] = "---"
		}
		b.WriteString("| " + strings.Join(names, " | ") + " |\n")
		b.WriteString("| " + strings.Join(dashes, " | ") + " |\n")
		for _, row := range r.Samples {
			vals := make([]string, len(r.Cols))
			for i := range r.Cols {
				if i < len(row) {
					v := row[i]
					v = runewidth.Truncate(v, 80, "...")
					vals[i] = safeVal(v)
				}
			}
			b.WriteString("| " + strings.Join(vals, " | ") + " |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}
