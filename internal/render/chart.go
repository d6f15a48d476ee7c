package render

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/treedash-cli/internal/analysis"
)

// ErrNothingToPlot is returned when a chart would have no data.
var ErrNothingToPlot = errors.New("nothing to plot")

// Size is the PNG size in pixels. Zero fields fall back to 800x480.
type Size struct {
	Width  int
	Height int
}

func (s Size) dims() (int, int) {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 480
	}
	return w, h
}

var background = chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}}

// BarChart draws one bar per group mean, in the order given.
func BarChart(w io.Writer, title string, groups []analysis.Group, size Size) error {
	if len(groups) == 0 {
		return ErrNothingToPlot
	}
	bars := make([]chart.Value, len(groups))
	top := 0.0
	for i, g := range groups {
		bars[i] = chart.Value{Label: g.Key, Value: g.Mean}
		top = math.Max(top, g.Mean)
	}
	if top <= 0 {
		top = 1
	}
	width, height := size.dims()
	bc := chart.BarChart{
		Title:      title,
		Background: background,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth(width, len(bars)),
		XAxis:      chart.Style{FontSize: 8},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1}},
		Bars:       bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

func barWidth(width, n int) int {
	bw := (width - 80) / (2 * n)
	if bw < 4 {
		bw = 4
	}
	if bw > 60 {
		bw = 60
	}
	return bw
}

// LineChart draws a time series of grouped means; keys must be numeric
// (years). At least two points are required.
func LineChart(w io.Writer, title, xName, yName string, groups []analysis.Group, size Size) error {
	var xs, ys []float64
	for _, g := range groups {
		var x float64
		if _, err := fmt.Sscanf(g.Key, "%g", &x); err != nil {
			return fmt.Errorf("line chart: key %q is not numeric", g.Key)
		}
		xs = append(xs, x)
		ys = append(ys, g.Mean)
	}
	if len(xs) < 2 {
		return fmt.Errorf("%w: line chart needs at least two points", ErrNothingToPlot)
	}
	series := chart.ContinuousSeries{
		Name:    yName,
		XValues: xs,
		YValues: ys,
		Style:   chart.Style{StrokeWidth: 2, StrokeColor: chart.ColorBlue, DotWidth: 3, DotColor: chart.ColorBlue},
	}
	return renderChart(w, title, xName, yName, size, xs, ys, series)
}

// ScatterWithTrend draws points and, when fit is defined, its OLS line.
func ScatterWithTrend(w io.Writer, title string, pts []analysis.Point, fit analysis.Fit, size Size) error {
	if len(pts) == 0 {
		return ErrNothingToPlot
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	series := []chart.Series{chart.ContinuousSeries{
		Name:    "observed",
		XValues: xs,
		YValues: ys,
		Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 4, DotColor: chart.ColorBlue},
	}}
	if fit.Defined {
		lo, hi := extent(xs)
		series = append(series, chart.ContinuousSeries{
			Name:    "trend",
			XValues: []float64{lo, hi},
			YValues: []float64{fit.At(lo), fit.At(hi)},
			Style:   chart.Style{StrokeWidth: 2, StrokeColor: chart.ColorRed},
		})
		ys = append(ys, fit.At(lo), fit.At(hi))
	}
	return renderChart(w, title, fit.X, fit.Y, size, xs, ys, series...)
}

func renderChart(w io.Writer, title, xName, yName string, size Size, xs, ys []float64, series ...chart.Series) error {
	width, height := size.dims()
	xlo, xhi := padded(extent(xs))
	ylo, yhi := padded(extent(ys))
	ch := chart.Chart{
		Title:      title,
		Background: background,
		Width:      width,
		Height:     height,
		XAxis:      chart.XAxis{Name: xName, Range: &chart.ContinuousRange{Min: xlo, Max: xhi}},
		YAxis:      chart.YAxis{Name: yName, Range: &chart.ContinuousRange{Min: ylo, Max: yhi}},
		Series:     series,
	}
	if len(series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func extent(vals []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// padded widens a range by 5% and never returns an empty one.
func padded(lo, hi float64) (float64, float64) {
	if hi <= lo {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}
