package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/treedash-cli/internal/analysis"
	"github.com/KaramelBytes/treedash-cli/internal/schema"
	"github.com/KaramelBytes/treedash-cli/internal/table"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestMarkdownTableAlignsWideRunes(t *testing.T) {
	out := MarkdownTable([]string{"species", "n"}, [][]string{{"桜", "1"}, {"Oak|Elm", "12"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| species | n   |", lines[0])
	assert.Equal(t, "| ------- | --- |", lines[1])
	assert.Equal(t, "| 桜      | 1   |", lines[2])
	assert.Equal(t, "| Oak/Elm | 12  |", lines[3])

	assert.Empty(t, MarkdownTable(nil, nil))
}

func TestPreviewAndGroups(t *testing.T) {
	ds := table.New("planting", []string{"Site", "Number Planted", "Number Alive"}, [][]table.Cell{
		{table.Text("A"), table.Number(1000), table.Number(500)},
		{table.Text("B"), table.Number(10), table.Missing()},
	})
	c, _, err := schema.New(schema.DefaultAliases()).Normalize(ds)
	require.NoError(t, err)

	out := Preview(c, 1)
	assert.Contains(t, out, "| site | number_planted | number_alive | survival_rate |")
	assert.Contains(t, out, "| A    | 1000")
	assert.NotContains(t, out, "| B ")
	assert.Contains(t, Preview(c, -1), "| B ")

	g := Groups([]analysis.Group{{Key: "A", Count: 1200, Mean: 50.256}}, "site", "survival_rate")
	assert.Contains(t, g, "| site | rows  | mean survival_rate |")
	assert.Contains(t, g, "| A    | 1,200 | 50.26")

	assert.Contains(t, Counts([]analysis.Count{{Value: "Oak", Count: 3}}, "species"), "| Oak     | 3     |")
}

func TestFormatFloatRounds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{66.666, "66.67"},
		{50.256, "50.26"},
		{50.254, "50.25"},
		{-0.126, "-0.13"},
		{80, "80"},
	}
	for _, v := range tests {
		assert.Equal(t, v.want, formatFloat(v.in), "%v", v.in)
	}
}

func TestFitSummary(t *testing.T) {
	f := analysis.Fit{X: "native_pct", Y: "survival_rate", Slope: 2, Intercept: 1, R: 1, N: 3, Defined: true}
	assert.Equal(t, "survival_rate = 2 × native_pct + 1 (r=1.000, n=3)", FitSummary(f))
	f.Defined = false
	assert.Contains(t, FitSummary(f), "trendline undefined")
}

func TestReportMarkdown(t *testing.T) {
	ds := table.New("summary", []string{"Site", "Number Planted", "Number Alive"}, [][]table.Cell{
		{table.Text("A"), table.Number(10), table.Number(5)},
	})
	_, rep, err := schema.New(schema.DefaultAliases()).Normalize(ds)
	require.NoError(t, err)

	out := ReportMarkdown(rep, 1234)
	assert.Contains(t, out, "Dataset: summary")
	assert.Contains(t, out, "Rows: 1,234")
	assert.Contains(t, out, "Derived: survival_rate")
	assert.Contains(t, out, "[UNAVAILABLE METRICS]")
	assert.Contains(t, out, "[VIEWS]")
	assert.Contains(t, out, "missing columns: year_planted")
}

func TestBarChart(t *testing.T) {
	var buf bytes.Buffer
	err := BarChart(&buf, "Survival by site", []analysis.Group{{Key: "A", Count: 2, Mean: 15}, {Key: "B", Count: 1, Mean: 30}}, Size{Width: 400, Height: 300})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	require.NoError(t, BarChart(&buf, "zero", []analysis.Group{{Key: "A", Count: 1, Mean: 0}}, Size{}))
	assert.ErrorIs(t, BarChart(&buf, "none", nil, Size{}), ErrNothingToPlot)
}

func TestLineChart(t *testing.T) {
	var buf bytes.Buffer
	groups := []analysis.Group{{Key: "2019", Mean: 40}, {Key: "2020", Mean: 55}, {Key: "2021", Mean: 60}}
	require.NoError(t, LineChart(&buf, "Survival by year", "year_planted", "survival_rate", groups, Size{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	err := LineChart(&buf, "one", "year_planted", "survival_rate", groups[:1], Size{})
	assert.ErrorIs(t, err, ErrNothingToPlot)

	err = LineChart(&buf, "bad", "site", "survival_rate", []analysis.Group{{Key: "A"}, {Key: "B"}}, Size{})
	assert.ErrorContains(t, err, "not numeric")
}

func TestScatterWithTrend(t *testing.T) {
	pts := []analysis.Point{{X: 1, Y: 3}, {X: 2, Y: 5}, {X: 3, Y: 7}}
	fit := analysis.Fit{X: "native_pct", Y: "survival_rate", Slope: 2, Intercept: 1, R: 1, N: 3, Defined: true}

	var buf bytes.Buffer
	require.NoError(t, ScatterWithTrend(&buf, "Native vs survival", pts, fit, Size{Width: 640, Height: 400}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	fit.Defined = false
	require.NoError(t, ScatterWithTrend(&buf, "single", pts[:1], fit, Size{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	assert.ErrorIs(t, ScatterWithTrend(&buf, "none", nil, fit, Size{}), ErrNothingToPlot)
}

func TestPadded(t *testing.T) {
	lo, hi := padded(5, 5)
	assert.Equal(t, 4.0, lo)
	assert.Equal(t, 6.0, hi)
	lo, hi = padded(0, 100)
	assert.Equal(t, -5.0, lo)
	assert.Equal(t, 105.0, hi)
}
