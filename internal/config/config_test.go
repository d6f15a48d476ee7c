package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/treedash-cli/internal/table"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ".", c.DataDir)
	assert.Equal(t, []string{"greenbush", "planting", "summary"}, c.DatasetNames())
	d, err := c.Dataset("Planting")
	require.NoError(t, err)
	assert.Equal(t, "tree_survival_summary.csv", d.Path)
	assert.True(t, c.Cache)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, 800, c.Chart.Width)

	_, err = c.Dataset("inventory")
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "treedash.yaml")
	body := `data_dir: /srv/trees
datasets:
  planting:
    path: plantings.xlsx
    sheet: Planting
    skip_rows: 1
aliases:
  site:
    - Plot
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("TREEDASH_LOG_LEVEL", "debug")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/trees", c.DataDir)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, []string{"Plot"}, c.Aliases["site"])

	d, err := c.Dataset("planting")
	require.NoError(t, err)
	assert.Equal(t, "plantings.xlsx", d.Path)
	assert.Equal(t, "Planting", d.Sheet)
	assert.Equal(t, 1, d.SkipRows)
	assert.Equal(t, filepath.Join("/srv/trees", "plantings.xlsx"), c.ResolvePath(d.Path))
	assert.Equal(t, "/abs/x.csv", c.ResolvePath("/abs/x.csv"))
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ",", c.Delimiter)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("datasets: [unclosed"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "read config")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := &Global{
		DataDir:  "data",
		Datasets: map[string]DatasetConfig{"summary": {Path: "summary.xlsx", SheetIndex: 1}},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data", got.DataDir)
	assert.Equal(t, "info", got.Log.Level)
	d, err := got.Dataset("summary")
	require.NoError(t, err)
	assert.Equal(t, 1, d.SheetIndex)
}

func TestDelimiterRune(t *testing.T) {
	for in, want := range map[string]rune{"": ',', "comma": ',', ";": ';', "TAB": '\t', `\t`: '\t', "|": '|'} {
		c := &Global{Delimiter: in}
		got, err := c.DelimiterRune()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := (&Global{Delimiter: "ab"}).DelimiterRune()
	assert.Error(t, err)
}

func TestNumberFormat(t *testing.T) {
	nf, err := (&Global{}).NumberFormat()
	require.NoError(t, err)
	assert.Equal(t, table.NumberFormat{}, nf)

	nf, err = (&Global{DecimalSeparator: ",", ThousandsSeparator: "space"}).NumberFormat()
	require.NoError(t, err)
	assert.Equal(t, table.NumberFormat{Decimal: ',', Thousands: ' '}, nf)

	_, err = (&Global{DecimalSeparator: ",", ThousandsSeparator: ","}).NumberFormat()
	assert.Error(t, err)
	_, err = (&Global{DecimalSeparator: ",,"}).NumberFormat()
	assert.Error(t, err)
}
