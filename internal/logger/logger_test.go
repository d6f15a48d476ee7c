package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/treedash-cli/internal/config"
)

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Level: "info", Format: "text"}, &buf)
	log.Info("dataset loaded", "dataset", "planting", "rows", 3)
	log.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "dataset=planting")
	assert.NotContains(t, out, "hidden")
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Level: "debug", Format: "JSON"}, &buf)
	log.Debug("normalized", "views", 4)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "normalized", rec["msg"])
	assert.Equal(t, float64(4), rec["views"])
}

func TestNew_DefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Level: "loud", Format: "xml"}, &buf)
	log.Info("quiet")
	log.Warn("load failed")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "load failed")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"verbose", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}
