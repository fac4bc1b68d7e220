package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "input %q", tt.in)
	}
}

// Not parallel: Init replaces the default logger.
func TestInit_JSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	initTo(&buf, "spx-api", slog.LevelInfo, "json")

	slog.Debug("hidden")
	slog.Info("upload stored", "records", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug is below the configured level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "spx-api", entry["service"])
	assert.Equal(t, "upload stored", entry["msg"])
	assert.Equal(t, float64(3), entry["records"])
}

func TestInit_Text(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := initTo(&buf, "spx-ingest", slog.LevelDebug, "TEXT")

	logger.Debug("rows read", "count", 2)

	out := buf.String()
	assert.Contains(t, out, "service=spx-ingest")
	assert.Contains(t, out, "count=2")
}
