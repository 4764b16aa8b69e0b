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

func TestTeeHandlerRespectsPerSinkLevels(t *testing.T) {
	t.Parallel()

	var console, file bytes.Buffer
	h := newTeeHandler(
		newTextHandler(&console, slog.LevelInfo),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	log := slog.New(h).With(slog.String(moduleKey, "device"))

	log.Debug("line received", slog.String("line", "ESP32_Ready"))
	log.Info("serial connection closed")

	assert.NotContains(t, console.String(), "line received")
	assert.Contains(t, console.String(), "serial connection closed")
	assert.Contains(t, console.String(), "[device]")

	lines := strings.Split(strings.TrimSpace(file.String()), "\n")
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "line received", entry["msg"])
	assert.Equal(t, "ESP32_Ready", entry["line"])
	assert.Equal(t, "device", entry[moduleKey])
}

func TestTeeHandlerEnabled(t *testing.T) {
	t.Parallel()

	h := newTeeHandler(
		newTextHandler(&bytes.Buffer{}, slog.LevelWarn),
		newTextHandler(&bytes.Buffer{}, slog.LevelInfo),
	)
	assert.False(t, h.Enabled(t.Context(), slog.LevelDebug))
	assert.True(t, h.Enabled(t.Context(), slog.LevelInfo))

	grouped := h.WithGroup("req")
	assert.True(t, grouped.Enabled(t.Context(), slog.LevelWarn))
}
