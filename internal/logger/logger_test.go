package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/ssvep-go/internal/logger"
)

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		level     logger.LogLevel
		emit      func(l logger.Logger)
		wantEntry bool
	}{
		{"debug hidden at info", logger.LogLevelInfo, func(l logger.Logger) { l.Debug("msg") }, false},
		{"info shown at info", logger.LogLevelInfo, func(l logger.Logger) { l.Info("msg") }, true},
		{"warn shown at info", logger.LogLevelInfo, func(l logger.Logger) { l.Warn("msg") }, true},
		{"info hidden at error", logger.LogLevelError, func(l logger.Logger) { l.Info("msg") }, false},
		{"trace shown at trace", logger.LogLevelTrace, func(l logger.Logger) { l.Trace("msg") }, true},
		{"explicit level", logger.LogLevelDebug, func(l logger.Logger) { l.Log(logger.LogLevelDebug, "msg") }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tc.emit(logger.NewTestLogger(&buf, tc.level))
			assert.Equal(t, tc.wantEntry, strings.Contains(buf.String(), "msg"))
		})
	}
}

func TestTextOutputFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewTestLogger(&buf, logger.LogLevelInfo).Module("device").Module("serial")

	log.With(logger.String("port", "ttyACM0")).Info("line received",
		logger.String("line", "ESP32 Ready"),
		logger.Float64("label", 7.5),
		logger.Duration("elapsed", 1500*time.Millisecond))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "INFO [device.serial] line received"), out)
	assert.Contains(t, out, "port=ttyACM0")
	assert.Contains(t, out, `line="ESP32 Ready"`)
	assert.Contains(t, out, "label=7.5")
	assert.Contains(t, out, "elapsed=1.5s")
}

func TestWithDoesNotLeakFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := logger.NewTestLogger(&buf, logger.LogLevelInfo)
	_ = base.With(logger.Int("trial", 3))

	base.Info("plain")
	assert.NotContains(t, buf.String(), "trial=3")
}

func TestWithContextAddsTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logger.WithTraceID(context.Background(), "run-42")
	logger.NewTestLogger(&buf, logger.LogLevelInfo).WithContext(ctx).Info("started")

	assert.Contains(t, buf.String(), "trace_id=run-42")
}

func TestErrorFieldNil(t *testing.T) {
	t.Parallel()

	f := logger.Error(nil)
	assert.Equal(t, "error", f.Key)
	assert.Nil(t, f.Value)
}

func TestCentralLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ssvep.log")

	central, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "debug",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: path, Level: "debug"},
		ModuleLevels: map[string]string{"features": "warn"},
	})
	require.NoError(t, err)

	central.Module("classifier").Debug("fitted model", logger.Int("samples", 40))
	central.Module("features").Info("suppressed by module level")
	require.NoError(t, central.Flush())
	require.NoError(t, central.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "fitted model", entry["msg"])
	assert.Equal(t, "classifier", entry["module"])
	assert.InDelta(t, 40, entry["samples"], 0)
	assert.NotEmpty(t, entry["time"])
}

func TestNewCentralLoggerRejectsBadTimezone(t *testing.T) {
	_, err := logger.NewCentralLogger(&logger.LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)
}

func TestNilConfig(t *testing.T) {
	_, err := logger.NewCentralLogger(nil)
	require.Error(t, err)
}
