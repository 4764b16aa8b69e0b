package conf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadDefaults resets viper and returns the settings produced by the built-in defaults.
func loadDefaults(t *testing.T) *Settings {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	setDefaultConfig()
	settings, err := unmarshalSettings()
	require.NoError(t, err)
	return settings
}

func TestDefaults(t *testing.T) {
	settings := loadDefaults(t)

	assert.InDelta(t, 128.0, settings.Features.SamplingRate, 0)
	assert.Equal(t, []float64{6.66, 7.5, 8.57, 10.0, 12.0}, settings.Features.TargetFrequencies)
	assert.Equal(t, []string{"O1", "O2"}, settings.Features.Channels)
	assert.InDelta(t, 2.0, settings.Features.WindowSeconds, 0)
	assert.InDelta(t, 0.5, settings.Features.Overlap, 0)
	assert.Equal(t, "x", settings.Features.AdaptationSuffix)
	assert.Equal(t, "win", settings.Features.AnnotationExt)

	assert.Equal(t, 5, settings.Model.K)
	assert.InDelta(t, 0.25, settings.Model.TestRatio, 0)
	assert.Equal(t, int64(42), settings.Model.Seed)

	assert.Equal(t, 115200, settings.Device.BaudRate)
	assert.Equal(t, 2*time.Second, settings.Device.Settle)
	assert.Equal(t, 30*time.Second, settings.Device.ReadyTimeout)
	assert.Equal(t, 60*time.Second, settings.Device.AckTimeout)

	assert.Equal(t, "info", settings.Logging.DefaultLevel)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
}

func TestEmbeddedConfigMatchesDefaults(t *testing.T) {
	defaults := loadDefaults(t)

	viper.Reset()
	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(bytes.NewReader(getDefaultConfig())))
	embedded, err := unmarshalSettings()
	require.NoError(t, err)

	assert.Equal(t, defaults.Features, embedded.Features)
	assert.Equal(t, defaults.Model, embedded.Model)
	assert.Equal(t, defaults.Device, embedded.Device)
	assert.Equal(t, defaults.Output, embedded.Output)
	assert.Equal(t, defaults.MQTT, embedded.MQTT)
	assert.Equal(t, defaults.Logging.DefaultLevel, embedded.Logging.DefaultLevel)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("SSVEP_DEVICE_PORT", "/dev/ttyACM0")
	t.Setenv("SSVEP_DEVICE_ACKTIMEOUT", "5s")
	t.Setenv("SSVEP_MODEL_K", "3")

	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaultConfig()
	require.NoError(t, bindEnvVars())

	settings, err := unmarshalSettings()
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", settings.Device.Port)
	assert.Equal(t, 5*time.Second, settings.Device.AckTimeout)
	assert.Equal(t, 3, settings.Model.K)
}

func TestEnvironmentValidationWarns(t *testing.T) {
	t.Setenv("SSVEP_DEVICE_READYTIMEOUT", "soon")

	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaultConfig()

	err := bindEnvVars()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SSVEP_DEVICE_READYTIMEOUT")
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	settings := loadDefaults(t)
	settings.Device.Port = "COM4"
	settings.Features.Channels = []string{"Oz", "O1", "O2"}
	settings.Device.ReadyTimeout = 45 * time.Second

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveYAMLConfig(path, settings))

	viper.Reset()
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
	reloaded, err := unmarshalSettings()
	require.NoError(t, err)

	assert.Equal(t, settings.Device, reloaded.Device)
	assert.Equal(t, settings.Features, reloaded.Features)
	assert.Equal(t, settings.Model, reloaded.Model)
}

func TestWriteDefaultConfigRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, getDefaultConfig(), data)

	require.Error(t, WriteDefaultConfig(path))
}
