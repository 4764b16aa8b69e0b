package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSettings(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"defaults are valid", func(*Settings) {}, ""},
		{"non-positive sampling rate", func(s *Settings) { s.Features.SamplingRate = 0 }, "sampling rate must be positive"},
		{"no targets", func(s *Settings) { s.Features.TargetFrequencies = nil }, "at least one target frequency"},
		{"duplicate targets", func(s *Settings) { s.Features.TargetFrequencies = []float64{7.5, 7.5} }, "must be unique"},
		{"target above nyquist", func(s *Settings) { s.Features.TargetFrequencies = []float64{70} }, "Nyquist"},
		{"no channels", func(s *Settings) { s.Features.Channels = nil }, "at least one channel"},
		{"blank channel", func(s *Settings) { s.Features.Channels = []string{"O1", " "} }, "channel names must not be empty"},
		{"overlap of one", func(s *Settings) { s.Features.Overlap = 1 }, "overlap must be in [0, 1)"},
		{"k of zero", func(s *Settings) { s.Model.K = 0 }, "k must be at least 1"},
		{"test ratio out of range", func(s *Settings) { s.Model.TestRatio = 1 }, "test ratio"},
		{"zero ready timeout", func(s *Settings) { s.Device.ReadyTimeout = 0 }, "ready timeout must be positive"},
		{"both databases", func(s *Settings) {
			s.Output.SQLite.Enabled = true
			s.Output.MySQL.Enabled = true
		}, "only one of sqlite and mysql"},
		{"mqtt without scheme", func(s *Settings) {
			s.MQTT.Enabled = true
			s.MQTT.Broker = "localhost"
		}, "must be a URL"},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "sentry dsn is required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings := loadDefaults(t)
			tc.mutate(settings)

			err := ValidateSettings(settings)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidationErrorCollectsAllSections(t *testing.T) {
	settings := loadDefaults(t)
	settings.Features.Channels = nil
	settings.Model.K = 0
	settings.Device.BaudRate = 0

	err := ValidateSettings(settings)
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 3)
}
