package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReporter struct {
	reports []*EnhancedError
}

func (f *fakeReporter) ReportError(ee *EnhancedError) {
	f.reports = append(f.reports, ee)
	ee.MarkReported()
}

func (f *fakeReporter) IsEnabled() bool { return true }

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.IsReported())
}

func TestBuilderKeepsExplicitFields(t *testing.T) {
	SetTelemetryReporter(nil)

	base := NewStd("port closed")
	ee := New(base).
		Component("device").
		Category(CategoryDevice).
		Priority(PriorityHigh).
		Context("state", "AwaitingAck").
		Build()

	assert.Equal(t, "device", ee.GetComponent())
	assert.Equal(t, CategoryDevice, ee.Category)
	assert.Equal(t, PriorityHigh, ee.GetPriority())
	assert.Equal(t, "AwaitingAck", ee.GetContext()["state"])
	assert.ErrorIs(t, ee, base)
	assert.True(t, IsCategory(fmt.Errorf("wrapped: %w", ee), CategoryDevice))
}

func TestInvalidPriorityFallsBackToMedium(t *testing.T) {
	ee := New(NewStd("x")).Priority("urgent").Build()
	assert.Equal(t, PriorityMedium, ee.GetPriority())
}

func TestReporterReceivesErrors(t *testing.T) {
	reporter := &fakeReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("handshake timeout")).Component("device").Build()

	require.Len(t, reporter.reports, 1)
	assert.Same(t, ee, reporter.reports[0])
	assert.Equal(t, CategoryTimeout, ee.Category)
	assert.True(t, ee.IsReported())
}

func TestScrubMessageForPrivacy(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		notWant string
	}{
		{"url query", "post to https://hooks.example.com/x?token=abc123", "abc123"},
		{"linux serial port", "open /dev/ttyUSB0: permission denied", "ttyUSB0"},
		{"windows serial port", "open COM7: access denied", "COM7"},
		{"home dir", "read /home/alice/data/S01.edf failed", "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.NotContains(t, scrubMessageForPrivacy(tt.input), tt.notWant)
		})
	}
}

func TestGenerateErrorTitle(t *testing.T) {
	ee := New(NewStd("boom")).
		Component("features").
		Category(CategoryFeatureExtraction).
		Context("operation", "welch_psd").
		Build()

	assert.Equal(t, "Features Feature Extraction Error Welch Psd", generateErrorTitle(ee))
}
