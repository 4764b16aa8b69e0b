package notification

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/observability/metrics"
)

func TestSummaryMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary Summary
		title   string
		want    []string
	}{
		{
			name:    "sent",
			summary: Summary{Record: "S01", Label: "7.5", Votes: 2, Trials: 3, SMSStatus: "sent", RunID: "abc"},
			title:   "SSVEP alert: 7.5 Hz",
			want:    []string{"Record S01: predicted 7.5 Hz (2/3 trials).", "SMS sent.", "Run abc."},
		},
		{
			name:    "undetermined tie",
			summary: Summary{Record: "S02", Label: "10.0", Votes: 1, Trials: 2, Tied: true, Undetermined: true},
			title:   "SSVEP alert: 10.0 Hz",
			want:    []string{"tie broken by lowest frequency", "SMS status could not be determined."},
		},
		{
			name: "fault",
			summary: Summary{Record: "S03", Label: "12.0", Votes: 3, Trials: 3,
				Err: errors.NewStd("open serial://user:pw@ttyUSB0 failed")},
			title: "SSVEP alert failed",
			want:  []string{"Device alert failed:", "serial://***@ttyUSB0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.title, tt.summary.Title())
			msg := tt.summary.Message()
			for _, w := range tt.want {
				assert.Contains(t, msg, w)
			}
			assert.NotContains(t, msg, "pw@")
		})
	}
}

func TestNewNotifierValidation(t *testing.T) {
	t.Parallel()

	_, err := NewNotifier(&conf.NotificationSettings{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	_, err = NewNotifier(&conf.NotificationSettings{URLs: []string{"nosuchservice://x"}}, nil)
	require.Error(t, err)
}

func TestNotifyRecordsDelivery(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewNotificationMetrics(registry)
	require.NoError(t, err)

	n, err := NewNotifier(&conf.NotificationSettings{Enabled: true, URLs: []string{"logger://"}}, m)
	require.NoError(t, err)
	assert.Equal(t, 1, n.Len())

	s := &Summary{Record: "S01", Label: "7.5", Votes: 3, Trials: 3, SMSStatus: "sent"}
	require.NoError(t, n.Notify(context.Background(), s))
	assert.InDelta(t, 1, testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("logger", metrics.StatusSuccess)), 0)
}

func TestNotifyCancelled(t *testing.T) {
	t.Parallel()

	n, err := NewNotifier(&conf.NotificationSettings{URLs: []string{"logger://"}}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = n.Notify(ctx, &Summary{Label: "7.5"})
	require.ErrorIs(t, err, context.Canceled)
}
