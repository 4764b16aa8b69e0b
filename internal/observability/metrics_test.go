package observability

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ssvep-go/internal/observability/metrics"
)

func TestPipelineMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Pipeline.RecordOperation(metrics.OpRecordLoad, metrics.StatusSuccess)
	m.Pipeline.RecordOperation(metrics.OpRecordLoad, metrics.StatusSuccess)
	m.Pipeline.RecordOperation(metrics.OpRecordLoad, metrics.StatusError)
	m.Pipeline.RecordTrials(7, 2)
	m.Pipeline.RecordPrediction(7.5)
	m.Pipeline.RecordPrediction(7.5)
	m.Pipeline.RecordPrediction(10)
	m.Pipeline.SetVote(7.5, 2, 3)

	expected := `
# HELP ssvep_operations_total Total number of pipeline operations by outcome
# TYPE ssvep_operations_total counter
ssvep_operations_total{operation="record_load",status="error"} 1
ssvep_operations_total{operation="record_load",status="success"} 2
# HELP ssvep_trial_predictions_total Per-trial predicted frequencies
# TYPE ssvep_trial_predictions_total counter
ssvep_trial_predictions_total{label="10"} 1
ssvep_trial_predictions_total{label="7.5"} 2
# HELP ssvep_trials_total Trials seen by the feature builder
# TYPE ssvep_trials_total counter
ssvep_trials_total{status="extracted"} 7
ssvep_trials_total{status="skipped"} 2
# HELP ssvep_vote_label_hz Frequency chosen by the last majority vote
# TYPE ssvep_vote_label_hz gauge
ssvep_vote_label_hz 7.5
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"ssvep_operations_total", "ssvep_trial_predictions_total", "ssvep_trials_total", "ssvep_vote_label_hz"))
}

func TestDeviceMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Device.RecordSession("done", "sent", "", 3, 4.2, time.Now().Unix())
	m.Device.RecordSession("awaiting_ready", "undetermined", "timeout", 0, 30, 0)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Device.SessionsTotal.WithLabelValues("done", metrics.StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Device.ProtocolFaults.WithLabelValues("timeout")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Device.SMSStatusTotal.WithLabelValues("sent")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.Device.LinesReceived), 0)
}

func TestSinkMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.MQTT.UpdateConnectionStatus(true)
	m.MQTT.RecordPublish(120, 5*time.Millisecond, nil)
	m.MQTT.RecordPublish(0, 0, errors.New("not connected"))
	assert.InDelta(t, 1, testutil.ToFloat64(m.MQTT.ConnectionStatus), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MQTT.MessagesDelivered), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MQTT.Errors), 0)

	m.Notification.RecordDelivery("telegram", time.Second, nil)
	m.Notification.RecordDelivery("smtp", time.Second, errors.New("refused"))
	assert.InDelta(t, 1, testutil.ToFloat64(m.Notification.DeliveriesTotal.WithLabelValues("smtp", metrics.StatusError)), 0)

	m.Datastore.RecordDbOperation("insert", "runs", metrics.StatusSuccess)
	n, err := testutil.GatherAndCount(m.Registry(), "datastore_db_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	m.Pipeline.SetAccuracy(0.9)

	path := filepath.Join(t.TempDir(), "nested", "ssvep.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ssvep_heldout_accuracy 0.9")
}

func TestTestRecorder(t *testing.T) {
	t.Parallel()

	var r metrics.Recorder = metrics.NewTestRecorder()
	r.RecordOperation(metrics.OpPrediction, metrics.StatusSuccess)
	r.RecordDuration(metrics.OpPrediction, 0.25)
	r.RecordError(metrics.OpPrediction, "validation")

	tr := r.(*metrics.TestRecorder)
	assert.Equal(t, 1, tr.OperationCount(metrics.OpPrediction, metrics.StatusSuccess))
	assert.Equal(t, []float64{0.25}, tr.Durations(metrics.OpPrediction))
	assert.Equal(t, 1, tr.ErrorCount(metrics.OpPrediction, "validation"))
	assert.True(t, tr.HasRecordedMetrics())

	var noop metrics.Recorder = metrics.NoOpRecorder{}
	noop.RecordOperation("x", "y")
}
