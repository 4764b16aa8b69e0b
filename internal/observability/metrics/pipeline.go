package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics covers record loading, feature extraction, training and
// prediction.
type PipelineMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec

	trialsTotal      *prometheus.CounterVec
	predictionsTotal *prometheus.CounterVec
	voteLabel        prometheus.Gauge
	voteShare        prometheus.Gauge
	heldOutAccuracy  prometheus.Gauge
	datasetRows      prometheus.Gauge

	collectors []prometheus.Collector
}

// NewPipelineMetrics creates and registers the pipeline collectors.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ssvep_operations_total",
		Help: "Total number of pipeline operations by outcome",
	}, []string{"operation", "status"})

	m.operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ssvep_operation_duration_seconds",
		Help:    "Duration of pipeline operations",
		Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
	}, []string{"operation"})

	m.errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ssvep_errors_total",
		Help: "Total number of pipeline errors by category",
	}, []string{"operation", "category"})

	m.trialsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ssvep_trials_total",
		Help: "Trials seen by the feature builder",
	}, []string{"status"}) // extracted, skipped

	m.predictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ssvep_trial_predictions_total",
		Help: "Per-trial predicted frequencies",
	}, []string{"label"})

	m.voteLabel = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ssvep_vote_label_hz",
		Help: "Frequency chosen by the last majority vote",
	})

	m.voteShare = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ssvep_vote_share",
		Help: "Share of trials agreeing with the last majority vote",
	})

	m.heldOutAccuracy = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ssvep_heldout_accuracy",
		Help: "Held-out accuracy of the last training run",
	})

	m.datasetRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ssvep_dataset_rows",
		Help: "Feature rows in the last built dataset",
	})

	m.collectors = []prometheus.Collector{
		m.operationsTotal, m.operationDuration, m.errorsTotal,
		m.trialsTotal, m.predictionsTotal, m.voteLabel, m.voteShare,
		m.heldOutAccuracy, m.datasetRows,
	}
}

// Describe implements prometheus.Collector.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordOperation implements Recorder.
func (m *PipelineMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder.
func (m *PipelineMetrics) RecordDuration(operation string, seconds float64) {
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *PipelineMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordTrials adds extracted and skipped trial counts.
func (m *PipelineMetrics) RecordTrials(extracted, skipped int) {
	m.trialsTotal.WithLabelValues("extracted").Add(float64(extracted))
	m.trialsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// SetDatasetRows records the size of the last dataset.
func (m *PipelineMetrics) SetDatasetRows(n int) {
	m.datasetRows.Set(float64(n))
}

// RecordPrediction counts one per-trial prediction.
func (m *PipelineMetrics) RecordPrediction(label float64) {
	m.predictionsTotal.WithLabelValues(strconv.FormatFloat(label, 'f', -1, 64)).Inc()
}

// SetVote records the last majority vote.
func (m *PipelineMetrics) SetVote(label float64, votes, total int) {
	m.voteLabel.Set(label)
	if total > 0 {
		m.voteShare.Set(float64(votes) / float64(total))
	}
}

// SetAccuracy records the held-out accuracy of the last training run.
func (m *PipelineMetrics) SetAccuracy(accuracy float64) {
	m.heldOutAccuracy.Set(accuracy)
}
