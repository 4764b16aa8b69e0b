package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DeviceMetrics covers the serial alert exchange.
type DeviceMetrics struct {
	SessionsTotal     *prometheus.CounterVec // by final state and result
	SMSStatusTotal    *prometheus.CounterVec // sent, failed, undetermined
	SessionDuration   prometheus.Histogram
	ProtocolFaults    *prometheus.CounterVec // by category
	LinesReceived     prometheus.Counter
	LastAlertUnixTime prometheus.Gauge

	collectors []prometheus.Collector
}

// NewDeviceMetrics creates and registers the device collectors.
func NewDeviceMetrics(registry *prometheus.Registry) (*DeviceMetrics, error) {
	m := &DeviceMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register device metrics: %w", err)
	}
	return m, nil
}

func (m *DeviceMetrics) initMetrics() {
	m.SessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "device_sessions_total",
		Help: "Device sessions by final state and result",
	}, []string{"state", "result"})

	m.SMSStatusTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "device_sms_status_total",
		Help: "SMS alert status reported by the device",
	}, []string{"status"})

	m.SessionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "device_session_duration_seconds",
		Help:    "Duration of a full device exchange",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	m.ProtocolFaults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "device_protocol_faults_total",
		Help: "Device protocol faults by category",
	}, []string{"category"})

	m.LinesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "device_lines_received_total",
		Help: "Lines received from the device",
	})

	m.LastAlertUnixTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "device_last_alert_time_seconds",
		Help: "Timestamp of the last completed alert exchange",
	})

	m.collectors = []prometheus.Collector{
		m.SessionsTotal, m.SMSStatusTotal, m.SessionDuration,
		m.ProtocolFaults, m.LinesReceived, m.LastAlertUnixTime,
	}
}

// Describe implements prometheus.Collector.
func (m *DeviceMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *DeviceMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordSession records a finished exchange. category is empty on success.
func (m *DeviceMetrics) RecordSession(state, smsStatus, category string, lines int, seconds float64, unixTime int64) {
	result := StatusSuccess
	if category != "" {
		result = StatusError
		m.ProtocolFaults.WithLabelValues(category).Inc()
	} else {
		m.SMSStatusTotal.WithLabelValues(smsStatus).Inc()
		m.LastAlertUnixTime.Set(float64(unixTime))
	}
	m.SessionsTotal.WithLabelValues(state, result).Inc()
	m.LinesReceived.Add(float64(lines))
	m.SessionDuration.Observe(seconds)
}
