// Package metrics provides Prometheus collectors for the SSVEP pipeline,
// the alerting device and the outcome sinks.
package metrics

// Recorder defines a minimal interface for recording metrics. Components
// depend on it rather than on concrete collectors.
type Recorder interface {
	// RecordOperation records an operation (e.g. "record_load") with its
	// status ("success", "error", "skipped").
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its category.
	RecordError(operation, errorType string)
}

// NoOpRecorder discards everything.
type NoOpRecorder struct{}

func (NoOpRecorder) RecordOperation(string, string) {}
func (NoOpRecorder) RecordDuration(string, float64) {}
func (NoOpRecorder) RecordError(string, string) {}
