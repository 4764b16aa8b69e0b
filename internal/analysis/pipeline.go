package analysis

import (
	"time"

	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/datastore"
	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/features"
	"github.com/tphakala/ssvep-go/internal/logger"
	"github.com/tphakala/ssvep-go/internal/observability/metrics"
	"github.com/tphakala/ssvep-go/internal/spectral"
	"github.com/tphakala/ssvep-go/internal/trial"
)

// NewBuilder returns a feature builder configured from settings. In inference
// mode adaptation recordings are not excluded.
func NewBuilder(settings *conf.Settings, mode trial.Mode, deps *Deps) (*features.Builder, error) {
	fs := &settings.Features
	extractor, err := spectral.NewExtractor(spectral.Config{
		WindowSeconds: fs.WindowSeconds,
		Overlap:       fs.Overlap,
		Targets:       fs.TargetFrequencies,
	})
	if err != nil {
		return nil, err
	}

	opts := features.Options{
		Channels:      fs.Channels,
		SamplingRate:  fs.SamplingRate,
		AnnotationExt: fs.AnnotationExt,
		Workers:       fs.Workers,
	}
	if mode == trial.Training {
		opts.AdaptationSuffix = fs.AdaptationSuffix
	}

	b := features.NewBuilder(mode, extractor, opts)
	if deps != nil && deps.Loader != nil {
		b.WithLoader(deps.Loader)
	}
	return b, nil
}

// recorder returns the pipeline recorder, or a no-op one when metrics are off.
func (d *Deps) recorder() metrics.Recorder {
	if d == nil || d.Metrics == nil {
		return metrics.NoOpRecorder{}
	}
	return d.Metrics.Pipeline
}

// observe records the outcome and duration of one pipeline operation.
func (d *Deps) observe(operation string, start time.Time, err error) {
	rec := d.recorder()
	rec.RecordDuration(operation, time.Since(start).Seconds())
	if err != nil {
		rec.RecordOperation(operation, metrics.StatusError)
		rec.RecordError(operation, errorCategory(err))
		return
	}
	rec.RecordOperation(operation, metrics.StatusSuccess)
}

// recordBuild feeds a build report into the pipeline metrics.
func (d *Deps) recordBuild(report *features.Report, ds *features.Dataset) {
	if d == nil || d.Metrics == nil || report == nil {
		return
	}
	skipped := 0
	for i := range report.Records {
		skipped += report.Records[i].Skipped
		status := metrics.StatusSuccess
		switch {
		case report.Records[i].Excluded:
			status = metrics.StatusSkipped
		case report.Records[i].Err != nil:
			status = metrics.StatusError
		}
		d.Metrics.Pipeline.RecordOperation(metrics.OpRecordLoad, status)
	}
	d.Metrics.Pipeline.RecordTrials(report.TotalTrials(), skipped)
	if ds != nil {
		d.Metrics.Pipeline.SetDatasetRows(ds.Len())
	}
}

// saveRun stores run in the history, logging instead of failing.
func (d *Deps) saveRun(run *datastore.Run) {
	if d == nil || d.Store == nil {
		return
	}
	start := time.Now()
	err := d.Store.SaveRun(run)
	d.observe(metrics.OpHistorySave, start, err)
	if err != nil {
		GetLogger().Warn("failed to save run history", logger.String("run", run.UUID), logger.Error(err))
	}
}

// writeTextfile exports the metrics when a textfile path is configured.
func (d *Deps) writeTextfile(settings *conf.Settings) {
	if d == nil || d.Metrics == nil || !settings.Metrics.Enabled || settings.Metrics.TextFile == "" {
		return
	}
	if err := d.Metrics.WriteTextfile(settings.Metrics.TextFile); err != nil {
		GetLogger().Warn("failed to write metrics textfile", logger.Error(err))
	}
}

// errorCategory returns the category label of err for metrics.
func errorCategory(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.GetCategory()
	}
	var ce interface{ ErrorCategory() errors.ErrorCategory }
	if errors.As(err, &ce) {
		return string(ce.ErrorCategory())
	}
	return string(errors.CategoryGeneric)
}

func skippedTrials(report *features.Report) int {
	if report == nil {
		return 0
	}
	n := 0
	for i := range report.Records {
		n += report.Records[i].Skipped
	}
	return n
}
