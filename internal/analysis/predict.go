package analysis

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tphakala/ssvep-go/internal/classifier"
	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/datastore"
	"github.com/tphakala/ssvep-go/internal/device"
	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/features"
	"github.com/tphakala/ssvep-go/internal/logger"
	"github.com/tphakala/ssvep-go/internal/mqtt"
	"github.com/tphakala/ssvep-go/internal/notification"
	"github.com/tphakala/ssvep-go/internal/observability/metrics"
	"github.com/tphakala/ssvep-go/internal/recording"
	"github.com/tphakala/ssvep-go/internal/trial"
	"github.com/tphakala/ssvep-go/internal/vote"
)

// PredictResult is the outcome of a prediction run.
type PredictResult struct {
	RunID   string
	Record  string
	Labels  []float64 // decoded per-trial predictions, in trial order
	Trials  []int     // marker pair index of each prediction
	Vote    vote.Result
	Outcome device.Outcome
}

// PredictAndAlert classifies every trial of the input recording, reduces the
// predictions to one label by majority vote and delivers it to the alert
// device. The label is final before the serial port is opened. An outcome
// without SMS status is logged as a warning and is not an error.
func PredictAndAlert(ctx context.Context, settings *conf.Settings, deps *Deps) (*PredictResult, error) {
	run := datastore.NewRun(datastore.ModePredict, settings.Input.Path)
	res, err := predictAndAlert(ctx, settings, deps, run)

	if res != nil {
		run.Trials = len(res.Labels)
		run.Label = res.Vote.Label
		run.Votes = res.Vote.Votes
		run.Tied = res.Vote.Tied()
		run.SMSStatus = res.Outcome.SMSStatus.String()
		run.Undetermined = res.Outcome.Undetermined
		for i, label := range res.Labels {
			run.Predictions = append(run.Predictions, datastore.TrialPrediction{
				Record: res.Record,
				Trial:  res.Trials[i],
				Label:  label,
			})
		}
	}
	run.Finish(err)
	deps.saveRun(run)

	if res != nil && res.Vote.Total > 0 {
		deps.publish(ctx, res, err)
	}
	deps.writeTextfile(settings)
	return res, err
}

func predictAndAlert(ctx context.Context, settings *conf.Settings, deps *Deps, run *datastore.Run) (*PredictResult, error) {
	log := GetLogger().With(logger.String("run", run.UUID))
	out := deps.out()
	res := &PredictResult{RunID: run.UUID, Record: recording.BaseName(settings.Input.Path)}

	builder, err := NewBuilder(settings, trial.Inference, deps)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ds, report, err := builder.Build(ctx, []string{settings.Input.Path})
	if report != nil {
		// The record's own failure explains an empty dataset better.
		if failed := report.Failed(); len(failed) > 0 {
			err = failed[0].Err
		}
	}
	deps.observe(metrics.OpDatasetBuild, start, err)
	deps.recordBuild(report, ds)
	if err != nil {
		return nil, err
	}
	log.Info("extracted trials", logger.String("record", res.Record), logger.Int("trials", ds.Len()))

	start = time.Now()
	artifacts, err := classifier.LoadArtifacts(settings.Model.ModelPath, settings.Model.CodecPath)
	deps.observe(metrics.OpModelLoad, start, err)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	labels, err := classifier.PredictLabels(artifacts.Model, artifacts.Codec, ds.X)
	deps.observe(metrics.OpPrediction, start, err)
	if err != nil {
		return nil, err
	}
	res.Labels = labels
	res.Trials = ds.Trials
	if deps != nil && deps.Metrics != nil {
		for _, l := range labels {
			deps.Metrics.Pipeline.RecordPrediction(l)
		}
	}
	if err := printPredictions(out, ds, labels); err != nil {
		return res, printError(err)
	}

	result, err := vote.Majority(labels)
	if err != nil {
		return res, err
	}
	res.Vote = result
	if deps != nil && deps.Metrics != nil {
		deps.Metrics.Pipeline.SetVote(result.Label, result.Votes, result.Total)
	}
	if result.Tied() {
		log.Warn("vote tied, lowest label chosen",
			logger.Float64("label", result.Label),
			logger.Int("votes", result.Votes))
	}
	if err := printVote(out, result); err != nil {
		return res, printError(err)
	}

	session := device.NewSession(device.Config{
		Port:         settings.Device.Port,
		BaudRate:     settings.Device.BaudRate,
		Settle:       settings.Device.Settle,
		ReadyTimeout: settings.Device.ReadyTimeout,
		AckTimeout:   settings.Device.AckTimeout,
	}, deps.opener())

	start = time.Now()
	outcome, err := session.Alert(ctx, result.Label)
	res.Outcome = outcome
	deps.observe(metrics.OpDeviceSession, start, err)
	deps.recordSession(outcome, session.State(), err)
	if err != nil {
		return res, err
	}

	if outcome.Undetermined {
		log.Warn("device completed without reporting SMS status", logger.String("label", outcome.Label))
		fmt.Fprintln(out, "SMS status: undetermined")
	} else {
		log.Info("alert delivered", logger.String("label", outcome.Label), logger.String("sms", outcome.SMSStatus.String()))
		fmt.Fprintf(out, "SMS status: %s\n", outcome.SMSStatus)
	}
	return res, nil
}

func (d *Deps) opener() device.Opener {
	if d == nil {
		return nil
	}
	return d.Opener
}

func (d *Deps) recordSession(outcome device.Outcome, state device.State, err error) {
	if d == nil || d.Metrics == nil {
		return
	}
	category := ""
	if err != nil {
		category = errorCategory(err)
	}
	d.Metrics.Device.RecordSession(state.String(), outcome.SMSStatus.String(), category,
		len(outcome.Lines), outcome.Duration.Seconds(), time.Now().Unix())
}

// publish hands the run outcome to MQTT and the notification services.
// Failures are logged; the run result stands regardless.
func (d *Deps) publish(ctx context.Context, res *PredictResult, runErr error) {
	if d == nil {
		return
	}
	log := GetLogger().With(logger.String("run", res.RunID))
	label := device.FormatLabel(res.Vote.Label)

	if d.Publisher != nil {
		dto := mqtt.NewResultDTO(res.RunID, res.Record, time.Now())
		dto.Frequency = res.Vote.Label
		dto.Votes = res.Vote.Votes
		dto.Trials = res.Vote.Total
		dto.Tied = res.Vote.Tied()
		for _, c := range res.Vote.Counts {
			dto.Counts[device.FormatLabel(c.Label)] = c.Votes
		}
		if runErr != nil {
			dto.Error = runErr.Error()
		} else {
			dto.SMSStatus = res.Outcome.SMSStatus.String()
			dto.Undetermined = res.Outcome.Undetermined
		}
		start := time.Now()
		err := mqtt.PublishResult(ctx, d.Publisher, d.Topic, dto)
		d.observe(metrics.OpMQTTPublish, start, err)
		if err != nil {
			log.Warn("failed to publish result", logger.Error(err))
		}
	}

	if d.Notifier != nil {
		summary := &notification.Summary{
			RunID:        res.RunID,
			Record:       res.Record,
			Label:        label,
			Votes:        res.Vote.Votes,
			Trials:       res.Vote.Total,
			Tied:         res.Vote.Tied(),
			SMSStatus:    res.Outcome.SMSStatus.String(),
			Undetermined: res.Outcome.Undetermined,
			Err:          runErr,
		}
		start := time.Now()
		err := d.Notifier.Notify(ctx, summary)
		d.observe(metrics.OpNotification, start, err)
		if err != nil {
			log.Warn("failed to send notification", logger.Error(err))
		}
	}
}

func printPredictions(w io.Writer, ds *features.Dataset, labels []float64) error {
	if _, err := fmt.Fprintln(w, "Per-trial predictions:"); err != nil {
		return err
	}
	for i, l := range labels {
		if _, err := fmt.Fprintf(w, "  trial %d (%s #%d): %s Hz\n", i+1, ds.Records[i], ds.Trials[i], device.FormatLabel(l)); err != nil {
			return err
		}
	}
	return nil
}

func printVote(w io.Writer, r vote.Result) error {
	banner := strings.Repeat("=", 40)
	_, err := fmt.Fprintf(w, "%s\nFinal prediction: %s Hz (%d of %d trials)\n%s\n",
		banner, device.FormatLabel(r.Label), r.Votes, r.Total, banner)
	return err
}

func printError(err error) error {
	return errors.New(err).
		Component("analysis").
		Category(errors.CategoryFileIO).
		Context("operation", "print_results").
		Build()
}
