package analysis

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tphakala/ssvep-go/internal/classifier"
	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/datastore"
	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/features"
	"github.com/tphakala/ssvep-go/internal/logger"
	"github.com/tphakala/ssvep-go/internal/observability/metrics"
	"github.com/tphakala/ssvep-go/internal/trial"
)

// TrainResult is the outcome of a training run.
type TrainResult struct {
	RunID      string
	Report     *features.Report
	Rows       int
	Artifacts  classifier.Artifacts
	Evaluation *classifier.Evaluation
}

// Train builds a labeled dataset from every recording in the data directory,
// fits the classifier, prints the class table and held-out confusion matrix
// and saves the model and codec artifacts.
func Train(ctx context.Context, settings *conf.Settings, deps *Deps) (*TrainResult, error) {
	run := datastore.NewRun(datastore.ModeTrain, settings.Input.DataDir)
	res, err := train(ctx, settings, deps, run)

	if res != nil {
		run.Trials = res.Rows
		run.Skipped = skippedTrials(res.Report)
		if res.Evaluation != nil {
			run.Accuracy = res.Evaluation.Accuracy
		}
	}
	run.Finish(err)
	deps.saveRun(run)
	deps.writeTextfile(settings)
	return res, err
}

func train(ctx context.Context, settings *conf.Settings, deps *Deps, run *datastore.Run) (*TrainResult, error) {
	log := GetLogger().With(logger.String("run", run.UUID))
	out := deps.out()
	res := &TrainResult{RunID: run.UUID}

	paths, err := features.Discover(settings.Input.DataDir)
	if err != nil {
		return nil, err
	}
	log.Info("discovered recordings", logger.String("dir", settings.Input.DataDir), logger.Int("count", len(paths)))

	builder, err := NewBuilder(settings, trial.Training, deps)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ds, report, err := builder.Build(ctx, paths)
	deps.observe(metrics.OpDatasetBuild, start, err)
	deps.recordBuild(report, ds)
	res.Report = report
	if err != nil {
		return res, err
	}
	res.Rows = ds.Len()
	log.Info("dataset ready",
		logger.Int("rows", ds.Len()),
		logger.Int("features", builder.VectorLen()),
		logger.Int("failed_recordings", len(report.Failed())))

	start = time.Now()
	artifacts, eval, err := classifier.Train(ds, deps.trainer(settings), classifier.TrainOptions{
		TestRatio: settings.Model.TestRatio,
		Seed:      settings.Model.Seed,
	})
	deps.observe(metrics.OpModelTrain, start, err)
	if err != nil {
		return res, err
	}
	res.Artifacts = artifacts
	res.Evaluation = eval
	if deps != nil && deps.Metrics != nil {
		deps.Metrics.Pipeline.SetAccuracy(eval.Accuracy)
	}

	if err := printTraining(out, artifacts.Codec, eval); err != nil {
		return res, errors.New(err).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("operation", "print_evaluation").
			Build()
	}

	if err := classifier.SaveArtifacts(settings.Model.ModelPath, settings.Model.CodecPath, artifacts); err != nil {
		return res, err
	}
	log.Info("saved model artifacts",
		logger.String("model", settings.Model.ModelPath),
		logger.String("codec", settings.Model.CodecPath))
	return res, nil
}

func printTraining(out io.Writer, codec *classifier.Codec, eval *classifier.Evaluation) error {
	if _, err := fmt.Fprintln(out, "Label mapping:"); err != nil {
		return err
	}
	if err := classifier.WriteClassTable(out, codec); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "\nTrain rows: %d, test rows: %d\nAccuracy: %.2f%%\n\nConfusion matrix (rows true, columns predicted):\n",
		eval.TrainSize, eval.TestSize, eval.Accuracy*100); err != nil {
		return err
	}
	return eval.WriteConfusion(out)
}
