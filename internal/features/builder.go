// Package features turns recordings into fixed-length spectral feature vectors.
//
// A feature vector holds one PSD value per (channel, target frequency) pair,
// channel-major: all targets of the first channel, then all targets of the next.
// Training and inference share this layout.
package features

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
	"github.com/tphakala/ssvep-go/internal/recording"
	"github.com/tphakala/ssvep-go/internal/spectral"
	"github.com/tphakala/ssvep-go/internal/trial"
)

// ErrEmptyDataset is returned when no recording produced a usable trial.
var ErrEmptyDataset = errors.NewStd("no usable trials in any recording")

// Dataset is a feature matrix with parallel labels. Labels are empty in inference mode.
type Dataset struct {
	X       [][]float64
	Y       []float64
	Records []string // source record of each row
	Trials  []int    // marker pair index of each row
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.X) }

// RecordReport summarises one recording.
type RecordReport struct {
	Record   string
	Trials   int           // feature vectors produced
	Skipped  int           // trials dropped because they were too short
	Excluded bool          // adaptation recording, not processed
	Err      error         // load or segmentation failure; Trials is 0
	Duration time.Duration // wall time spent on the recording
}

// Report summarises a build across all recordings, in input order.
type Report struct {
	Records []RecordReport
}

// TotalTrials returns the number of rows produced.
func (r *Report) TotalTrials() int {
	n := 0
	for i := range r.Records {
		n += r.Records[i].Trials
	}
	return n
}

// Failed returns the reports of recordings that could not be processed.
func (r *Report) Failed() []RecordReport {
	var failed []RecordReport
	for _, rr := range r.Records {
		if rr.Err != nil {
			failed = append(failed, rr)
		}
	}
	return failed
}

// Options configures a Builder.
type Options struct {
	Channels         []string
	SamplingRate     float64 // recordings at another rate are rejected
	AdaptationSuffix string  // base names ending with this are excluded; empty disables
	AnnotationExt    string
	Workers          int // concurrent recordings; 0 uses GOMAXPROCS
}

// LoadFunc loads the recording and markers at a base path.
type LoadFunc func(path, annotationExt string) (*recording.Recording, []recording.Marker, error)

// Builder assembles datasets from recordings.
type Builder struct {
	mode      trial.Mode
	segmenter *trial.Segmenter
	extractor *spectral.Extractor
	opts      Options
	load      LoadFunc
	log       logger.Logger
}

// NewBuilder returns a Builder. In training mode every row carries the label
// parsed from its start marker.
func NewBuilder(mode trial.Mode, extractor *spectral.Extractor, opts Options) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Builder{
		mode:      mode,
		segmenter: trial.NewSegmenter(mode, extractor.Targets()),
		extractor: extractor,
		opts:      opts,
		load:      recording.Load,
		log:       GetLogger(),
	}
}

// WithLoader replaces the recording loader.
func (b *Builder) WithLoader(load LoadFunc) *Builder {
	b.load = load
	return b
}

// VectorLen returns the length of every feature vector this builder produces.
func (b *Builder) VectorLen() int {
	return len(b.opts.Channels) * b.extractor.NumFeatures()
}

// IsAdaptation reports whether a record name marks an adaptation session.
func IsAdaptation(name, suffix string) bool {
	return suffix != "" && strings.HasSuffix(name, suffix)
}

// Build processes each recording at the given base paths and concatenates the
// rows in input order. Failures of single recordings or trials are recorded in
// the report and do not stop the build. ErrEmptyDataset is returned when no
// row was produced.
func (b *Builder) Build(ctx context.Context, paths []string) (*Dataset, *Report, error) {
	parts := make([]*Dataset, len(paths))
	report := &Report{Records: make([]RecordReport, len(paths))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	for i, path := range paths {
		name := recording.BaseName(path)
		report.Records[i].Record = name

		if IsAdaptation(name, b.opts.AdaptationSuffix) {
			report.Records[i].Excluded = true
			b.log.Info("skipping adaptation recording", logger.String("record", name))
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			parts[i], report.Records[i] = b.processPath(path)
			report.Records[i].Duration = time.Since(start)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, report, errors.New(err).
			Component("features").
			Category(errors.CategoryCancellation).
			Context("operation", "build_dataset").
			Build()
	}

	ds := &Dataset{}
	for i, part := range parts {
		rr := report.Records[i]
		switch {
		case rr.Excluded:
		case rr.Err != nil:
			b.log.Warn("could not process recording",
				logger.String("record", rr.Record),
				logger.Error(rr.Err))
		default:
			b.log.Info("processed recording",
				logger.String("record", rr.Record),
				logger.Int("trials", rr.Trials),
				logger.Int("skipped", rr.Skipped),
				logger.Duration("elapsed", rr.Duration))
		}
		if part == nil {
			continue
		}
		ds.X = append(ds.X, part.X...)
		ds.Y = append(ds.Y, part.Y...)
		ds.Records = append(ds.Records, part.Records...)
		ds.Trials = append(ds.Trials, part.Trials...)
	}

	if ds.Len() == 0 {
		return nil, report, errors.New(ErrEmptyDataset).
			Component("features").
			Category(errors.CategoryDataset).
			Context("recordings", len(paths)).
			Context("failed", len(report.Failed())).
			Build()
	}

	return ds, report, nil
}

// processPath loads one recording and extracts its rows. Any error is captured in
// the returned report with zero trials.
func (b *Builder) processPath(path string) (*Dataset, RecordReport) {
	rr := RecordReport{Record: recording.BaseName(path)}

	rec, markers, err := b.load(path, b.opts.AnnotationExt)
	if err != nil {
		rr.Err = err
		return nil, rr
	}

	part, skipped, err := b.Extract(rec, markers)
	if err != nil {
		rr.Err = err
		return nil, rr
	}

	rr.Trials = part.Len()
	rr.Skipped = skipped
	return part, rr
}

// Extract segments one recording and computes a feature vector per trial.
// Trials shorter than the Welch window are skipped and counted. A missing
// channel or a sampling rate mismatch fails the whole recording.
func (b *Builder) Extract(rec *recording.Recording, markers []recording.Marker) (*Dataset, int, error) {
	if b.opts.SamplingRate > 0 && rec.SamplingRate() != b.opts.SamplingRate {
		return nil, 0, errors.New(fmt.Errorf("record %s sampled at %g Hz, expected %g Hz",
			rec.Name(), rec.SamplingRate(), b.opts.SamplingRate)).
			Component("features").
			Category(errors.CategoryValidation).
			Context("record", rec.Name()).
			Build()
	}

	ds := &Dataset{}
	skipped := 0
	for tr, err := range b.segmenter.Segment(rec, markers, b.opts.Channels) {
		if err != nil {
			return nil, 0, err
		}

		vec, err := b.vector(tr)
		if err != nil {
			var ee *spectral.ExtractionError
			if !errors.As(err, &ee) {
				return nil, 0, err
			}
			skipped++
			b.log.Debug("skipping short trial",
				logger.String("record", rec.Name()),
				logger.Int("pair", tr.Index),
				logger.Int("samples", ee.Samples),
				logger.Int("window", ee.Window))
			continue
		}

		ds.X = append(ds.X, vec)
		if tr.HasLabel {
			ds.Y = append(ds.Y, tr.Label)
		}
		ds.Records = append(ds.Records, rec.Name())
		ds.Trials = append(ds.Trials, tr.Index)
	}

	return ds, skipped, nil
}

func (b *Builder) vector(tr trial.Trial) ([]float64, error) {
	vec := make([]float64, 0, b.VectorLen())
	for c := range tr.NumChannels() {
		values, err := b.extractor.Extract(tr.Channel(c), tr.SamplingRate())
		if err != nil {
			return nil, err
		}
		vec = append(vec, values...)
	}
	return vec, nil
}
