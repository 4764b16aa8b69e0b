// Package trial splits a recording into stimulus trials using paired annotation markers.
package trial

import (
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strconv"

	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
	"github.com/tphakala/ssvep-go/internal/recording"
)

// Mode selects whether ground-truth labels are parsed from start markers.
type Mode int

const (
	// Inference yields every well-formed marker pair without a label.
	Inference Mode = iota
	// Training parses a label from each start marker and drops unlabeled pairs.
	Training
)

func (m Mode) String() string {
	if m == Training {
		return "training"
	}
	return "inference"
}

// labelPattern matches the first decimal number in a marker text.
var labelPattern = regexp.MustCompile(`(\d+\.?\d*)`)

// Trial is a view of one stimulus period of a recording restricted to a channel subset.
// It does not own sample data.
type Trial struct {
	Index    int // position of the marker pair in the marker sequence
	Start    int // first sample, inclusive
	End      int // last sample, exclusive
	Label    float64
	HasLabel bool

	rec      *recording.Recording
	channels []int
}

// Len returns the number of samples in the trial.
func (t Trial) Len() int { return t.End - t.Start }

// NumChannels returns the number of channels in the trial's subset.
func (t Trial) NumChannels() int { return len(t.channels) }

// Channel returns the samples of the i-th requested channel. The slice aliases
// the recording and must not be modified.
func (t Trial) Channel(i int) []float64 {
	return t.rec.Segment(t.channels[i], t.Start, t.End)
}

// Record returns the name of the recording the trial belongs to.
func (t Trial) Record() string { return t.rec.Name() }

// SamplingRate returns the sampling rate of the underlying recording.
func (t Trial) SamplingRate() float64 { return t.rec.SamplingRate() }

// MissingChannelError reports a requested channel that the recording lacks.
type MissingChannelError struct {
	Record  string
	Channel string
}

func (e *MissingChannelError) Error() string {
	return fmt.Sprintf("record %s has no channel %q", e.Record, e.Channel)
}

// ErrorCategory implements errors.CategorizedError.
func (e *MissingChannelError) ErrorCategory() errors.ErrorCategory {
	return errors.CategorySegmentation
}

// Segmenter turns marker pairs into trials.
type Segmenter struct {
	mode    Mode
	targets []float64
	log     logger.Logger
}

// NewSegmenter returns a segmenter. targets is the allowed label set in Training mode.
func NewSegmenter(mode Mode, targets []float64) *Segmenter {
	return &Segmenter{
		mode:    mode,
		targets: slices.Clone(targets),
		log:     GetLogger(),
	}
}

// Segment yields the trials defined by consecutive marker pairs (2i, 2i+1).
// An odd trailing marker is ignored. If a requested channel is missing the
// sequence yields a single *MissingChannelError before any trial.
// Pairs with an empty, inverted or out-of-range span are skipped, as are
// unlabeled pairs in Training mode.
func (s *Segmenter) Segment(rec *recording.Recording, markers []recording.Marker, channels []string) iter.Seq2[Trial, error] {
	return func(yield func(Trial, error) bool) {
		indices := make([]int, len(channels))
		for i, name := range channels {
			idx, ok := rec.ChannelIndex(name)
			if !ok {
				err := errors.New(&MissingChannelError{Record: rec.Name(), Channel: name}).
					Component("trial").
					Category(errors.CategorySegmentation).
					Context("record", rec.Name()).
					Context("channel", name).
					Build()
				yield(Trial{}, err)
				return
			}
			indices[i] = idx
		}

		for i := 0; i+1 < len(markers); i += 2 {
			start, end := markers[i].Sample, markers[i+1].Sample

			if start >= end || end > rec.Len() {
				s.log.Warn("skipping marker pair with invalid span",
					logger.String("record", rec.Name()),
					logger.Int("pair", i/2),
					logger.Int("start", start),
					logger.Int("end", end),
					logger.Int("samples", rec.Len()))
				continue
			}

			t := Trial{
				Index:    i / 2,
				Start:    start,
				End:      end,
				rec:      rec,
				channels: indices,
			}

			if s.mode == Training {
				label, ok := ParseLabel(markers[i].Text)
				if !ok || !slices.Contains(s.targets, label) {
					s.log.Debug("skipping trial without usable label",
						logger.String("record", rec.Name()),
						logger.Int("pair", i/2),
						logger.String("marker", markers[i].Text))
					continue
				}
				t.Label = label
				t.HasLabel = true
			}

			if !yield(t, nil) {
				return
			}
		}
	}
}

// ParseLabel extracts the first decimal number in text.
func ParseLabel(text string) (float64, bool) {
	match := labelPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
