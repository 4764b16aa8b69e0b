// Package recording loads multichannel EEG recordings and their annotation markers.
//
// A record is addressed by its base path P: the signals live in P.edf and the
// markers in P.<ext> (default "win"). Loaded recordings are immutable.
package recording

import (
	"fmt"
	"slices"

	"github.com/tphakala/ssvep-go/internal/errors"
)

// Recording is an immutable multichannel signal sampled at a fixed rate.
// Samples are stored channel-major: one slice per channel, all of equal length.
type Recording struct {
	name         string
	samplingRate float64
	channels     []string
	data         [][]float64
}

// Marker is an annotation at a sample index. Markers are consumed in
// (start, end) pairs; the start marker's text may carry a label.
type Marker struct {
	Sample int
	Text   string
}

// New builds a Recording from channel-major data. The slices are copied.
func New(name string, samplingRate float64, channels []string, data [][]float64) (*Recording, error) {
	if samplingRate <= 0 {
		return nil, newRecordingError(fmt.Errorf("sampling rate must be positive, got %g", samplingRate), name)
	}
	if len(channels) != len(data) {
		return nil, newRecordingError(fmt.Errorf("%d channel names for %d signals", len(channels), len(data)), name)
	}

	seen := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		if _, dup := seen[ch]; dup {
			return nil, newRecordingError(fmt.Errorf("duplicate channel %q", ch), name)
		}
		seen[ch] = struct{}{}
	}

	copied := make([][]float64, len(data))
	for i := range data {
		if len(data[i]) != len(data[0]) {
			return nil, newRecordingError(fmt.Errorf("channel %q has %d samples, want %d",
				channels[i], len(data[i]), len(data[0])), name)
		}
		copied[i] = slices.Clone(data[i])
	}

	return &Recording{
		name:         name,
		samplingRate: samplingRate,
		channels:     slices.Clone(channels),
		data:         copied,
	}, nil
}

// Name returns the record's base name.
func (r *Recording) Name() string { return r.name }

// SamplingRate returns the sampling rate in Hz.
func (r *Recording) SamplingRate() float64 { return r.samplingRate }

// Channels returns a copy of the channel names in storage order.
func (r *Recording) Channels() []string { return slices.Clone(r.channels) }

// Len returns the number of samples per channel.
func (r *Recording) Len() int {
	if len(r.data) == 0 {
		return 0
	}
	return len(r.data[0])
}

// ChannelIndex returns the storage index of the named channel.
func (r *Recording) ChannelIndex(name string) (int, bool) {
	i := slices.Index(r.channels, name)
	return i, i >= 0
}

// Channel returns the samples of channel i. The slice aliases the recording's
// storage and must not be modified.
func (r *Recording) Channel(i int) []float64 {
	return r.data[i]
}

// Segment returns samples [start, end) of channel i without copying.
func (r *Recording) Segment(i, start, end int) []float64 {
	return r.data[i][start:end:end]
}

func newRecordingError(err error, name string) error {
	return errors.New(err).
		Component("recording").
		Category(errors.CategoryRecording).
		Context("record", name).
		Build()
}
