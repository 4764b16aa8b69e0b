package recording

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
)

// SynthOptions describes a synthetic SSVEP session: one trial per entry of
// Stimuli, separated by rest periods.
type SynthOptions struct {
	Name          string
	SamplingRate  float64
	Channels      []string
	Stimuli       []float64 // flicker frequency of each trial, Hz
	TrialSeconds  float64
	RestSeconds   float64
	Amplitude     float64 // uV of the evoked response
	NoiseStdDev   float64 // uV of Gaussian background noise
	Seed          uint64
	UnlabeledText string // start marker text instead of the frequency, if set
}

// Synthesize builds a recording whose occipital response follows each stimulus
// frequency and its first harmonic, plus the paired markers delimiting the trials.
// Start markers carry the frequency as text, e.g. "stim 7.5 Hz".
func Synthesize(opts SynthOptions) (*Recording, []Marker, error) {
	if opts.SamplingRate <= 0 || opts.TrialSeconds <= 0 || opts.RestSeconds < 0 {
		return nil, nil, fmt.Errorf("invalid synthetic session timing")
	}

	trialLen := int(math.Round(opts.TrialSeconds * opts.SamplingRate))
	restLen := int(math.Round(opts.RestSeconds * opts.SamplingRate))
	total := restLen + len(opts.Stimuli)*(trialLen+restLen)

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	data := make([][]float64, len(opts.Channels))
	for c := range data {
		data[c] = make([]float64, total)
		for i := range data[c] {
			data[c][i] = rng.NormFloat64() * opts.NoiseStdDev
		}
	}

	markers := make([]Marker, 0, 2*len(opts.Stimuli))
	pos := restLen
	for _, freq := range opts.Stimuli {
		text := "stim " + strconv.FormatFloat(freq, 'f', -1, 64) + " Hz"
		if opts.UnlabeledText != "" {
			text = opts.UnlabeledText
		}
		markers = append(markers, Marker{Sample: pos, Text: text}, Marker{Sample: pos + trialLen, Text: "end"})

		for c := range data {
			phase := rng.Float64() * 2 * math.Pi
			for i := range trialLen {
				ts := float64(i) / opts.SamplingRate
				data[c][pos+i] += opts.Amplitude * (math.Sin(2*math.Pi*freq*ts+phase) +
					0.3*math.Sin(4*math.Pi*freq*ts+phase))
			}
		}
		pos += trialLen + restLen
	}

	name := opts.Name
	if name == "" {
		name = "synthetic"
	}
	rec, err := New(name, opts.SamplingRate, opts.Channels, data)
	if err != nil {
		return nil, nil, err
	}
	return rec, markers, nil
}
