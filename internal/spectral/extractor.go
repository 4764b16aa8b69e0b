package spectral

import (
	"fmt"
	"math"
	"slices"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
)

// ExtractionError reports a segment too short for one Welch window.
// Callers skip the trial and continue.
type ExtractionError struct {
	Samples int
	Window  int
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("segment of %d samples is shorter than the %d-sample window", e.Samples, e.Window)
}

// ErrorCategory implements errors.CategorizedError.
func (e *ExtractionError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryFeatureExtraction
}

// Config holds the Welch parameters and the target frequency list.
type Config struct {
	WindowSeconds float64   // segment length in seconds, nperseg = round(WindowSeconds * fs)
	Overlap       float64   // fraction of a segment shared with the next, noverlap = floor(Overlap * nperseg)
	Targets       []float64 // Hz, output order
}

// DefaultConfig returns the reference parameters: a 2 s window with half overlap.
func DefaultConfig(targets []float64) Config {
	return Config{WindowSeconds: 2, Overlap: 0.5, Targets: targets}
}

// Extractor picks the PSD value at the bin nearest each target frequency.
// Plans are computed once per sampling rate and cached; Extractor is safe for
// concurrent use.
type Extractor struct {
	cfg   Config
	plans *cache.Cache
	log   logger.Logger
}

// NewExtractor validates cfg and returns an Extractor.
func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.WindowSeconds <= 0 {
		return nil, errors.Newf("window length must be positive, got %g s", cfg.WindowSeconds).
			Component("spectral").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.Overlap < 0 || cfg.Overlap >= 1 {
		return nil, errors.Newf("overlap must be in [0, 1), got %g", cfg.Overlap).
			Component("spectral").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if len(cfg.Targets) == 0 {
		return nil, errors.Newf("no target frequencies configured").
			Component("spectral").
			Category(errors.CategoryConfiguration).
			Build()
	}

	cfg.Targets = slices.Clone(cfg.Targets)
	return &Extractor{
		cfg:   cfg,
		plans: cache.New(cache.NoExpiration, 0),
		log:   GetLogger(),
	}, nil
}

// NumFeatures returns the number of values Extract produces per channel.
func (e *Extractor) NumFeatures() int { return len(e.cfg.Targets) }

// Targets returns a copy of the target frequencies.
func (e *Extractor) Targets() []float64 { return slices.Clone(e.cfg.Targets) }

// WindowLength returns nperseg for sampling rate fs.
func (e *Extractor) WindowLength(fs float64) int {
	return int(math.Round(e.cfg.WindowSeconds * fs))
}

// Bins returns the selected bin index for each target at sampling rate fs.
func (e *Extractor) Bins(fs float64) ([]int, error) {
	p, err := e.plan(fs)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.bins), nil
}

// Extract returns one PSD value per target frequency for a single channel segment.
// A segment shorter than the window yields an *ExtractionError.
func (e *Extractor) Extract(samples []float64, fs float64) ([]float64, error) {
	p, err := e.plan(fs)
	if err != nil {
		return nil, err
	}
	if len(samples) < p.nperseg {
		return nil, &ExtractionError{Samples: len(samples), Window: p.nperseg}
	}

	density := p.psd(samples)
	features := make([]float64, len(p.bins))
	for i, bin := range p.bins {
		features[i] = density[bin]
	}
	return features, nil
}

func (e *Extractor) plan(fs float64) (*plan, error) {
	key := fmt.Sprintf("%g", fs)
	if cached, ok := e.plans.Get(key); ok {
		return cached.(*plan), nil
	}

	nperseg := e.WindowLength(fs)
	noverlap := int(math.Floor(e.cfg.Overlap * float64(nperseg)))
	if err := checkParams(fs, nperseg, noverlap); err != nil {
		return nil, errors.New(err).
			Component("spectral").
			Category(errors.CategoryFeatureExtraction).
			Context("sampling_rate", fs).
			Build()
	}

	p := newPlan(fs, nperseg, noverlap, e.cfg.Targets)
	for i, bin := range p.bins {
		if d := math.Abs(p.freqs[bin] - e.cfg.Targets[i]); d > p.fs/float64(p.nperseg)/2 {
			e.log.Warn("target frequency outside the spectrum, using nearest bin",
				logger.Float64("target_hz", e.cfg.Targets[i]),
				logger.Float64("bin_hz", p.freqs[bin]))
		}
	}

	// A concurrent caller may have stored an equivalent plan; either is fine.
	e.plans.Set(key, p, cache.NoExpiration)
	e.log.Debug("computed Welch plan",
		logger.Float64("sampling_rate", fs),
		logger.Int("nperseg", nperseg),
		logger.Int("noverlap", noverlap),
		logger.Any("bins", p.bins))
	return p, nil
}
