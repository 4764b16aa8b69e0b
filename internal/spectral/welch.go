// Package spectral computes Welch power spectral density features at fixed target frequencies.
package spectral

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// plan holds everything about a Welch estimate that depends only on the
// segment length, overlap and sampling rate.
type plan struct {
	fs       float64
	nperseg  int
	noverlap int
	window   []float64
	scale    float64 // density scaling 1/(fs * sum(w^2))
	freqs    []float64
	bins     []int // nearest bin per target, in target order
	ffts     sync.Pool
}

func newPlan(fs float64, nperseg, noverlap int, targets []float64) *plan {
	window := hannPeriodic(nperseg)

	var sumSq float64
	for _, w := range window {
		sumSq += w * w
	}

	freqs := BinFrequencies(fs, nperseg)

	p := &plan{
		fs:       fs,
		nperseg:  nperseg,
		noverlap: noverlap,
		window:   window,
		scale:    1 / (fs * sumSq),
		freqs:    freqs,
		bins:     NearestBins(freqs, targets),
	}
	p.ffts.New = func() any { return fourier.NewFFT(nperseg) }
	return p
}

// hannPeriodic returns the periodic (DFT-even) Hann window of length n.
func hannPeriodic(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// BinFrequencies returns the one-sided bin centres k*fs/nperseg for k = 0..nperseg/2.
func BinFrequencies(fs float64, nperseg int) []float64 {
	freqs := make([]float64, nperseg/2+1)
	for k := range freqs {
		freqs[k] = float64(k) * fs / float64(nperseg)
	}
	return freqs
}

// NearestBins returns, for each target, the index of the bin with the smallest
// absolute distance to it. The lowest index wins an exact tie.
func NearestBins(freqs, targets []float64) []int {
	bins := make([]int, len(targets))
	for t, target := range targets {
		best := 0
		bestDist := math.Inf(1)
		for k, f := range freqs {
			if d := math.Abs(f - target); d < bestDist {
				best, bestDist = k, d
			}
		}
		bins[t] = best
	}
	return bins
}

// psd runs Welch's method on x: mean-detrended, Hann-windowed segments,
// one-sided density spectrum averaged over segments.
func (p *plan) psd(x []float64) []float64 {
	fft := p.ffts.Get().(*fourier.FFT)
	defer p.ffts.Put(fft)

	nbins := p.nperseg/2 + 1
	out := make([]float64, nbins)
	seg := make([]float64, p.nperseg)
	coeffs := make([]complex128, nbins)

	step := p.nperseg - p.noverlap
	segments := 0
	for start := 0; start+p.nperseg <= len(x); start += step {
		var mean float64
		for _, v := range x[start : start+p.nperseg] {
			mean += v
		}
		mean /= float64(p.nperseg)

		for i := range seg {
			seg[i] = (x[start+i] - mean) * p.window[i]
		}

		coeffs = fft.Coefficients(coeffs, seg)
		for k, c := range coeffs {
			out[k] += real(c)*real(c) + imag(c)*imag(c)
		}
		segments++
	}

	// Double every bin except DC, and except Nyquist when nperseg is even.
	last := nbins
	if p.nperseg%2 == 0 {
		last = nbins - 1
	}
	norm := p.scale / float64(segments)
	for k := range out {
		out[k] *= norm
		if k > 0 && k < last {
			out[k] *= 2
		}
	}
	return out
}

// Welch estimates the power spectral density of x sampled at fs using segments
// of nperseg samples overlapping by noverlap. It returns the bin frequencies
// and the density in units²/Hz.
func Welch(x []float64, fs float64, nperseg, noverlap int) (freqs, psd []float64, err error) {
	if err := checkParams(fs, nperseg, noverlap); err != nil {
		return nil, nil, err
	}
	if len(x) < nperseg {
		return nil, nil, &ExtractionError{Samples: len(x), Window: nperseg}
	}

	p := newPlan(fs, nperseg, noverlap, nil)
	return p.freqs, p.psd(x), nil
}

func checkParams(fs float64, nperseg, noverlap int) error {
	if fs <= 0 {
		return fmt.Errorf("sampling rate must be positive, got %g", fs)
	}
	if nperseg < 2 {
		return fmt.Errorf("segment length must be at least 2, got %d", nperseg)
	}
	if noverlap < 0 || noverlap >= nperseg {
		return fmt.Errorf("overlap %d must be in [0, %d)", noverlap, nperseg)
	}
	return nil
}
