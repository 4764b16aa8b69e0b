package spectral

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ssvep-go/internal/errors"
)

var targets = []float64{6.66, 7.5, 8.57, 10.0, 12.0}

func sine(n int, fs, freq, amp float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	return x
}

func TestBinFrequencies(t *testing.T) {
	t.Parallel()

	freqs := BinFrequencies(128, 256)
	require.Len(t, freqs, 129)
	assert.InDelta(t, 0.0, freqs[0], 0)
	assert.InDelta(t, 0.5, freqs[1], 1e-12)
	assert.InDelta(t, 64.0, freqs[128], 1e-12)
}

func TestNearestBins(t *testing.T) {
	t.Parallel()

	freqs := BinFrequencies(128, 256)
	assert.Equal(t, []int{13, 15, 17, 20, 24}, NearestBins(freqs, targets))

	// exact tie between 0 and 1 goes to the lower bin
	assert.Equal(t, []int{0, 2}, NearestBins([]float64{0, 1, 2}, []float64{0.5, 5}))
}

func TestWelchSinePeak(t *testing.T) {
	t.Parallel()

	const fs = 128.0
	x := sine(1024, fs, 10, 3)

	freqs, psd, err := Welch(x, fs, 256, 128)
	require.NoError(t, err)
	require.Len(t, psd, len(freqs))

	peak := 0
	for k := range psd {
		if psd[k] > psd[peak] {
			peak = k
		}
	}
	assert.InDelta(t, 10.0, freqs[peak], 1e-12)

	// density integrates to the sine's power A²/2
	var total float64
	for _, v := range psd {
		total += v
	}
	total *= fs / 256
	assert.InEpsilon(t, 4.5, total, 1e-9)
}

func TestWelchRemovesMean(t *testing.T) {
	t.Parallel()

	x := make([]float64, 512)
	for i := range x {
		x[i] = 42
	}

	_, psd, err := Welch(x, 128, 256, 128)
	require.NoError(t, err)
	for _, v := range psd {
		assert.InDelta(t, 0, v, 1e-20)
	}
}

func TestWelchRejectsBadParams(t *testing.T) {
	t.Parallel()

	x := make([]float64, 512)
	_, _, err := Welch(x, 0, 256, 128)
	require.Error(t, err)
	_, _, err = Welch(x, 128, 256, 256)
	require.Error(t, err)
	_, _, err = Welch(x, 128, 1024, 0)
	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	ext, err := NewExtractor(DefaultConfig(targets))
	require.NoError(t, err)

	features, err := ext.Extract(sine(256, 128, 12, 1), 128)
	require.NoError(t, err)
	require.Len(t, features, len(targets))

	// the 12 Hz feature dominates for a 12 Hz stimulus
	for i := range 4 {
		assert.Greater(t, features[4], features[i])
	}

	bins, err := ext.Bins(128)
	require.NoError(t, err)
	assert.Equal(t, []int{13, 15, 17, 20, 24}, bins)
	assert.Equal(t, 256, ext.WindowLength(128))
}

func TestExtractShortSegment(t *testing.T) {
	t.Parallel()

	ext, err := NewExtractor(DefaultConfig(targets))
	require.NoError(t, err)

	_, err = ext.Extract(make([]float64, 255), 128)
	require.Error(t, err)

	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 255, ee.Samples)
	assert.Equal(t, 256, ee.Window)
	assert.Equal(t, errors.CategoryFeatureExtraction, ee.ErrorCategory())
}

func TestNewExtractorValidates(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		cfg  Config
	}{
		{"zero window", Config{WindowSeconds: 0, Overlap: 0.5, Targets: targets}},
		{"full overlap", Config{WindowSeconds: 2, Overlap: 1, Targets: targets}},
		{"no targets", Config{WindowSeconds: 2, Overlap: 0.5}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewExtractor(tc.cfg)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
		})
	}
}

func TestExtractConcurrent(t *testing.T) {
	t.Parallel()

	ext, err := NewExtractor(DefaultConfig(targets))
	require.NoError(t, err)

	x := sine(640, 128, 7.5, 2)
	want, err := ext.Extract(x, 128)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			got, err := ext.Extract(x, 128)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
	wg.Wait()
}
