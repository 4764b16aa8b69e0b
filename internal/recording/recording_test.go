package recording

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ssvep-go/internal/errors"
)

func TestNewValidatesShape(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		rate     float64
		channels []string
		data     [][]float64
		wantErr  string
	}{
		{"valid", 128, []string{"O1", "O2"}, [][]float64{{1, 2}, {3, 4}}, ""},
		{"zero rate", 0, []string{"O1"}, [][]float64{{1}}, "sampling rate"},
		{"name count mismatch", 128, []string{"O1"}, [][]float64{{1}, {2}}, "1 channel names for 2 signals"},
		{"ragged channels", 128, []string{"O1", "O2"}, [][]float64{{1, 2}, {3}}, "has 1 samples, want 2"},
		{"duplicate channel", 128, []string{"O1", "O1"}, [][]float64{{1}, {2}}, "duplicate channel"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec, err := New("S01", tc.rate, tc.channels, tc.data)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, 2, rec.Len())
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.True(t, errors.IsCategory(err, errors.CategoryRecording))
		})
	}
}

func TestRecordingIsImmutable(t *testing.T) {
	t.Parallel()

	data := [][]float64{{1, 2, 3}}
	channels := []string{"O1"}
	rec, err := New("S01", 128, channels, data)
	require.NoError(t, err)

	data[0][0] = 99
	channels[0] = "Oz"
	rec.Channels()[0] = "Fz"

	assert.InDelta(t, 1.0, rec.Channel(0)[0], 0)
	assert.Equal(t, []string{"O1"}, rec.Channels())

	idx, ok := rec.ChannelIndex("O1")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	_, ok = rec.ChannelIndex("Oz")
	assert.False(t, ok)
}

func TestEDFRoundTrip(t *testing.T) {
	t.Parallel()

	const rate = 128
	n := rate * 3
	o1 := make([]float64, n)
	o2 := make([]float64, n)
	for i := range n {
		ts := float64(i) / rate
		o1[i] = 40 * math.Sin(2*math.Pi*7.5*ts)
		o2[i] = 25 * math.Cos(2*math.Pi*12*ts)
	}

	rec, err := New("S01", rate, []string{"O1", "O2"}, [][]float64{o1, o2})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "S01.edf")
	require.NoError(t, WriteEDF(path, rec))

	loaded, err := LoadEDF(path)
	require.NoError(t, err)

	assert.Equal(t, "S01", loaded.Name())
	assert.InDelta(t, rate, loaded.SamplingRate(), 0)
	assert.Equal(t, []string{"O1", "O2"}, loaded.Channels())
	require.Equal(t, n, loaded.Len())

	// 16-bit quantization over a ~±41 uV range
	for i := range n {
		assert.InDelta(t, o1[i], loaded.Channel(0)[i], 0.01)
		assert.InDelta(t, o2[i], loaded.Channel(1)[i], 0.01)
	}
}

func TestWriteEDFPadsPartialRecord(t *testing.T) {
	t.Parallel()

	rec, err := New("short", 4, []string{"O1"}, [][]float64{{1, 2, 3, 4, 5, 6}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "short.edf")
	require.NoError(t, WriteEDF(path, rec))

	loaded, err := LoadEDF(path)
	require.NoError(t, err)
	require.Equal(t, 8, loaded.Len())
	assert.InDelta(t, 6, loaded.Channel(0)[7], 0.01)
}

func TestWriteEDFRejectsFractionalRate(t *testing.T) {
	t.Parallel()

	rec, err := New("odd", 127.5, []string{"O1"}, [][]float64{{1}})
	require.NoError(t, err)
	require.Error(t, WriteEDF(filepath.Join(t.TempDir(), "odd.edf"), rec))
}

func TestLoadEDFMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadEDF(filepath.Join(t.TempDir(), "absent.edf"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestLoadEDFRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.edf")
	require.NoError(t, os.WriteFile(path, []byte("not an edf file"), 0o600))

	_, err := LoadEDF(path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestReadAnnotations(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"# trial markers",
		"0\tstim 7.5Hz start",
		"",
		"256,end",
		"  300 \t 12 Hz ",
	}, "\n")

	markers, err := ReadAnnotations(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Marker{
		{Sample: 0, Text: "stim 7.5Hz start"},
		{Sample: 256, Text: "end"},
		{Sample: 300, Text: "12 Hz"},
	}, markers)
}

func TestReadAnnotationsErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"non numeric", "abc\tx", "line 1: invalid sample index"},
		{"negative", "# c\n-5\tx", "line 2: negative sample index"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadAnnotations(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSaveAndLoadRecord(t *testing.T) {
	t.Parallel()

	rec, err := New("S02", 128, []string{"O1"}, [][]float64{make([]float64, 256)})
	require.NoError(t, err)
	markers := []Marker{{0, "10.0"}, {128, "end"}}

	base := filepath.Join(t.TempDir(), "S02")
	require.NoError(t, Save(base, "", rec, markers))

	loaded, loadedMarkers, err := Load(base+".edf", DefaultAnnotationExt)
	require.NoError(t, err)
	assert.Equal(t, 256, loaded.Len())
	assert.Equal(t, markers, loadedMarkers)
}

func TestBaseName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "S01x", BaseName("/data/S01x.edf"))
	assert.Equal(t, "S01", BaseName("data/S01"))
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	opts := SynthOptions{
		Name:         "S07",
		SamplingRate: 128,
		Channels:     []string{"O1", "O2", "Pz"},
		Stimuli:      []float64{7.5, 12},
		TrialSeconds: 4,
		RestSeconds:  1,
		Amplitude:    5,
		NoiseStdDev:  1,
		Seed:         42,
	}

	rec, markers, err := Synthesize(opts)
	require.NoError(t, err)

	assert.Equal(t, "S07", rec.Name())
	assert.Equal(t, []string{"O1", "O2", "Pz"}, rec.Channels())
	assert.Equal(t, 128+2*(512+128), rec.Len())

	want := []Marker{
		{Sample: 128, Text: "stim 7.5 Hz"},
		{Sample: 640, Text: "end"},
		{Sample: 768, Text: "stim 12 Hz"},
		{Sample: 1280, Text: "end"},
	}
	assert.Equal(t, want, markers)

	again, _, err := Synthesize(opts)
	require.NoError(t, err)
	assert.Equal(t, rec.Channel(0), again.Channel(0), "same seed must give the same samples")

	opts.UnlabeledText = "trial"
	_, markers, err = Synthesize(opts)
	require.NoError(t, err)
	assert.Equal(t, "trial", markers[0].Text)

	_, _, err = Synthesize(SynthOptions{SamplingRate: 0, TrialSeconds: 1})
	require.Error(t, err)
}
