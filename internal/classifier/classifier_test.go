package classifier

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/features"
)

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	labels := []float64{10.0, 6.66, 7.5, 6.66, 12.0, 8.57}
	c, err := NewCodec(labels)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Len())
	assert.Equal(t, []float64{6.66, 7.5, 8.57, 10.0, 12.0}, c.Classes())

	for _, l := range labels {
		id, err := c.Encode(l)
		require.NoError(t, err)
		back, err := c.Decode(id)
		require.NoError(t, err)
		assert.InDelta(t, l, back, 0)
	}

	_, err = c.Encode(9.0)
	require.Error(t, err)
	_, err = c.Decode(5)
	require.Error(t, err)
	_, err = c.Decode(-1)
	require.Error(t, err)

	_, err = NewCodec(nil)
	require.Error(t, err)
}

func TestCodecSaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "codec.yaml")
	c, err := NewCodec([]float64{12, 7.5, 10})
	require.NoError(t, err)
	require.NoError(t, SaveCodec(path, c))

	loaded, err := LoadCodec(path)
	require.NoError(t, err)
	assert.Equal(t, c.Classes(), loaded.Classes())
}

func TestLoadCodecRejectsBadFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unsorted", "version: 1\nclasses: [10, 7.5]\n"},
		{"duplicates", "version: 1\nclasses: [7.5, 7.5]\n"},
		{"empty", "version: 1\nclasses: []\n"},
		{"version", "version: 9\nclasses: [7.5]\n"},
		{"garbage", "classes: {not: a list}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "codec.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			_, err := LoadCodec(path)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryModelLoad))
		})
	}

	_, err := LoadCodec(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestStratifiedSplit(t *testing.T) {
	t.Parallel()

	y := []int{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 3}
	train, test, err := StratifiedSplit(y, 0.25, 42)
	require.NoError(t, err)

	assert.Len(t, append(append([]int{}, train...), test...), len(y))
	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d in both partitions", i)
		seen[i] = true
	}

	count := func(idx []int, class int) int {
		n := 0
		for _, i := range idx {
			if y[i] == class {
				n++
			}
		}
		return n
	}
	for class := range 3 {
		assert.Positive(t, count(train, class), "class %d missing from train", class)
		assert.Positive(t, count(test, class), "class %d missing from test", class)
	}
	assert.Equal(t, 1, count(train, 3))
	assert.Zero(t, count(test, 3))

	train2, test2, err := StratifiedSplit(y, 0.25, 42)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestStratifiedSplitErrors(t *testing.T) {
	t.Parallel()

	_, _, err := StratifiedSplit([]int{0, 1}, 0, 1)
	require.Error(t, err)
	_, _, err = StratifiedSplit([]int{0, 1}, 1, 1)
	require.Error(t, err)
	_, _, err = StratifiedSplit([]int{0, 1, 2}, 0.25, 1)
	require.Error(t, err, "singleton classes leave nothing to test on")
}

func TestKNNPredict(t *testing.T) {
	t.Parallel()

	X := [][]float64{{0, 0}, {0, 1}, {10, 10}, {10, 11}}
	y := []int{0, 0, 1, 1}

	m, err := NewKNN(3).Fit(X, y)
	require.NoError(t, err)

	got, err := m.Predict([][]float64{{1, 0}, {9, 9}, {0, 1}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0}, got)

	got, err = m.Predict(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = m.Predict([][]float64{{1, 2, 3}})
	require.Error(t, err)
}

func TestKNNTieBreaksToSmallestClass(t *testing.T) {
	t.Parallel()

	m, err := NewKNN(2).Fit([][]float64{{2}, {0}}, []int{1, 0})
	require.NoError(t, err)

	got, err := m.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func TestKNNFitErrors(t *testing.T) {
	t.Parallel()

	_, err := KNN{K: 0}.Fit([][]float64{{1}}, []int{0})
	require.Error(t, err)
	_, err = NewKNN(1).Fit(nil, nil)
	require.Error(t, err)
	_, err = NewKNN(1).Fit([][]float64{{1}, {1, 2}}, []int{0, 1})
	require.Error(t, err)
	_, err = NewKNN(1).Fit([][]float64{{1}}, []int{0, 1})
	require.Error(t, err)
	_, err = NewKNN(1).Fit([][]float64{{1}}, []int{-1})
	require.Error(t, err)

	assert.Equal(t, DefaultK, NewKNN(0).K)
}

func TestModelSaveLoadPredictsIdentically(t *testing.T) {
	t.Parallel()

	ds := clusteredDataset(6)
	codec, err := NewCodec(ds.Y)
	require.NoError(t, err)
	y, err := codec.EncodeAll(ds.Y)
	require.NoError(t, err)
	m, err := NewKNN(5).Fit(ds.X, y)
	require.NoError(t, err)

	dir := t.TempDir()
	modelPath, codecPath := filepath.Join(dir, "m.msgpack"), filepath.Join(dir, "c.yaml")
	require.NoError(t, SaveArtifacts(modelPath, codecPath, Artifacts{Model: m, Codec: codec}))

	loaded, err := LoadArtifacts(modelPath, codecPath)
	require.NoError(t, err)

	want, err := PredictLabels(m, codec, ds.X)
	require.NoError(t, err)
	got, err := PredictLabels(loaded.Model, loaded.Codec, ds.X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeModelErrors(t *testing.T) {
	t.Parallel()

	_, err := DecodeModel([]byte("not msgpack"))
	require.Error(t, err)

	_, err = EncodeModel(ModelFunc(func([][]float64) ([]int, error) { return nil, nil }))
	require.Error(t, err)

	_, err = LoadModel(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryModelLoad))
}

func TestTrain(t *testing.T) {
	t.Parallel()

	ds := clusteredDataset(8)
	art, eval, err := Train(ds, NewKNN(5), TrainOptions{TestRatio: 0.25, Seed: 42})
	require.NoError(t, err)
	require.NotNil(t, art.Model)
	assert.Equal(t, 3, art.Codec.Len())

	assert.Equal(t, 18, eval.TrainSize)
	assert.Equal(t, 6, eval.TestSize)
	assert.InDelta(t, 1.0, eval.Accuracy, 1e-12)

	diagonal := 0
	for i := range eval.Confusion {
		diagonal += eval.Confusion[i][i]
	}
	assert.Equal(t, eval.TestSize, diagonal)

	var buf bytes.Buffer
	require.NoError(t, eval.WriteConfusion(&buf))
	assert.Contains(t, buf.String(), "7.5 Hz")
	assert.Contains(t, buf.String(), "12 Hz")

	buf.Reset()
	require.NoError(t, WriteClassTable(&buf, art.Codec))
	assert.Contains(t, buf.String(), "10 Hz")
}

func TestTrainEmptyDataset(t *testing.T) {
	t.Parallel()

	_, _, err := Train(&features.Dataset{}, NewKNN(5), TrainOptions{})
	require.ErrorIs(t, err, features.ErrEmptyDataset)
}

func TestTrainFitFailure(t *testing.T) {
	t.Parallel()

	failing := TrainerFunc(func([][]float64, []int) (Model, error) {
		return nil, errors.NewStd("backend unavailable")
	})
	_, _, err := Train(clusteredDataset(4), failing, TrainOptions{Seed: 1})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryModelTrain))
}

func TestPredictLabels(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec([]float64{6.66, 10})
	require.NoError(t, err)

	canned := ModelFunc(func(X [][]float64) ([]int, error) { return []int{1, 0, 1}, nil })
	labels, err := PredictLabels(canned, codec, make([][]float64, 3))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 6.66, 10}, labels)

	short := ModelFunc(func(X [][]float64) ([]int, error) { return []int{1}, nil })
	_, err = PredictLabels(short, codec, make([][]float64, 3))
	require.Error(t, err)

	outOfRange := ModelFunc(func(X [][]float64) ([]int, error) { return []int{7}, nil })
	_, err = PredictLabels(outOfRange, codec, make([][]float64, 1))
	require.Error(t, err)
}

// clusteredDataset returns perClass well separated rows for each of three
// frequency labels.
func clusteredDataset(perClass int) *features.Dataset {
	centers := map[float64][]float64{
		7.5:  {10, 0, 0, 1},
		10.0: {0, 10, 0, 1},
		12.0: {0, 0, 10, 1},
	}
	ds := &features.Dataset{}
	for _, label := range []float64{7.5, 10.0, 12.0} {
		for i := range perClass {
			jitter := float64(i%3) * 0.1
			c := centers[label]
			ds.X = append(ds.X, []float64{c[0] + jitter, c[1] - jitter, c[2] + jitter, c[3]})
			ds.Y = append(ds.Y, label)
			ds.Records = append(ds.Records, "S01")
			ds.Trials = append(ds.Trials, len(ds.Trials))
		}
	}
	return ds
}
