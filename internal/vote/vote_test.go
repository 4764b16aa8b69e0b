package vote

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ssvep-go/internal/errors"
)

func TestMajority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		labels []float64
		want   float64
		votes  int
		tied   bool
	}{
		{"single", []float64{10.0}, 10.0, 1, false},
		{"clear winner", []float64{7.5, 10.0, 7.5, 12.0, 7.5}, 7.5, 3, false},
		{"two way tie", []float64{12.0, 6.66, 12.0, 6.66}, 6.66, 2, true},
		{"three way tie", []float64{10.0, 8.57, 7.5}, 7.5, 1, true},
		{"tie below winner ignored", []float64{8.57, 8.57, 8.57, 6.66, 12.0}, 8.57, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Majority(tt.labels)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Label, 0)
			assert.Equal(t, tt.votes, res.Votes)
			assert.Equal(t, len(tt.labels), res.Total)
			assert.Equal(t, tt.tied, res.Tied())
		})
	}
}

func TestMajorityOrderInsensitive(t *testing.T) {
	t.Parallel()

	labels := []float64{6.66, 7.5, 7.5, 10.0, 10.0, 12.0, 8.57, 6.66}
	want, err := Majority(labels)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		shuffled := slices.Clone(labels)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got, err := Majority(shuffled)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.InDelta(t, 6.66, want.Label, 0)
}

func TestMajorityCounts(t *testing.T) {
	t.Parallel()

	res, err := Majority([]float64{12, 10, 12, 7.5, 10, 12})
	require.NoError(t, err)
	assert.Equal(t, []Count{{12, 3}, {10, 2}, {7.5, 1}}, res.Counts)
}

func TestMajorityEmpty(t *testing.T) {
	t.Parallel()

	_, err := Majority(nil)
	require.ErrorIs(t, err, ErrEmptyPrediction)
	assert.True(t, errors.IsCategory(err, errors.CategoryPrediction))
}
