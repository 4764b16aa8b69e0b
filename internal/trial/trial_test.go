package trial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/recording"
)

var targets = []float64{6.66, 7.5, 8.57, 10.0, 12.0}

func newRecording(t *testing.T, samples int, channels ...string) *recording.Recording {
	t.Helper()
	data := make([][]float64, len(channels))
	for c := range data {
		data[c] = make([]float64, samples)
		for i := range data[c] {
			data[c][i] = float64(c*100000 + i)
		}
	}
	rec, err := recording.New("S01", 128, channels, data)
	require.NoError(t, err)
	return rec
}

func collect(t *testing.T, seq func(func(Trial, error) bool)) ([]Trial, error) {
	t.Helper()
	var trials []Trial
	for tr, err := range seq {
		if err != nil {
			return trials, err
		}
		trials = append(trials, tr)
	}
	return trials, nil
}

func TestSegmentPairsMarkers(t *testing.T) {
	t.Parallel()

	rec := newRecording(t, 512, "Fz", "O1", "O2")
	markers := []recording.Marker{{0, "10.0"}, {256, ""}, {256, "6.66"}, {512, ""}}

	trials, err := collect(t, NewSegmenter(Training, targets).Segment(rec, markers, []string{"O1", "O2"}))
	require.NoError(t, err)
	require.Len(t, trials, 2)

	assert.Equal(t, 0, trials[0].Start)
	assert.Equal(t, 256, trials[0].End)
	assert.InDelta(t, 10.0, trials[0].Label, 0)
	assert.True(t, trials[0].HasLabel)
	assert.InDelta(t, 6.66, trials[1].Label, 0)
	assert.Equal(t, 1, trials[1].Index)

	// channel subset follows the requested order, not storage order
	require.Equal(t, 2, trials[1].NumChannels())
	assert.InDelta(t, 100256, trials[1].Channel(0)[0], 0)
	assert.InDelta(t, 200256, trials[1].Channel(1)[0], 0)
	assert.Len(t, trials[1].Channel(0), 256)
	assert.Equal(t, "S01", trials[0].Record())
}

func TestSegmentTrialCount(t *testing.T) {
	t.Parallel()

	rec := newRecording(t, 2048, "O1")

	testCases := []struct {
		name    string
		mode    Mode
		markers []recording.Marker
		want    int
	}{
		{"empty markers", Training, nil, 0},
		{"odd trailing marker ignored", Inference, []recording.Marker{{0, "a"}, {100, "b"}, {200, "c"}}, 1},
		{"inference ignores labels", Inference, []recording.Marker{{0, "rest"}, {100, ""}, {100, "99 Hz"}, {300, ""}}, 2},
		{"training drops unparsable label", Training, []recording.Marker{{0, "rest"}, {100, ""}, {100, "7.5"}, {300, ""}}, 1},
		{"training drops unknown frequency", Training, []recording.Marker{{0, "15"}, {100, ""}, {100, "stim 12 Hz"}, {300, ""}}, 1},
		{"inverted span skipped", Inference, []recording.Marker{{300, ""}, {100, ""}, {100, ""}, {200, ""}}, 1},
		{"empty span skipped", Inference, []recording.Marker{{100, ""}, {100, ""}}, 0},
		{"span past end skipped", Inference, []recording.Marker{{2000, ""}, {2100, ""}}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			trials, err := collect(t, NewSegmenter(tc.mode, targets).Segment(rec, tc.markers, []string{"O1"}))
			require.NoError(t, err)
			assert.Len(t, trials, tc.want)
			for _, tr := range trials {
				assert.Equal(t, tc.mode == Training, tr.HasLabel)
			}
		})
	}
}

func TestSegmentMissingChannel(t *testing.T) {
	t.Parallel()

	rec := newRecording(t, 512, "O1")
	markers := []recording.Marker{{0, "10.0"}, {256, ""}}

	trials, err := collect(t, NewSegmenter(Training, targets).Segment(rec, markers, []string{"O1", "O2"}))
	require.Error(t, err)
	assert.Empty(t, trials)

	var mce *MissingChannelError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "O2", mce.Channel)
	assert.True(t, errors.IsCategory(err, errors.CategorySegmentation))
}

func TestSegmentStopsWhenConsumerBreaks(t *testing.T) {
	t.Parallel()

	rec := newRecording(t, 1024, "O1")
	markers := []recording.Marker{{0, ""}, {100, ""}, {100, ""}, {200, ""}, {200, ""}, {300, ""}}

	n := 0
	for range NewSegmenter(Inference, nil).Segment(rec, markers, []string{"O1"}) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestParseLabel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		text   string
		want   float64
		wantOK bool
	}{
		{"10.0", 10, true},
		{"stim 6.66Hz", 6.66, true},
		{"7.", 7, true},
		{"12 Hz then 10", 12, true},
		{"rest", 0, false},
		{"", 0, false},
	}
	for _, tc := range testCases {
		got, ok := ParseLabel(tc.text)
		assert.Equal(t, tc.wantOK, ok, tc.text)
		assert.InDelta(t, tc.want, got, 1e-12, tc.text)
	}
}
