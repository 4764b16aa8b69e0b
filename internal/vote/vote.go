// Package vote aggregates per-trial predictions into a single result.
package vote

import (
	"cmp"
	"slices"

	"github.com/tphakala/ssvep-go/internal/errors"
)

// ErrEmptyPrediction is returned when there is nothing to vote on.
var ErrEmptyPrediction = errors.NewStd("no predictions to aggregate")

// Count is the number of votes one label received.
type Count struct {
	Label float64
	Votes int
}

// Result is the outcome of a majority vote.
type Result struct {
	Label  float64
	Votes  int
	Total  int
	Counts []Count // ordered by descending votes, then ascending label
}

// Tied reports whether another label received as many votes as the winner.
func (r Result) Tied() bool {
	return len(r.Counts) > 1 && r.Counts[1].Votes == r.Votes
}

// Majority returns the most frequent label. When several labels share the
// highest count the smallest label wins, so the result only depends on the
// multiset of labels and not on their order.
func Majority(labels []float64) (Result, error) {
	if len(labels) == 0 {
		return Result{}, errors.New(ErrEmptyPrediction).
			Component("vote").
			Category(errors.CategoryPrediction).
			Build()
	}

	tally := make(map[float64]int, len(labels))
	for _, l := range labels {
		tally[l]++
	}

	counts := make([]Count, 0, len(tally))
	for l, n := range tally {
		counts = append(counts, Count{Label: l, Votes: n})
	}
	slices.SortFunc(counts, func(a, b Count) int {
		return cmp.Or(cmp.Compare(b.Votes, a.Votes), cmp.Compare(a.Label, b.Label))
	})

	return Result{
		Label:  counts[0].Label,
		Votes:  counts[0].Votes,
		Total:  len(labels),
		Counts: counts,
	}, nil
}
