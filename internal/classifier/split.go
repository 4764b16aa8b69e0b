package classifier

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/tphakala/ssvep-go/internal/errors"
)

// StratifiedSplit partitions sample indices into train and test sets so that
// every class keeps roughly the same share in both. A class with at least two
// samples contributes at least one sample to each side; a singleton class goes
// to training. The split is deterministic for a given seed.
func StratifiedSplit(y []int, testRatio float64, seed int64) (train, test []int, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, errors.Newf("test ratio %g must be in (0, 1)", testRatio).
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}

	byClass := make(map[int][]int)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	slices.Sort(classes)

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x5851f42d4c957f2d)) //nolint:gosec // reproducible split
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := 0
		if len(idx) >= 2 {
			nTest = int(math.Round(testRatio * float64(len(idx))))
			nTest = max(1, min(nTest, len(idx)-1))
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}

	if len(test) == 0 {
		return nil, nil, errors.Newf("dataset of %d trials leaves no test samples", len(y)).
			Component("classifier").
			Category(errors.CategoryDataset).
			Context("classes", len(classes)).
			Build()
	}

	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}

func selectRows[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}
