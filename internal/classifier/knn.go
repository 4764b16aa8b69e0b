package classifier

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/ssvep-go/internal/errors"
)

// DefaultK is the neighbour count used when none is configured.
const DefaultK = 5

// distanceEpsilon keeps inverse-distance weights finite for exact matches.
const distanceEpsilon = 1e-9

// KNN trains distance-weighted k-nearest-neighbour models on standardized
// features.
type KNN struct {
	K int
}

// NewKNN returns a kNN trainer; k <= 0 selects DefaultK.
func NewKNN(k int) KNN {
	if k <= 0 {
		k = DefaultK
	}
	return KNN{K: k}
}

// Fit implements Trainer.
func (t KNN) Fit(X [][]float64, y []int) (Model, error) {
	return t.fit(X, y)
}

func (t KNN) fit(X [][]float64, y []int) (*KNNModel, error) {
	if t.K <= 0 {
		return nil, errors.Newf("invalid neighbour count %d", t.K).
			Component("classifier").
			Category(errors.CategoryModelTrain).
			Build()
	}
	width, err := checkMatrix(X)
	if err != nil {
		return nil, err
	}
	if len(y) != len(X) {
		return nil, errors.Newf("%d labels for %d feature rows", len(y), len(X)).
			Component("classifier").
			Category(errors.CategoryModelTrain).
			Build()
	}

	m := &KNNModel{
		K:     t.K,
		Mean:  make([]float64, width),
		Scale: make([]float64, width),
		Y:     slices.Clone(y),
	}

	column := make([]float64, len(X))
	for j := range width {
		for i, row := range X {
			column[i] = row[j]
		}
		mean, variance := stat.PopMeanVariance(column, nil)
		m.Mean[j] = mean
		m.Scale[j] = math.Sqrt(variance)
		if m.Scale[j] == 0 || math.IsNaN(m.Scale[j]) {
			m.Scale[j] = 1
		}
	}

	m.X = make([][]float64, len(X))
	for i, row := range X {
		m.X[i] = m.standardize(row)
	}
	for _, c := range y {
		if c < 0 {
			return nil, errors.Newf("negative class id %d", c).
				Component("classifier").
				Category(errors.CategoryModelTrain).
				Build()
		}
		m.NumClasses = max(m.NumClasses, c+1)
	}
	return m, nil
}

// KNNModel is a fitted kNN model. Fields are exported for persistence.
type KNNModel struct {
	K          int         `msgpack:"k"`
	Mean       []float64   `msgpack:"mean"`
	Scale      []float64   `msgpack:"scale"`
	X          [][]float64 `msgpack:"x"` // standardized training rows
	Y          []int       `msgpack:"y"`
	NumClasses int         `msgpack:"num_classes"`
}

type neighbour struct {
	index    int
	distance float64
}

// Predict implements Model. Each row votes among its K nearest training rows
// with weight 1/(distance+1e-9); equal scores resolve to the smallest class id.
func (m *KNNModel) Predict(X [][]float64) ([]int, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return []int{}, nil
	}
	width, err := checkMatrix(X)
	if err != nil {
		return nil, err
	}
	if width != len(m.Mean) {
		return nil, errors.Newf("feature rows have %d values, model expects %d", width, len(m.Mean)).
			Component("classifier").
			Category(errors.CategoryPrediction).
			Build()
	}

	k := min(m.K, len(m.X))
	neighbours := make([]neighbour, len(m.X))
	scores := make([]float64, m.NumClasses)
	out := make([]int, len(X))

	for r, row := range X {
		q := m.standardize(row)
		for i, ref := range m.X {
			neighbours[i] = neighbour{index: i, distance: floats.Distance(q, ref, 2)}
		}
		slices.SortFunc(neighbours, func(a, b neighbour) int {
			return cmp.Or(cmp.Compare(a.distance, b.distance), cmp.Compare(a.index, b.index))
		})

		clear(scores)
		for _, n := range neighbours[:k] {
			scores[m.Y[n.index]] += 1.0 / (n.distance + distanceEpsilon)
		}

		best := 0
		for c := 1; c < len(scores); c++ {
			if scores[c] > scores[best] {
				best = c
			}
		}
		out[r] = best
	}
	return out, nil
}

func (m *KNNModel) standardize(row []float64) []float64 {
	z := make([]float64, len(row))
	for j, v := range row {
		z[j] = (v - m.Mean[j]) / m.Scale[j]
	}
	return z
}

func (m *KNNModel) validate() error {
	bad := func(msg string) error {
		return errors.Newf("invalid knn model: %s", msg).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			Build()
	}
	switch {
	case m.K <= 0:
		return bad("neighbour count must be positive")
	case len(m.X) == 0 || len(m.X) != len(m.Y):
		return bad("training rows and labels disagree")
	case len(m.Mean) == 0 || len(m.Mean) != len(m.Scale):
		return bad("scaler shape mismatch")
	}
	for i, row := range m.X {
		if len(row) != len(m.Mean) {
			return bad("training row width mismatch")
		}
		if m.Y[i] < 0 || m.Y[i] >= m.NumClasses {
			return bad("class id out of range")
		}
	}
	return nil
}
