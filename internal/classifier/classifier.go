// Package classifier is the train/predict boundary of the pipeline.
//
// The feature pipeline only depends on the Trainer, Model and LabelCodec
// capabilities; any backend satisfying them can be substituted. The package
// ships a standardized k-nearest-neighbour backend.
package classifier

import (
	"github.com/tphakala/ssvep-go/internal/errors"
)

// Trainer fits a model on feature rows X with dense class ids y.
type Trainer interface {
	Fit(X [][]float64, y []int) (Model, error)
}

// Model predicts a class id per feature row.
type Model interface {
	Predict(X [][]float64) ([]int, error)
}

// LabelCodec maps frequency labels to dense class ids 0..K-1 and back.
type LabelCodec interface {
	Encode(label float64) (int, error)
	Decode(id int) (float64, error)
	Len() int
}

// TrainerFunc adapts a function to the Trainer interface.
type TrainerFunc func(X [][]float64, y []int) (Model, error)

// Fit calls f(X, y).
func (f TrainerFunc) Fit(X [][]float64, y []int) (Model, error) { return f(X, y) }

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(X [][]float64) ([]int, error)

// Predict calls f(X).
func (f ModelFunc) Predict(X [][]float64) ([]int, error) { return f(X) }

// PredictLabels runs m on X and decodes every id with codec.
func PredictLabels(m Model, codec LabelCodec, X [][]float64) ([]float64, error) {
	ids, err := m.Predict(X)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryPrediction).
			Context("rows", len(X)).
			Build()
	}
	if len(ids) != len(X) {
		return nil, errors.Newf("model returned %d predictions for %d rows", len(ids), len(X)).
			Component("classifier").
			Category(errors.CategoryPrediction).
			Build()
	}

	labels := make([]float64, len(ids))
	for i, id := range ids {
		label, err := codec.Decode(id)
		if err != nil {
			return nil, err
		}
		labels[i] = label
	}
	return labels, nil
}

func checkMatrix(X [][]float64) (int, error) {
	if len(X) == 0 {
		return 0, errors.Newf("no feature rows").
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) == 0 || len(row) != width {
			return 0, errors.Newf("feature row %d has %d values, want %d", i, len(row), width).
				Component("classifier").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return width, nil
}
