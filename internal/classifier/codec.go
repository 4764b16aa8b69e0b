package classifier

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/ssvep-go/internal/errors"
)

// Codec is a LabelCodec whose ids follow ascending label order.
type Codec struct {
	labels []float64
}

// codecFile is the persisted form of a Codec.
type codecFile struct {
	Version int       `yaml:"version"`
	Classes []float64 `yaml:"classes"` // class id i decodes to Classes[i]
}

const codecVersion = 1

// NewCodec builds a codec from every label seen in training.
func NewCodec(labels []float64) (*Codec, error) {
	if len(labels) == 0 {
		return nil, errors.Newf("cannot build a label codec from no labels").
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
	classes := slices.Clone(labels)
	slices.Sort(classes)
	return &Codec{labels: slices.Compact(classes)}, nil
}

// Encode returns the class id of label.
func (c *Codec) Encode(label float64) (int, error) {
	id, found := slices.BinarySearch(c.labels, label)
	if !found {
		return 0, errors.Newf("label %g not in codec classes %v", label, c.labels).
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
	return id, nil
}

// Decode returns the label of class id.
func (c *Codec) Decode(id int) (float64, error) {
	if id < 0 || id >= len(c.labels) {
		return 0, errors.Newf("class id %d out of range [0, %d)", id, len(c.labels)).
			Component("classifier").
			Category(errors.CategoryPrediction).
			Build()
	}
	return c.labels[id], nil
}

// Len returns the number of classes.
func (c *Codec) Len() int { return len(c.labels) }

// Classes returns the labels in id order.
func (c *Codec) Classes() []float64 { return slices.Clone(c.labels) }

// EncodeAll encodes every label.
func (c *Codec) EncodeAll(labels []float64) ([]int, error) {
	ids := make([]int, len(labels))
	for i, l := range labels {
		id, err := c.Encode(l)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// SaveCodec writes the codec as YAML to path.
func SaveCodec(path string, c *Codec) error {
	data, err := yaml.Marshal(codecFile{Version: codecVersion, Classes: c.labels})
	if err != nil {
		return errors.New(err).
			Component("classifier").
			Category(errors.CategoryModelSave).
			Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.New(err).
			Component("classifier").
			Category(errors.CategoryModelSave).
			FileContext(path, int64(len(data))).
			Build()
	}
	return nil
}

// LoadCodec reads a codec written by SaveCodec.
func LoadCodec(path string) (*Codec, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: configured artifact path
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			Context("artifact", "codec").
			Build()
	}

	var f codecFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.New(fmt.Errorf("decoding label codec: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			Build()
	}
	if f.Version != codecVersion {
		return nil, errors.Newf("unsupported label codec version %d", f.Version).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			Build()
	}
	if len(f.Classes) == 0 || !slices.IsSorted(f.Classes) || len(slices.Compact(slices.Clone(f.Classes))) != len(f.Classes) {
		return nil, errors.Newf("label codec classes must be non-empty, sorted and unique").
			Component("classifier").
			Category(errors.CategoryModelLoad).
			Build()
	}

	return &Codec{labels: f.Classes}, nil
}
