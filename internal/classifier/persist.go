package classifier

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tphakala/ssvep-go/internal/errors"
)

const (
	modelVersion = 1
	kindKNN      = "knn"
)

// modelEnvelope is the on-disk model blob.
type modelEnvelope struct {
	Version int                `msgpack:"version"`
	Kind    string             `msgpack:"kind"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// EncodeModel serializes a model into an opaque blob.
func EncodeModel(m Model) ([]byte, error) {
	var (
		kind string
		body any
	)
	switch v := m.(type) {
	case *KNNModel:
		kind, body = kindKNN, v
	default:
		return nil, errors.Newf("cannot persist model of type %T", m).
			Component("classifier").
			Category(errors.CategoryModelSave).
			Build()
	}

	payload, err := msgpack.Marshal(body)
	if err != nil {
		return nil, errors.New(err).Component("classifier").Category(errors.CategoryModelSave).Build()
	}
	blob, err := msgpack.Marshal(modelEnvelope{Version: modelVersion, Kind: kind, Payload: payload})
	if err != nil {
		return nil, errors.New(err).Component("classifier").Category(errors.CategoryModelSave).Build()
	}
	return blob, nil
}

// DecodeModel restores a model written by EncodeModel.
func DecodeModel(blob []byte) (Model, error) {
	var env modelEnvelope
	dec := msgpack.NewDecoder(bytes.NewReader(blob))
	if err := dec.Decode(&env); err != nil {
		return nil, errors.New(fmt.Errorf("decoding model envelope: %w", err)).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			Build()
	}
	if env.Version != modelVersion {
		return nil, errors.Newf("unsupported model version %d", env.Version).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			Build()
	}

	switch env.Kind {
	case kindKNN:
		var m KNNModel
		if err := msgpack.Unmarshal(env.Payload, &m); err != nil {
			return nil, errors.New(fmt.Errorf("decoding knn model: %w", err)).
				Component("classifier").
				Category(errors.CategoryModelLoad).
				Build()
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &m, nil
	default:
		return nil, errors.Newf("unknown model kind %q", env.Kind).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			Build()
	}
}

// SaveModel writes the model blob to path.
func SaveModel(path string, m Model) error {
	blob, err := EncodeModel(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return errors.New(err).
			Component("classifier").
			Category(errors.CategoryModelSave).
			FileContext(path, int64(len(blob))).
			Build()
	}
	return nil
}

// LoadModel reads a model blob from path.
func LoadModel(path string) (Model, error) {
	blob, err := os.ReadFile(path) //nolint:gosec // G304: configured artifact path
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			Context("artifact", "model").
			Build()
	}
	return DecodeModel(blob)
}

// Artifacts bundles a trained model with its label codec.
type Artifacts struct {
	Model Model
	Codec *Codec
}

// SaveArtifacts persists both training artifacts.
func SaveArtifacts(modelPath, codecPath string, a Artifacts) error {
	for _, p := range []string{modelPath, codecPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return errors.New(err).
				Component("classifier").
				Category(errors.CategoryModelSave).
				Context("path", p).
				Build()
		}
	}
	if err := SaveModel(modelPath, a.Model); err != nil {
		return err
	}
	return SaveCodec(codecPath, a.Codec)
}

// LoadArtifacts loads both training artifacts and checks that they agree.
func LoadArtifacts(modelPath, codecPath string) (Artifacts, error) {
	m, err := LoadModel(modelPath)
	if err != nil {
		return Artifacts{}, err
	}
	c, err := LoadCodec(codecPath)
	if err != nil {
		return Artifacts{}, err
	}
	if knn, ok := m.(*KNNModel); ok && knn.NumClasses > c.Len() {
		return Artifacts{}, errors.Newf("model has %d classes but codec only %d", knn.NumClasses, c.Len()).
			Component("classifier").
			Category(errors.CategoryModelLoad).
			Build()
	}
	return Artifacts{Model: m, Codec: c}, nil
}
