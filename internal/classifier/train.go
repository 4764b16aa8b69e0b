package classifier

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/features"
	"github.com/tphakala/ssvep-go/internal/logger"
)

// Default split parameters.
const (
	DefaultTestRatio = 0.25
	DefaultSeed      = 42
)

// TrainOptions controls the held-out split.
type TrainOptions struct {
	TestRatio float64
	Seed      int64
}

// Evaluation is the held-out diagnostic of a training run.
type Evaluation struct {
	Accuracy  float64
	Labels    []float64 // row/column order of Confusion
	Confusion [][]int   // Confusion[true][predicted]
	TrainSize int
	TestSize  int
}

// Train encodes the dataset labels, splits the rows into train and test
// partitions, fits trainer on the train partition and evaluates the result on
// the held-out rows.
func Train(ds *features.Dataset, trainer Trainer, opts TrainOptions) (Artifacts, *Evaluation, error) {
	log := GetLogger()

	if ds == nil || ds.Len() == 0 {
		return Artifacts{}, nil, errors.New(features.ErrEmptyDataset).
			Component("classifier").
			Category(errors.CategoryDataset).
			Build()
	}
	if len(ds.Y) != ds.Len() {
		return Artifacts{}, nil, errors.Newf("%d labels for %d feature rows", len(ds.Y), ds.Len()).
			Component("classifier").
			Category(errors.CategoryDataset).
			Build()
	}
	if opts.TestRatio == 0 {
		opts.TestRatio = DefaultTestRatio
	}

	codec, err := NewCodec(ds.Y)
	if err != nil {
		return Artifacts{}, nil, err
	}
	y, err := codec.EncodeAll(ds.Y)
	if err != nil {
		return Artifacts{}, nil, err
	}
	for id, label := range codec.Classes() {
		log.Info("label mapping", logger.Float64("label", label), logger.Int("class", id))
	}

	trainIdx, testIdx, err := StratifiedSplit(y, opts.TestRatio, opts.Seed)
	if err != nil {
		return Artifacts{}, nil, err
	}
	log.Info("dataset split",
		logger.Int("train", len(trainIdx)),
		logger.Int("test", len(testIdx)),
		logger.Int("features", len(ds.X[0])),
		logger.Int("classes", codec.Len()))

	model, err := trainer.Fit(selectRows(ds.X, trainIdx), selectRows(y, trainIdx))
	if err != nil {
		return Artifacts{}, nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryModelTrain).
			Context("train_rows", len(trainIdx)).
			Build()
	}

	predicted, err := model.Predict(selectRows(ds.X, testIdx))
	if err != nil {
		return Artifacts{}, nil, err
	}
	eval := evaluate(codec, selectRows(y, testIdx), predicted)
	eval.TrainSize = len(trainIdx)

	log.Info("held-out evaluation", logger.Float64("accuracy", eval.Accuracy), logger.Int("test", eval.TestSize))
	return Artifacts{Model: model, Codec: codec}, eval, nil
}

func evaluate(codec *Codec, truth, predicted []int) *Evaluation {
	n := codec.Len()
	eval := &Evaluation{
		Labels:    codec.Classes(),
		Confusion: make([][]int, n),
		TestSize:  len(truth),
	}
	for i := range eval.Confusion {
		eval.Confusion[i] = make([]int, n)
	}

	correct := 0
	for i, t := range truth {
		p := predicted[i]
		if p >= 0 && p < n {
			eval.Confusion[t][p]++
		}
		if p == t {
			correct++
		}
	}
	if len(truth) > 0 {
		eval.Accuracy = float64(correct) / float64(len(truth))
	}
	return eval
}

// WriteConfusion renders the confusion matrix as an aligned text table with
// true labels as rows and predicted labels as columns.
func (e *Evaluation) WriteConfusion(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := []string{"true\\pred"}
	for _, l := range e.Labels {
		header = append(header, formatHz(l))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for i, row := range e.Confusion {
		cells := []string{formatHz(e.Labels[i])}
		for _, v := range row {
			cells = append(cells, strconv.Itoa(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

// WriteClassTable prints the label to class id mapping.
func WriteClassTable(w io.Writer, c *Codec) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "label\tclass")
	for id, l := range c.Classes() {
		fmt.Fprintf(tw, "%s\t%d\n", formatHz(l), id)
	}
	return tw.Flush()
}

func formatHz(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64) + " Hz"
}
