package analysis

import (
	"context"
	"io"

	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/features"
	"github.com/tphakala/ssvep-go/internal/logger"
	"github.com/tphakala/ssvep-go/internal/trial"
)

// ExportFeatures extracts the feature rows of the recordings at paths and
// writes them to w as CSV. With labeled set the rows carry the label parsed
// from each start marker.
func ExportFeatures(ctx context.Context, settings *conf.Settings, deps *Deps, paths []string, labeled bool, w io.Writer) (*features.Report, error) {
	mode := trial.Inference
	if labeled {
		mode = trial.Training
	}
	builder, err := NewBuilder(settings, mode, deps)
	if err != nil {
		return nil, err
	}

	ds, report, err := builder.Build(ctx, paths)
	if err != nil {
		return report, err
	}

	columns := features.ColumnNames(settings.Features.Channels, settings.Features.TargetFrequencies)
	if err := features.WriteCSV(w, ds, columns); err != nil {
		return report, errors.New(err).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("operation", "write_csv").
			Build()
	}
	GetLogger().Info("exported feature rows", logger.Int("rows", ds.Len()), logger.Int("columns", len(columns)))
	return report, nil
}
