package features

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/ssvep-go/internal/analysis"
	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/errors"
)

// Command creates the features command, which dumps extracted feature rows
// as CSV for inspection.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		labeled bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "features [record...]",
		Short: "Export the feature vectors of recordings as CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := os.Stdout
			if output != "" {
				f, err := os.Create(output) //nolint:gosec // G304: user supplied output path
				if err != nil {
					return errors.FileError(err, output, 0)
				}
				defer f.Close()
				w = f
			}

			_, err := analysis.ExportFeatures(cmd.Context(), settings, nil, args, labeled, w)
			return err
		},
	}

	cmd.Flags().BoolVarP(&labeled, "labeled", "l", false, "Parse trial labels from the start markers")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write CSV to this file instead of stdout")

	return cmd
}
