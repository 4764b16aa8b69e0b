package train

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/ssvep-go/internal/analysis"
	"github.com/tphakala/ssvep-go/internal/conf"
)

// Command creates the train command, which fits the classifier on every
// recording of a data directory.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train [datadir]",
		Short: "Train the classifier from a directory of labeled recordings",
		Long: `Extract spectral features from every recording in the data directory,
train the classifier, print the held-out confusion matrix and save the model
and label codec artifacts. Adaptation recordings are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				settings.Input.DataDir = args[0]
			}
			deps, closeDeps := analysis.NewDeps(settings)
			defer closeDeps()

			_, err := analysis.Train(cmd.Context(), settings, deps)
			return err
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags configures flags specific to the train command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().IntVarP(&settings.Model.K, "k", "k", viper.GetInt("model.k"), "Neighbours considered by the kNN classifier")
	cmd.Flags().Float64Var(&settings.Model.TestRatio, "test-ratio", viper.GetFloat64("model.testratio"), "Share of trials held out for evaluation")
	cmd.Flags().Int64Var(&settings.Model.Seed, "seed", viper.GetInt64("model.seed"), "Seed of the train/test split")
	cmd.Flags().IntVar(&settings.Features.Workers, "workers", viper.GetInt("features.workers"), "Recordings processed concurrently, 0 for all CPUs")
	cmd.Flags().StringVar(&settings.Features.AdaptationSuffix, "adaptation-suffix", viper.GetString("features.adaptationsuffix"), "Base name suffix of adaptation recordings")
}
