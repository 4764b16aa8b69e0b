package synth

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/recording"
)

// Command creates the synth command, which writes a synthetic SSVEP session
// for trying out the pipeline without an EEG headset.
func Command(settings *conf.Settings) *cobra.Command {
	opts := recording.SynthOptions{
		Channels:     []string{"Fz", "Cz", "O1", "O2"},
		TrialSeconds: 4,
		RestSeconds:  2,
		Amplitude:    5,
		NoiseStdDev:  2,
	}

	cmd := &cobra.Command{
		Use:   "synth [record]",
		Short: "Write a synthetic SSVEP recording",
		Long: `Write a synthetic EDF recording and its annotation file at the given base
path. Each stimulus frequency produces one trial whose occipital response
follows the stimulus.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Name = recording.BaseName(args[0])
			opts.SamplingRate = settings.Features.SamplingRate
			if len(opts.Stimuli) == 0 {
				opts.Stimuli = settings.Features.TargetFrequencies
			}

			rec, markers, err := recording.Synthesize(opts)
			if err != nil {
				return err
			}
			if dir := filepath.Dir(args[0]); dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return err
				}
			}
			if err := recording.Save(args[0], settings.Features.AnnotationExt, rec, markers); err != nil {
				return err
			}
			fmt.Printf("Wrote %s with %d trials (%d samples at %g Hz)\n",
				args[0], len(markers)/2, rec.Len(), rec.SamplingRate())
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&opts.Stimuli, "stimuli", nil, "Stimulus frequency of each trial, defaults to the target frequencies")
	cmd.Flags().StringSliceVar(&opts.Channels, "synth-channels", opts.Channels, "Channel names of the recording")
	cmd.Flags().Float64Var(&opts.TrialSeconds, "trial-seconds", opts.TrialSeconds, "Length of each trial")
	cmd.Flags().Float64Var(&opts.RestSeconds, "rest-seconds", opts.RestSeconds, "Rest between trials")
	cmd.Flags().Float64Var(&opts.Amplitude, "amplitude", opts.Amplitude, "Evoked response amplitude in uV")
	cmd.Flags().Float64Var(&opts.NoiseStdDev, "noise", opts.NoiseStdDev, "Background noise standard deviation in uV")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "Random seed")
	cmd.Flags().StringVar(&opts.UnlabeledText, "marker-text", "", "Start marker text instead of the stimulus frequency")

	return cmd
}
