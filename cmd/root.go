package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/ssvep-go/cmd/configure"
	"github.com/tphakala/ssvep-go/cmd/features"
	"github.com/tphakala/ssvep-go/cmd/history"
	"github.com/tphakala/ssvep-go/cmd/ports"
	"github.com/tphakala/ssvep-go/cmd/predict"
	"github.com/tphakala/ssvep-go/cmd/synth"
	"github.com/tphakala/ssvep-go/cmd/train"
	"github.com/tphakala/ssvep-go/internal/buildinfo"
	"github.com/tphakala/ssvep-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ssvep",
		Short:         "SSVEP EEG classification and device alerting",
		Version:       info.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		conf.GetLogger().Warn(err.Error())
	}

	trainCmd := train.Command(settings)
	predictCmd := predict.Command(settings)
	featuresCmd := features.Command(settings)
	portsCmd := ports.Command()
	synthCmd := synth.Command(settings)
	historyCmd := history.Command(settings)
	configCmd := configure.Command(settings)

	subcommands := []*cobra.Command{
		trainCmd,
		predictCmd,
		featuresCmd,
		portsCmd,
		synthCmd,
		historyCmd,
		configCmd,
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Commands that do not touch the pipeline run with any settings
		if cmd == portsCmd || cmd.Parent() == configCmd {
			return nil
		}
		return initialize(settings)
	}

	return rootCmd
}

// initialize re-validates the settings after command line flags were applied
func initialize(settings *conf.Settings) error {
	if err := conf.ValidateSettings(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().Float64Var(&settings.Features.SamplingRate, "sampling-rate", viper.GetFloat64("features.samplingrate"), "Expected sampling rate of the recordings in Hz")
	rootCmd.PersistentFlags().Float64SliceVar(&settings.Features.TargetFrequencies, "targets", settings.Features.TargetFrequencies, "Stimulus frequencies in Hz")
	rootCmd.PersistentFlags().StringSliceVar(&settings.Features.Channels, "channels", viper.GetStringSlice("features.channels"), "EEG channels used for features, in order")
	rootCmd.PersistentFlags().Float64Var(&settings.Features.WindowSeconds, "window", viper.GetFloat64("features.windowseconds"), "Welch segment length in seconds")
	rootCmd.PersistentFlags().Float64Var(&settings.Features.Overlap, "overlap", viper.GetFloat64("features.overlap"), "Welch segment overlap, 0 to below 1")
	rootCmd.PersistentFlags().StringVar(&settings.Model.ModelPath, "model", viper.GetString("model.modelpath"), "Path to the model artifact")
	rootCmd.PersistentFlags().StringVar(&settings.Model.CodecPath, "codec", viper.GetString("model.codecpath"), "Path to the label codec artifact")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
