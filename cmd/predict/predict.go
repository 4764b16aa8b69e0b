package predict

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/ssvep-go/internal/analysis"
	"github.com/tphakala/ssvep-go/internal/conf"
)

// Command creates the predict command, which classifies one recording and
// sends the majority label to the alert device.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict [record]",
		Short: "Classify a recording and alert the device",
		Long: `Classify every trial of the recording at the given base path (without
extension), reduce the predictions to one label by majority vote and send it
to the alert device over the serial port.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				settings.Input.Path = args[0]
			}
			if settings.Input.Path == "" {
				return cmd.Help()
			}
			deps, closeDeps := analysis.NewDeps(settings)
			defer closeDeps()

			_, err := analysis.PredictAndAlert(cmd.Context(), settings, deps)
			return err
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags configures flags specific to the predict command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVarP(&settings.Device.Port, "port", "p", viper.GetString("device.port"), "Serial port of the alert device")
	cmd.Flags().IntVarP(&settings.Device.BaudRate, "baud", "b", viper.GetInt("device.baudrate"), "Serial baud rate")
	cmd.Flags().DurationVar(&settings.Device.Settle, "settle", viper.GetDuration("device.settle"), "Pause after opening the port")
	cmd.Flags().DurationVar(&settings.Device.ReadyTimeout, "ready-timeout", viper.GetDuration("device.readytimeout"), "Maximum wait for the device readiness line")
	cmd.Flags().DurationVar(&settings.Device.AckTimeout, "ack-timeout", viper.GetDuration("device.acktimeout"), "Maximum wait for each device response line")
}
