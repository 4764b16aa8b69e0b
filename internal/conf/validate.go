// conf/validate.go

package conf

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateFeatureSettings(&settings.Features); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateModelSettings(&settings.Model); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateDeviceSettings(&settings.Device); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateMQTTSettings(&settings.MQTT); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry dsn is required when sentry is enabled")
	}

	if settings.Metrics.Enabled && settings.Metrics.TextFile == "" {
		ve.Errors = append(ve.Errors, "metrics textfile is required when metrics are enabled")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateFeatureSettings validates the segmentation and spectral parameters
func validateFeatureSettings(settings *FeatureSettings) error {
	var errs []string

	if settings.SamplingRate <= 0 {
		errs = append(errs, "sampling rate must be positive")
	}

	if len(settings.TargetFrequencies) == 0 {
		errs = append(errs, "at least one target frequency is required")
	}
	for _, f := range settings.TargetFrequencies {
		if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			errs = append(errs, fmt.Sprintf("target frequency %g must be a positive finite number", f))
			continue
		}
		if settings.SamplingRate > 0 && f > settings.SamplingRate/2 {
			errs = append(errs, fmt.Sprintf("target frequency %g Hz is above the Nyquist frequency", f))
		}
	}
	sorted := slices.Clone(settings.TargetFrequencies)
	slices.Sort(sorted)
	if len(slices.Compact(sorted)) != len(settings.TargetFrequencies) {
		errs = append(errs, "target frequencies must be unique")
	}

	if len(settings.Channels) == 0 {
		errs = append(errs, "at least one channel is required")
	}
	for _, ch := range settings.Channels {
		if strings.TrimSpace(ch) == "" {
			errs = append(errs, "channel names must not be empty")
			break
		}
	}

	if settings.WindowSeconds <= 0 {
		errs = append(errs, "window length must be positive")
	} else if settings.SamplingRate > 0 && int(settings.WindowSeconds*settings.SamplingRate) < 2 {
		errs = append(errs, "window must span at least two samples")
	}

	if settings.Overlap < 0 || settings.Overlap >= 1 {
		errs = append(errs, "overlap must be in [0, 1)")
	}

	if settings.Workers < 0 {
		errs = append(errs, "workers must be at least 0")
	}

	if settings.AnnotationExt == "" {
		errs = append(errs, "annotation extension must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("feature settings errors: %v", errs)
	}
	return nil
}

// validateModelSettings validates classifier parameters
func validateModelSettings(settings *ModelSettings) error {
	var errs []string

	if settings.ModelPath == "" || settings.CodecPath == "" {
		errs = append(errs, "model and codec paths are required")
	}
	if settings.K < 1 {
		errs = append(errs, "k must be at least 1")
	}
	if settings.TestRatio <= 0 || settings.TestRatio >= 1 {
		errs = append(errs, "test ratio must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("model settings errors: %v", errs)
	}
	return nil
}

// validateDeviceSettings validates serial link settings. The port is checked
// by the predict command because training does not need it.
func validateDeviceSettings(settings *DeviceSettings) error {
	var errs []string

	if settings.BaudRate <= 0 {
		errs = append(errs, "baud rate must be positive")
	}
	if settings.Settle < 0 {
		errs = append(errs, "settle period must not be negative")
	}
	if settings.ReadyTimeout <= 0 {
		errs = append(errs, "ready timeout must be positive")
	}
	if settings.AckTimeout <= 0 {
		errs = append(errs, "ack timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("device settings errors: %v", errs)
	}
	return nil
}

// validateOutputSettings validates run history settings
func validateOutputSettings(settings *OutputSettings) error {
	if settings.SQLite.Enabled && settings.MySQL.Enabled {
		return fmt.Errorf("only one of sqlite and mysql output can be enabled")
	}
	if settings.SQLite.Enabled && settings.SQLite.Path == "" {
		return fmt.Errorf("sqlite path is required when sqlite output is enabled")
	}
	if settings.MySQL.Enabled && (settings.MySQL.Host == "" || settings.MySQL.Database == "") {
		return fmt.Errorf("mysql host and database are required when mysql output is enabled")
	}
	return nil
}

// validateMQTTSettings validates the MQTT-specific settings
func validateMQTTSettings(settings *MQTTSettings) error {
	if !settings.Enabled {
		return nil
	}

	if settings.Broker == "" {
		return fmt.Errorf("MQTT broker URL is required when MQTT is enabled")
	}
	u, err := url.Parse(settings.Broker)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("MQTT broker %q must be a URL such as tcp://host:1883", settings.Broker)
	}
	if settings.Topic == "" {
		return fmt.Errorf("MQTT topic is required when MQTT is enabled")
	}
	return nil
}
