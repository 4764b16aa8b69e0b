// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment override, e.g. SSVEP_DEVICE_PORT
const envPrefix = "SSVEP"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns the environment variable bindings that carry validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "SSVEP_DEBUG", validateEnvBool},

		{"input.path", "SSVEP_INPUT_PATH", nil},
		{"input.datadir", "SSVEP_INPUT_DATADIR", nil},

		{"features.samplingrate", "SSVEP_FEATURES_SAMPLINGRATE", validateEnvPositiveFloat},
		{"features.windowseconds", "SSVEP_FEATURES_WINDOWSECONDS", validateEnvPositiveFloat},
		{"features.workers", "SSVEP_FEATURES_WORKERS", validateEnvNonNegativeInt},

		{"model.modelpath", "SSVEP_MODEL_MODELPATH", nil},
		{"model.codecpath", "SSVEP_MODEL_CODECPATH", nil},

		{"device.port", "SSVEP_DEVICE_PORT", nil},
		{"device.baudrate", "SSVEP_DEVICE_BAUDRATE", validateEnvNonNegativeInt},
		{"device.readytimeout", "SSVEP_DEVICE_READYTIMEOUT", validateEnvDuration},
		{"device.acktimeout", "SSVEP_DEVICE_ACKTIMEOUT", validateEnvDuration},

		{"mqtt.password", "SSVEP_MQTT_PASSWORD", nil},
		{"output.mysql.password", "SSVEP_OUTPUT_MYSQL_PASSWORD", nil},
		{"sentry.dsn", "SSVEP_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal).
// Any other key can still be overridden through SSVEP_<SECTION>_<KEY>.
func bindEnvVars() error {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var warnings []string
	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvPositiveFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number: %w", err)
	}
	if f <= 0 {
		return fmt.Errorf("must be positive, got %g", f)
	}
	return nil
}

func validateEnvNonNegativeInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("must not be negative, got %d", n)
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", d)
	}
	return nil
}
