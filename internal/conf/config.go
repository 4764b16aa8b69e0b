// config.go: Settings for the SSVEP classifier and device bridge, plus loading and saving.
package conf

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// InputSettings locate the recordings to process
type InputSettings struct {
	Path    string `yaml:"path"`    // record base path (without extension) used by predict
	DataDir string `yaml:"datadir"` // directory scanned for training records
}

// FeatureSettings contains the trial segmentation and spectral feature parameters
type FeatureSettings struct {
	SamplingRate      float64   `yaml:"samplingrate"`      // Hz, must match the recordings
	TargetFrequencies []float64 `yaml:"targetfrequencies"` // stimulus frequencies in Hz, also the label set
	Channels          []string  `yaml:"channels"`          // channel names used for features, in order
	WindowSeconds     float64   `yaml:"windowseconds"`     // Welch segment length in seconds
	Overlap           float64   `yaml:"overlap"`           // Welch segment overlap as a fraction of the segment
	AdaptationSuffix  string    `yaml:"adaptationsuffix"`  // records whose base name ends with this are skipped
	AnnotationExt     string    `yaml:"annotationext"`     // annotation file extension
	Workers           int       `yaml:"workers"`           // concurrent recordings, 0 means GOMAXPROCS
}

// ModelSettings contains classifier artifacts and training parameters
type ModelSettings struct {
	ModelPath string  `yaml:"modelpath"`
	CodecPath string  `yaml:"codecpath"`
	K         int     `yaml:"k"`         // neighbours considered by the kNN backend
	TestRatio float64 `yaml:"testratio"` // held-out share for evaluation
	Seed      int64   `yaml:"seed"`      // split shuffle seed
}

// DeviceSettings contains the serial link to the alert device
type DeviceSettings struct {
	Port         string        `yaml:"port"`
	BaudRate     int           `yaml:"baudrate"`
	Settle       time.Duration `yaml:"settle"`       // wait after opening the port before reading
	ReadyTimeout time.Duration `yaml:"readytimeout"` // bound on the readiness handshake
	AckTimeout   time.Duration `yaml:"acktimeout"`   // bound on each read while awaiting completion
}

// SQLiteSettings contains settings for the SQLite run history
type SQLiteSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MySQLSettings contains settings for the MySQL run history
type MySQLSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
}

// OutputSettings contains the run history stores
type OutputSettings struct {
	SQLite SQLiteSettings `yaml:"sqlite"`
	MySQL  MySQLSettings  `yaml:"mysql"`
}

// MQTTSettings contains settings for publishing run outcomes
type MQTTSettings struct {
	Enabled  bool          `yaml:"enabled"`
	Broker   string        `yaml:"broker"`
	Topic    string        `yaml:"topic"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	ClientID string        `yaml:"clientid"`
	Retain   bool          `yaml:"retain"`
	Timeout  time.Duration `yaml:"timeout"`
}

// NotificationSettings contains shoutrrr service URLs notified after an alert run
type NotificationSettings struct {
	Enabled bool     `yaml:"enabled"`
	URLs    []string `yaml:"urls"`
}

// SentrySettings contains error telemetry settings
type SentrySettings struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// MetricsSettings contains the Prometheus text file export
type MetricsSettings struct {
	Enabled  bool   `yaml:"enabled"`
	TextFile string `yaml:"textfile"` // written after each run for node_exporter's textfile collector
}

// Settings contains all configuration options
type Settings struct {
	Debug bool `yaml:"debug"`

	Logging      logger.LoggingConfig `yaml:"logging"`
	Input        InputSettings        `yaml:"input"`
	Features     FeatureSettings      `yaml:"features"`
	Model        ModelSettings        `yaml:"model"`
	Device       DeviceSettings       `yaml:"device"`
	Output       OutputSettings       `yaml:"output"`
	MQTT         MQTTSettings         `yaml:"mqtt"`
	Notification NotificationSettings `yaml:"notification"`
	Sentry       SentrySettings       `yaml:"sentry"`
	Metrics      MetricsSettings      `yaml:"metrics"`
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a Settings value.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings, err := unmarshalSettings()
	if err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// unmarshalSettings decodes the current viper state and validates it
func unmarshalSettings() (*Settings, error) {
	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal_settings").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
// When no config file exists the embedded defaults are used.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		GetLogger().Warn("environment overrides rejected", logger.Error(err))
	}

	err = viper.ReadInConfig()
	if err == nil {
		GetLogger().Debug("loaded config file", logger.String("path", viper.ConfigFileUsed()))
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	GetLogger().Debug("no config file found, using embedded defaults")
	return viper.MergeConfig(bytes.NewReader(getDefaultConfig()))
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() []byte {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		// embedded at build time, cannot be missing
		panic(fmt.Sprintf("error reading embedded config file: %v", err))
	}
	return data
}

// WriteDefaultConfig writes the embedded default configuration to path,
// refusing to overwrite an existing file.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file %s already exists", path).
			Category(errors.CategoryConfiguration).
			Context("operation", "write_default_config").
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(path, getDefaultConfig(), 0o600); err != nil {
		return errors.FileError(err, path, 0)
	}
	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write to a temporary file first so the replace is atomic
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := moveFile(tempFileName, configPath); err != nil {
		return fmt.Errorf("error moving config file: %w", err)
	}

	return nil
}
