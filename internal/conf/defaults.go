// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("logging.defaultlevel", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.fileoutput.enabled", false)
	viper.SetDefault("logging.fileoutput.path", "logs/ssvep.log")
	viper.SetDefault("logging.fileoutput.level", "info")

	viper.SetDefault("input.path", "")
	viper.SetDefault("input.datadir", "data")

	viper.SetDefault("features.samplingrate", 128.0)
	viper.SetDefault("features.targetfrequencies", []float64{6.66, 7.5, 8.57, 10.0, 12.0})
	viper.SetDefault("features.channels", []string{"O1", "O2"})
	viper.SetDefault("features.windowseconds", 2.0)
	viper.SetDefault("features.overlap", 0.5)
	viper.SetDefault("features.adaptationsuffix", "x")
	viper.SetDefault("features.annotationext", "win")
	viper.SetDefault("features.workers", 0)

	viper.SetDefault("model.modelpath", "ssvep_model.msgpack")
	viper.SetDefault("model.codecpath", "ssvep_label_codec.yaml")
	viper.SetDefault("model.k", 5)
	viper.SetDefault("model.testratio", 0.25)
	viper.SetDefault("model.seed", 42)

	viper.SetDefault("device.port", "")
	viper.SetDefault("device.baudrate", 115200)
	viper.SetDefault("device.settle", 2*time.Second)
	viper.SetDefault("device.readytimeout", 30*time.Second)
	viper.SetDefault("device.acktimeout", 60*time.Second)

	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "ssvep.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "ssvep")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "ssvep")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "ssvep/result")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.clientid", "ssvep-go")
	viper.SetDefault("mqtt.retain", false)
	viper.SetDefault("mqtt.timeout", 10*time.Second)

	viper.SetDefault("notification.enabled", false)
	viper.SetDefault("notification.urls", []string{})

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.textfile", "ssvep.prom")
}
