// Package analysis wires the feature pipeline, the classifier, the majority
// vote and the alert device into the train and predict entry points.
package analysis

import (
	"context"
	"io"
	"os"

	"github.com/tphakala/ssvep-go/internal/classifier"
	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/datastore"
	"github.com/tphakala/ssvep-go/internal/device"
	"github.com/tphakala/ssvep-go/internal/features"
	"github.com/tphakala/ssvep-go/internal/logger"
	"github.com/tphakala/ssvep-go/internal/mqtt"
	"github.com/tphakala/ssvep-go/internal/notification"
	"github.com/tphakala/ssvep-go/internal/observability"
	"github.com/tphakala/ssvep-go/internal/observability/metrics"
)

// Notifier delivers a run summary to the configured notification services.
type Notifier interface {
	Notify(ctx context.Context, s *notification.Summary) error
}

// Deps are the collaborators of Train and PredictAndAlert. Nil fields fall
// back to the production implementation or disable the sink.
type Deps struct {
	Out     io.Writer          // tables and banners; nil means os.Stdout
	Loader  features.LoadFunc  // nil means recording.Load
	Trainer classifier.Trainer // nil means kNN with the configured k
	Opener  device.Opener      // nil means the system serial port

	Metrics   *observability.Metrics
	Store     datastore.Interface // must already be open
	Publisher mqtt.Client
	Topic     string
	Notifier  Notifier
}

func (d *Deps) out() io.Writer {
	if d == nil || d.Out == nil {
		return os.Stdout
	}
	return d.Out
}

func (d *Deps) trainer(settings *conf.Settings) classifier.Trainer {
	if d != nil && d.Trainer != nil {
		return d.Trainer
	}
	return classifier.NewKNN(settings.Model.K)
}

// NewDeps builds the sinks enabled in settings. The returned close function
// releases them and must be called once the run is over. A sink that cannot
// be set up is logged and left out so the run itself can proceed.
func NewDeps(settings *conf.Settings) (*Deps, func()) {
	log := GetLogger()
	deps := &Deps{}

	m, err := observability.NewMetrics()
	if err != nil {
		log.Warn("metrics disabled", logger.Error(err))
	} else {
		deps.Metrics = m
	}

	if store := datastore.New(settings, deps.datastoreMetrics()); store != nil {
		if err := store.Open(); err != nil {
			log.Warn("run history disabled", logger.Error(err))
		} else {
			deps.Store = store
		}
	}

	if settings.MQTT.Enabled {
		cfg := mqtt.ConfigFromSettings(&settings.MQTT)
		client, err := mqtt.NewClient(cfg, deps.mqttMetrics())
		if err != nil {
			log.Warn("MQTT publishing disabled", logger.Error(err))
		} else {
			deps.Publisher = client
			deps.Topic = cfg.Topic
		}
	}

	if settings.Notification.Enabled {
		n, err := notification.NewNotifier(&settings.Notification, deps.notificationMetrics())
		if err != nil {
			log.Warn("notifications disabled", logger.Error(err))
		} else {
			deps.Notifier = n
		}
	}

	closeFn := func() {
		if deps.Publisher != nil {
			deps.Publisher.Disconnect()
		}
		if deps.Store != nil {
			if err := deps.Store.Close(); err != nil {
				log.Warn("failed to close run history", logger.Error(err))
			}
		}
	}
	return deps, closeFn
}

func (d *Deps) datastoreMetrics() *metrics.DatastoreMetrics {
	if d.Metrics == nil {
		return nil
	}
	return d.Metrics.Datastore
}

func (d *Deps) mqttMetrics() *metrics.MQTTMetrics {
	if d.Metrics == nil {
		return nil
	}
	return d.Metrics.MQTT
}

func (d *Deps) notificationMetrics() *metrics.NotificationMetrics {
	if d.Metrics == nil {
		return nil
	}
	return d.Metrics.Notification
}

// GetLogger returns the analysis package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("analysis")
}
