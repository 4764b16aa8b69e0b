// Package telemetry reports categorized errors to Sentry when the user opts in.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/ssvep-go/internal/buildinfo"
	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
	"github.com/tphakala/ssvep-go/internal/privacy"
)

// FlushTimeout bounds the wait for queued events on shutdown.
const FlushTimeout = 2 * time.Second

// InitSentry initializes the Sentry SDK and installs it as the error
// reporter. It does nothing when telemetry is disabled. The returned function
// flushes pending events and is always safe to call.
func InitSentry(settings *conf.Settings, info *buildinfo.Context) (func(), error) {
	if !settings.Sentry.Enabled {
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",
		Release:          info.Release(),
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return func() {}, fmt.Errorf("sentry initialization failed: %w", privacy.WrapError(err))
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	GetLogger().Info("error telemetry enabled", logger.String("release", info.Release()))

	return func() { sentry.Flush(FlushTimeout) }, nil
}

// beforeSend strips host and user data and scrubs service URLs.
func beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Message = privacy.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}
	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}
	return event
}

// GetLogger returns the telemetry package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}
