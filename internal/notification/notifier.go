// Package notification delivers run summaries through shoutrrr services.
package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/tphakala/ssvep-go/internal/conf"
	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
	"github.com/tphakala/ssvep-go/internal/observability/metrics"
	"github.com/tphakala/ssvep-go/internal/privacy"
)

// DefaultTimeout bounds a single provider delivery.
const DefaultTimeout = 10 * time.Second

// Summary is the outcome of one alert run as seen by notification targets.
type Summary struct {
	RunID        string
	Record       string
	Label        string // formatted frequency, e.g. "7.5"
	Votes        int
	Trials       int
	Tied         bool
	SMSStatus    string
	Undetermined bool
	Err          error
}

// Title renders the notification title.
func (s *Summary) Title() string {
	if s.Err != nil {
		return "SSVEP alert failed"
	}
	return "SSVEP alert: " + s.Label + " Hz"
}

// Message renders the notification body.
func (s *Summary) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Record %s: predicted %s Hz (%d/%d trials)", s.Record, s.Label, s.Votes, s.Trials)
	if s.Tied {
		b.WriteString(", tie broken by lowest frequency")
	}
	b.WriteString(".")
	switch {
	case s.Err != nil:
		fmt.Fprintf(&b, " Device alert failed: %s.", privacy.ScrubMessage(s.Err.Error()))
	case s.Undetermined:
		b.WriteString(" SMS status could not be determined.")
	default:
		fmt.Fprintf(&b, " SMS %s.", s.SMSStatus)
	}
	if s.RunID != "" {
		fmt.Fprintf(&b, " Run %s.", s.RunID)
	}
	return b.String()
}

type target struct {
	provider string
	display  string
	sender   *router.ServiceRouter
}

// Notifier fans a Summary out to every configured service URL.
type Notifier struct {
	targets []target
	metrics *metrics.NotificationMetrics
}

// NewNotifier validates every URL up front; m may be nil.
func NewNotifier(settings *conf.NotificationSettings, m *metrics.NotificationMetrics) (*Notifier, error) {
	if len(settings.URLs) == 0 {
		return nil, errors.Newf("at least one notification URL is required").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	n := &Notifier{metrics: m}
	for _, raw := range settings.URLs {
		sender, err := shoutrrr.CreateSender(raw)
		if err != nil {
			return nil, errors.New(privacy.WrapError(err)).
				Component("notification").
				Category(errors.CategoryConfiguration).
				Context("url", privacy.RedactURL(raw)).
				Build()
		}
		sender.Timeout = DefaultTimeout
		sender.SetLogger(log.New(io.Discard, "", 0))
		n.targets = append(n.targets, target{
			provider: privacy.Scheme(raw),
			display:  privacy.RedactURL(raw),
			sender:   sender,
		})
	}
	return n, nil
}

// Len returns the number of delivery targets.
func (n *Notifier) Len() int { return len(n.targets) }

// Notify sends s to every target and returns the joined delivery errors.
// A failing target does not stop delivery to the rest.
func (n *Notifier) Notify(ctx context.Context, s *Summary) error {
	params := stypes.Params{}
	params.SetTitle(s.Title())
	body := s.Message()

	var errs []error
	for _, t := range n.targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		start := time.Now()
		err := firstError(t.sender.Send(body, &params))
		if n.metrics != nil {
			n.metrics.RecordDelivery(t.provider, time.Since(start), err)
		}
		if err != nil {
			GetLogger().Warn("notification delivery failed",
				logger.String("provider", t.provider),
				logger.String("target", t.display),
				logger.Error(err))
			errs = append(errs, errors.New(privacy.WrapError(err)).
				Component("notification").
				Category(errors.CategoryNotification).
				Context("provider", t.provider).
				Build())
			continue
		}
		GetLogger().Debug("notification delivered", logger.String("provider", t.provider))
	}
	return errors.Join(errs...)
}

func firstError(errs []error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// GetLogger returns the notification package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("notification")
}
