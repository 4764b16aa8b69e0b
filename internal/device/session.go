// Package device drives the line-oriented alert exchange with the ESP32
// alerting device over a serial port.
package device

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
)

// Line protocol sentinels, matched as case-sensitive substrings.
const (
	ReadyLine      = "ESP32_Ready"
	SMSSentLine    = "PYTHON_ALERT:SMS_SENT"
	SMSFailedLine  = "PYTHON_ALERT:SMS_FAILED"
	CompletionLine = "Action complete"
)

// Default timings.
const (
	DefaultSettle       = 2 * time.Second
	DefaultReadyTimeout = 30 * time.Second
	DefaultAckTimeout   = 60 * time.Second
)

// State is the position of a session in the alert exchange.
type State int

const (
	Disconnected State = iota
	AwaitingReady
	Ready
	AwaitingAck
	Done
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case AwaitingReady:
		return "awaiting_ready"
	case Ready:
		return "ready"
	case AwaitingAck:
		return "awaiting_ack"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// SMSStatus is the alert delivery status reported by the device.
type SMSStatus int

const (
	SMSUnset SMSStatus = iota
	SMSSent
	SMSFailed
)

func (s SMSStatus) String() string {
	switch s {
	case SMSSent:
		return "sent"
	case SMSFailed:
		return "failed"
	default:
		return "undetermined"
	}
}

// Config holds the port and protocol timings of a session.
type Config struct {
	Port         string
	BaudRate     int
	Settle       time.Duration // pause after opening before reading
	ReadyTimeout time.Duration // total wait for the readiness line
	AckTimeout   time.Duration // wait for each line after sending
}

// Outcome summarizes a completed exchange.
type Outcome struct {
	Label        string
	SMSStatus    SMSStatus
	Undetermined bool // device completed without reporting a status
	Transitions  []State
	Lines        []string // every line received, in order
	Duration     time.Duration
}

type lineResult struct {
	line string
	err  error
}

// Session is a single request/response exchange with the device. A session
// is used once and is not safe for concurrent use.
type Session struct {
	cfg  Config
	open Opener
	log  logger.Logger

	port      Port
	state     State
	lines     chan lineResult
	stop      chan struct{}
	readerWG  sync.WaitGroup
	closeOnce sync.Once

	outcome Outcome
}

// NewSession creates a session that opens its port with open. Zero timings
// fall back to the defaults; a negative Settle disables the pause.
func NewSession(cfg Config, open Opener) *Session {
	if cfg.Settle == 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	if open == nil {
		open = OpenSerial
	}
	return &Session{
		cfg:   cfg,
		open:  open,
		log:   GetLogger().With(logger.String("port", cfg.Port)),
		state: Disconnected,
		outcome: Outcome{
			Transitions: []State{Disconnected},
		},
	}
}

// State returns the current session state.
func (s *Session) State() State { return s.state }

// Alert runs the whole exchange: connect, wait for readiness, send label and
// collect the device response. The port is closed before Alert returns.
func (s *Session) Alert(ctx context.Context, label float64) (out Outcome, err error) {
	start := time.Now()
	defer func() {
		s.Close()
		s.outcome.Duration = time.Since(start)
		out = s.outcome
	}()

	if err := s.Connect(ctx); err != nil {
		return s.outcome, err
	}
	if err := s.Send(label); err != nil {
		return s.outcome, err
	}
	if err := s.AwaitCompletion(ctx); err != nil {
		return s.outcome, err
	}
	return s.outcome, nil
}

// Connect opens the port and blocks until the device announces readiness or
// the ready timeout expires.
func (s *Session) Connect(ctx context.Context) error {
	if s.state != Disconnected {
		return s.stateError("connect")
	}

	s.log.Info("connecting to device", logger.Int("baud", s.cfg.BaudRate))
	port, err := s.open(s.cfg.Port, s.cfg.BaudRate)
	if err != nil {
		return s.fault("open", err)
	}
	s.port = port
	s.transition(AwaitingReady)

	if s.cfg.Settle > 0 {
		timer := time.NewTimer(s.cfg.Settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return s.fault("settle", ctx.Err())
		case <-timer.C:
		}
	}

	s.startReader()
	s.log.Info("waiting for device readiness", logger.Duration("timeout", s.cfg.ReadyTimeout))

	deadline := time.NewTimer(s.cfg.ReadyTimeout)
	defer deadline.Stop()
	for {
		line, err := s.next(ctx, deadline.C, ErrHandshakeTimeout)
		if err != nil {
			return s.fault("handshake", err)
		}
		if strings.Contains(line, ReadyLine) {
			s.log.Info("device is ready")
			s.transition(Ready)
			return nil
		}
		s.log.Debug("discarding line before readiness", logger.String("line", line))
	}
}

// Send writes the label line once.
func (s *Session) Send(label float64) error {
	if s.state != Ready {
		return s.stateError("send")
	}

	text := FormatLabel(label)
	s.outcome.Label = text
	s.log.Info("sending label", logger.String("label", text))
	if _, err := io.WriteString(s.port, text+"\n"); err != nil {
		return s.fault("send", err)
	}
	s.transition(AwaitingAck)
	return nil
}

// AwaitCompletion consumes device lines until the completion line, recording
// the alert status reported along the way.
func (s *Session) AwaitCompletion(ctx context.Context) error {
	if s.state != AwaitingAck {
		return s.stateError("await")
	}

	for {
		timer := time.NewTimer(s.cfg.AckTimeout)
		line, err := s.next(ctx, timer.C, ErrAckTimeout)
		timer.Stop()
		if err != nil {
			return s.fault("acknowledgement", err)
		}

		switch {
		case strings.Contains(line, SMSSentLine):
			s.outcome.SMSStatus = SMSSent
			s.log.Info("device reports alert sent")
		case strings.Contains(line, SMSFailedLine):
			s.outcome.SMSStatus = SMSFailed
			s.log.Warn("device reports alert failed")
		case strings.Contains(line, CompletionLine):
			s.transition(Done)
			if s.outcome.SMSStatus == SMSUnset {
				s.outcome.Undetermined = true
				s.log.Warn("device completed without reporting alert status")
			}
			s.closePort()
			return nil
		default:
			s.log.Debug("device response", logger.String("line", line))
		}
	}
}

// Close closes the port and waits for the reader goroutine to exit. It is
// safe to call more than once.
func (s *Session) Close() {
	s.closePort()
}

func (s *Session) closePort() {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			close(s.stop)
		}
		if s.port != nil {
			if err := s.port.Close(); err != nil {
				s.log.Warn("closing port failed", logger.Error(err))
			}
			s.log.Info("serial connection closed")
		}
		s.readerWG.Wait()
	})
}

func (s *Session) startReader() {
	s.lines = make(chan lineResult, 16)
	s.stop = make(chan struct{})
	s.readerWG.Add(1)
	go s.readLines()
}

// readLines turns the port byte stream into trimmed lines. It exits on the
// first read error, which includes the port being closed.
func (s *Session) readLines() {
	defer s.readerWG.Done()
	defer close(s.lines)

	r := bufio.NewReader(s.port)
	for {
		raw, err := r.ReadString('\n')
		if raw != "" {
			line := strings.TrimSpace(strings.ToValidUTF8(raw, ""))
			if line != "" {
				select {
				case s.lines <- lineResult{line: line}:
				case <-s.stop:
					return
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				err = ErrChannelClosed
			}
			select {
			case s.lines <- lineResult{err: err}:
			case <-s.stop:
			}
			return
		}
	}
}

// next returns the next line, or timeoutErr once expired fires.
func (s *Session) next(ctx context.Context, expired <-chan time.Time, timeoutErr error) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-expired:
		return "", timeoutErr
	case res, ok := <-s.lines:
		if !ok {
			return "", ErrChannelClosed
		}
		if res.err != nil {
			return "", res.err
		}
		s.outcome.Lines = append(s.outcome.Lines, res.line)
		s.log.Debug("line received", logger.String("line", res.line))
		return res.line, nil
	}
}

func (s *Session) transition(to State) {
	s.log.Debug("state transition", logger.String("from", s.state.String()), logger.String("to", to.String()))
	s.state = to
	s.outcome.Transitions = append(s.outcome.Transitions, to)
}

func (s *Session) fault(op string, err error) error {
	state := s.state
	s.closePort()

	category := errors.CategoryDevice
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		category = errors.CategoryCancellation
	case errors.Is(err, ErrHandshakeTimeout) || errors.Is(err, ErrAckTimeout):
		category = errors.CategoryTimeout
	}
	s.log.Error("device exchange failed", logger.String("operation", op), logger.String("state", state.String()), logger.Error(err))

	return errors.New(&DeviceProtocolFault{Op: op, State: state, Err: err}).
		Component("device").
		Category(category).
		Context("port", s.cfg.Port).
		Context("state", state.String()).
		Build()
}

func (s *Session) stateError(op string) error {
	return errors.Newf("cannot %s in state %s", op, s.state).
		Component("device").
		Category(errors.CategoryState).
		Build()
}

// FormatLabel renders a label the way the device firmware expects: shortest
// decimal form, always with a fractional part ("10.0", "6.66").
func FormatLabel(label float64) string {
	text := strconv.FormatFloat(label, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}
