package device

import (
	"fmt"

	"github.com/tphakala/ssvep-go/internal/errors"
)

var (
	// ErrHandshakeTimeout means the device never announced readiness.
	ErrHandshakeTimeout = errors.NewStd("device did not signal readiness in time")
	// ErrAckTimeout means the device went silent while an alert was pending.
	ErrAckTimeout = errors.NewStd("device stopped responding while awaiting acknowledgement")
	// ErrChannelClosed means the port reached end of stream mid-protocol.
	ErrChannelClosed = errors.NewStd("device channel closed")
)

// DeviceProtocolFault is a fatal failure of the device exchange. The session
// port is closed whenever one is returned.
type DeviceProtocolFault struct {
	Op    string
	State State
	Err   error
}

func (f *DeviceProtocolFault) Error() string {
	return fmt.Sprintf("device protocol fault during %s (state %s): %v", f.Op, f.State, f.Err)
}

func (f *DeviceProtocolFault) Unwrap() error { return f.Err }

// ErrorCategory implements errors.CategorizedError.
func (f *DeviceProtocolFault) ErrorCategory() errors.ErrorCategory {
	if errors.Is(f.Err, ErrHandshakeTimeout) || errors.Is(f.Err, ErrAckTimeout) {
		return errors.CategoryTimeout
	}
	return errors.CategoryDevice
}
