package device

import "github.com/tphakala/ssvep-go/internal/logger"

// GetLogger returns the device package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("device")
}
