package trial

import "github.com/tphakala/ssvep-go/internal/logger"

// GetLogger returns the trial package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("trial")
}
