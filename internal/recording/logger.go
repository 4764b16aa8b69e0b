package recording

import "github.com/tphakala/ssvep-go/internal/logger"

// GetLogger returns the recording package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("recording")
}
