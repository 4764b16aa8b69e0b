package features

import "github.com/tphakala/ssvep-go/internal/logger"

// GetLogger returns the features package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("features")
}
