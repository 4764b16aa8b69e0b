package spectral

import "github.com/tphakala/ssvep-go/internal/logger"

// GetLogger returns the spectral package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("spectral")
}
