package classifier

import "github.com/tphakala/ssvep-go/internal/logger"

// GetLogger returns the classifier package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("classifier")
}
