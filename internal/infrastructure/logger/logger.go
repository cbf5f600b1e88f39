// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog level and returns a logger that
// writes structured JSON to stdout.
func Setup(level string) zerolog.Logger {
	var l zerolog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = zerolog.DebugLevel
	case "info":
		l = zerolog.InfoLevel
	case "warn":
		l = zerolog.WarnLevel
	case "error":
		l = zerolog.ErrorLevel
	default:
		l = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(l)
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// Logger returns a default info-level logger.
func Logger() zerolog.Logger {
	return Setup("info")
}
