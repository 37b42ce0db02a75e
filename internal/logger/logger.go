// Package logger constructs the application logger.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a zerolog logger writing to stdout at the given level.
// Unknown level strings fall back to info.
func New(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger().
		Level(lvl)
}
