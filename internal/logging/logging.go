// Package logging configures the process-wide zerolog logger from the
// Logging config block.
package logging

import (
	"os"

	"github.com/codxp/server/internal/config"
	"github.com/rs/zerolog"
)

// New builds a logger for the given config. Level falls back to info if
// unparsable; format "console" selects human-readable output, anything
// else is JSON to stdout.
func New(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(level).With().
		Timestamp().
		Str("service", "codxp-server").
		Logger()
}

// Nop returns a logger that discards everything. Intended for tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
