package main

import (
	"io"

	"github.com/rs/zerolog"
)

const serviceName = "blog-infrastructure"

// newLogger creates the program's structured logger. Unknown or empty levels fall
// back to info.
func newLogger(w io.Writer, levelName string) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Str("service", serviceName).Logger()

	level, err := zerolog.ParseLevel(levelName)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
