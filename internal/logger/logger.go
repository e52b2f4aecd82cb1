package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns the process logger writing to stderr.
func Setup(dev bool) zerolog.Logger {
	return New(os.Stderr, dev)
}

// New returns a JSON logger at info level, or in dev mode a console logger at
// debug level with stack traces.
func New(w io.Writer, dev bool) zerolog.Logger {
	if !dev {
		return zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}

	console := zerolog.ConsoleWriter{Out: w, FormatTimestamp: func(i any) string {
		return time.Now().Format(time.RFC3339)
	}}

	return zerolog.New(console).Level(zerolog.DebugLevel).With().Timestamp().Caller().Stack().Logger()
}
