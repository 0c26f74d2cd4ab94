// Package logging configures the process-wide zerolog logger. Envelopes go
// to stdout; all diagnostics go to stderr so piped output stays clean.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New builds a console logger on w with the level derived from the --verbose
// count: 0 info, 1 debug, 2+ trace.
func New(w io.Writer, verbosity int) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case verbosity >= 2:
		level = zerolog.TraceLevel
	case verbosity == 1:
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
