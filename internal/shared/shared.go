// package shared defines shared helpers
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// ApplyVerbosity maps the CLI verbosity level (0..3) onto the logger:
// 0 errors only, 1 info (default), 2 debug, 3 debug with caller
// reporting. Values outside the range clamp.
func ApplyVerbosity(l *log.Logger, verbosity int) {
	switch {
	case verbosity <= 0:
		l.SetLevel(log.ErrorLevel)
	case verbosity == 1:
		l.SetLevel(log.InfoLevel)
	case verbosity == 2:
		l.SetLevel(log.DebugLevel)
	default:
		l.SetLevel(log.DebugLevel)
		l.SetReportCaller(true)
	}
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}
