package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-lesson-tutor/internal/sysutil"
)

// NewLogger sets the global level and returns the process logger. pretty
// switches to the human-readable console writer.
func NewLogger(level string, pretty bool, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	sysutil.SetLogLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
