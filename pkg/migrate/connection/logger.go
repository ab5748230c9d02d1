package connection

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger : console logger on stderr tagged with the component it belongs to
func NewLogger(component string) zerolog.Logger {
	return NewLoggerTo(os.Stderr, component)
}

func NewLoggerTo(w io.Writer, component string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}
