package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// InitLogger builds the application logger. format "json" emits structured
// lines; anything else uses the human-readable console writer.
func InitLogger(level, format string) zerolog.Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if format == "json" {
		out = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
