package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the default development logger: pretty console output at info
// level. Production setups go through NewWithConfig.
func New() zerolog.Logger {
	return NewWithConfig("info", true, false).With().Caller().Logger()
}

func NewWithConfig(level string, pretty, noColor bool) zerolog.Logger {
	var log zerolog.Logger

	if pretty {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			NoColor:    noColor,
		}
		log = zerolog.New(output).With().Timestamp().Logger()
	} else {
		log = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return log.Level(lvl)
}
