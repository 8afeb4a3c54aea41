package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New создаёт логгер для окружения; level переопределяет уровень по умолчанию.
func New(environment, level string) zerolog.Logger {
	return newLogger(os.Stdout, environment, level)
}

func newLogger(out io.Writer, environment, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    environment == "production",
	}

	lvl := zerolog.DebugLevel
	if environment == "production" {
		lvl = zerolog.InfoLevel
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}

	return zerolog.New(output).Level(lvl).With().
		Timestamp().
		Str("env", environment).
		Logger()
}
