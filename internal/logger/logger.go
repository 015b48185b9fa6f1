package logger

import (
	"os"

	"biwenger-tracker/internal/config"

	"github.com/rs/zerolog"
)

// New logs to stderr so stdout stays free for command output. The level
// comes from LOG_LEVEL, including a value set in .env.
func New() zerolog.Logger {
	level, err := zerolog.ParseLevel(config.LogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return SetLevel(level)
}

func SetLevel(level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Caller().
		Logger()

	logger = logger.Level(level)

	return logger
}
