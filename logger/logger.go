package logger

import (
	"github.com/rs/zerolog"
	"os"
)

const (
	LogLevelDebug = "DEBUG"
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARN"
	LogLevelError = "ERROR"
	LogLevelFatal = "FATAL"
	LogLevelPanic = "PANIC"
)

func SetupLogging() {
	zerolog.LevelFieldName = "level_name"
	zerolog.TimestampFieldName = "timestamp"
}

func NewLogger(component string) zerolog.Logger {

	level, ok := os.LookupEnv("VSP_COMN_LOGLEVEL")
	if !ok {
		level = LogLevelInfo
	}

	levelValue := zerolog.InfoLevel

	switch level {
	case LogLevelDebug:
		levelValue = zerolog.DebugLevel
	case LogLevelWarn:
		levelValue = zerolog.WarnLevel
	case LogLevelError:
		levelValue = zerolog.ErrorLevel
	case LogLevelFatal:
		levelValue = zerolog.FatalLevel
	case LogLevelPanic:
		levelValue = zerolog.PanicLevel
	}

	return zerolog.New(os.Stderr).
		With().
		Str("component", component).
		Timestamp().
		Logger().
		Level(levelValue)
}
