package logger

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// TimestampFormat is the format of timestamps printed by the logger.
const TimestampFormat = "15:04:05.000 MST 2006/01/02"

// New returns logger writing to out at the given level.
func New(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(ParseLevel(level))
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		TimestampFormat:  TimestampFormat,
		DisableColors:    true,
		QuoteEmptyFields: true,
	})
	return log
}

// Discard returns logger dropping everything, useful in tests.
func Discard() *logrus.Logger {
	return New("panic", io.Discard)
}

// ParseLevel converts level name to logrus level, info is used for unknown names.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}
