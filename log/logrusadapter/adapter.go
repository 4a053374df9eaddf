// Package logrusadapter provides a logger that writes to a github.com/sirupsen/logrus.Logger
// log.
package logrusadapter

import (
	"context"

	"github.com/pgbind/pgbind"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	l        logrus.FieldLogger
	noModule bool
}

type Option func(*Logger)

// WithoutPGBindModule disables adding module:pgbind to every entry.
func WithoutPGBindModule() Option {
	return func(l *Logger) {
		l.noModule = true
	}
}

func NewLogger(l logrus.FieldLogger, options ...Option) *Logger {
	logger := &Logger{l: l}
	for _, opt := range options {
		opt(logger)
	}
	return logger
}

// Log writes data as entry fields. An error stored under "err" is attached with WithError so that it lands in the
// standard logrus error field.
func (l *Logger) Log(ctx context.Context, level pgbind.LogLevel, msg string, data map[string]any) {
	fields := make(logrus.Fields, len(data)+1)
	if !l.noModule {
		fields["module"] = "pgbind"
	}
	for k, v := range data {
		if err, ok := v.(error); ok && k == "err" {
			fields[logrus.ErrorKey] = err
			continue
		}
		fields[k] = v
	}
	logger := l.l.WithFields(fields)

	switch level {
	case pgbind.LogLevelTrace:
		logger.WithField("PGBIND_LOG_LEVEL", level.String()).Debug(msg)
	case pgbind.LogLevelDebug:
		logger.Debug(msg)
	case pgbind.LogLevelInfo:
		logger.Info(msg)
	case pgbind.LogLevelWarn:
		logger.Warn(msg)
	case pgbind.LogLevelError:
		logger.Error(msg)
	default:
		logger.WithField("INVALID_PGBIND_LOG_LEVEL", level.String()).Error(msg)
	}
}
