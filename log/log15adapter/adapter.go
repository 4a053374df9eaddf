// Package log15adapter provides a logger that writes to a gopkg.in/inconshreveable/log15.v2.Logger
// log.
package log15adapter

import (
	"context"

	"github.com/pgbind/pgbind"
)

// Log15Logger interface defines the subset of
// gopkg.in/inconshreveable/log15.v2.Logger that this adapter uses.
type Log15Logger interface {
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
}

type Logger struct {
	l        Log15Logger
	noModule bool
}

type Option func(*Logger)

// WithoutPGBindModule disables adding module=pgbind to every record.
func WithoutPGBindModule() Option {
	return func(l *Logger) {
		l.noModule = true
	}
}

func NewLogger(l Log15Logger, options ...Option) *Logger {
	logger := &Logger{l: l}
	for _, opt := range options {
		opt(logger)
	}
	return logger
}

func (l *Logger) Log(ctx context.Context, level pgbind.LogLevel, msg string, data map[string]any) {
	logArgs := make([]any, 0, 2*len(data)+4)
	if !l.noModule {
		logArgs = append(logArgs, "module", "pgbind")
	}
	for _, k := range pgbind.LogDataKeys(data) {
		logArgs = append(logArgs, k, data[k])
	}

	switch level {
	case pgbind.LogLevelTrace:
		l.l.Debug(msg, append(logArgs, "PGBIND_LOG_LEVEL", level.String())...)
	case pgbind.LogLevelDebug:
		l.l.Debug(msg, logArgs...)
	case pgbind.LogLevelInfo:
		l.l.Info(msg, logArgs...)
	case pgbind.LogLevelWarn:
		l.l.Warn(msg, logArgs...)
	case pgbind.LogLevelError:
		l.l.Error(msg, logArgs...)
	default:
		l.l.Error(msg, append(logArgs, "INVALID_PGBIND_LOG_LEVEL", level.String())...)
	}
}
