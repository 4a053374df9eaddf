// Package kitlogadapter provides a logger that writes to a github.com/go-kit/log.Logger.
package kitlogadapter

import (
	"context"

	"github.com/go-kit/log"
	kitlevel "github.com/go-kit/log/level"
	"github.com/pgbind/pgbind"
)

type Logger struct {
	l log.Logger
}

// NewLogger returns a Logger that writes to l. Every record carries module=pgbind.
func NewLogger(l log.Logger) *Logger {
	return &Logger{l: log.With(l, "module", "pgbind")}
}

func (l *Logger) Log(ctx context.Context, level pgbind.LogLevel, msg string, data map[string]any) {
	keyvals := make([]any, 0, 2*len(data)+4)
	for _, k := range pgbind.LogDataKeys(data) {
		keyvals = append(keyvals, k, data[k])
	}

	var logger log.Logger
	switch level {
	case pgbind.LogLevelTrace:
		logger = kitlevel.Debug(l.l)
		keyvals = append(keyvals, "PGBIND_LOG_LEVEL", level.String())
	case pgbind.LogLevelDebug:
		logger = kitlevel.Debug(l.l)
	case pgbind.LogLevelInfo:
		logger = kitlevel.Info(l.l)
	case pgbind.LogLevelWarn:
		logger = kitlevel.Warn(l.l)
	case pgbind.LogLevelError:
		logger = kitlevel.Error(l.l)
	default:
		logger = kitlevel.Error(l.l)
		keyvals = append(keyvals, "INVALID_PGBIND_LOG_LEVEL", level.String())
	}

	logger.Log(append(keyvals, "msg", msg)...)
}
