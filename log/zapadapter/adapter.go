// Package zapadapter provides a logger that writes to a go.uber.org/zap.Logger.
package zapadapter

import (
	"context"

	"github.com/pgbind/pgbind"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (pl *Logger) Log(ctx context.Context, level pgbind.LogLevel, msg string, data map[string]any) {
	keys := pgbind.LogDataKeys(data)

	fields := make([]zapcore.Field, 0, len(data)+1)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, data[k]))
	}

	switch level {
	case pgbind.LogLevelTrace:
		pl.logger.Debug(msg, append(fields, zap.Stringer("PGBIND_LOG_LEVEL", level))...)
	case pgbind.LogLevelDebug:
		pl.logger.Debug(msg, fields...)
	case pgbind.LogLevelInfo:
		pl.logger.Info(msg, fields...)
	case pgbind.LogLevelWarn:
		pl.logger.Warn(msg, fields...)
	case pgbind.LogLevelError:
		pl.logger.Error(msg, fields...)
	default:
		pl.logger.Error(msg, append(fields, zap.Stringer("INVALID_PGBIND_LOG_LEVEL", level))...)
	}
}
