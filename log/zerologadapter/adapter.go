// Package zerologadapter provides a logger that writes to a github.com/rs/zerolog.
package zerologadapter

import (
	"context"

	"github.com/pgbind/pgbind"
	"github.com/rs/zerolog"
)

type Logger struct {
	logger      zerolog.Logger
	withFunc    func(context.Context, zerolog.Context) zerolog.Context
	fromContext bool
	skipModule  bool
}

// Option is a configuration option for NewLogger and NewContextLogger.
type Option func(*Logger)

// WithContextFunc adds possibility to get request scoped values from the ctx.Context before logging lines.
func WithContextFunc(withFunc func(context.Context, zerolog.Context) zerolog.Context) Option {
	return func(logger *Logger) {
		logger.withFunc = withFunc
	}
}

// WithoutPGBindModule disables adding module:pgbind to the default logger context.
func WithoutPGBindModule() Option {
	return func(logger *Logger) {
		logger.skipModule = true
	}
}

// NewLogger accepts a zerolog.Logger as input and returns a new custom pgbind
// logging facade as output.
func NewLogger(logger zerolog.Logger, options ...Option) *Logger {
	l := Logger{
		logger: logger,
	}
	l.init(options)
	return &l
}

// NewContextLogger creates a new logger that uses the zerolog.Logger stored in the ctx passed to Log.
func NewContextLogger(options ...Option) *Logger {
	l := Logger{
		fromContext: true,
	}
	l.init(options)
	return &l
}

func (pl *Logger) init(options []Option) {
	for _, opt := range options {
		opt(pl)
	}
	if !pl.skipModule {
		pl.logger = pl.logger.With().Str("module", "pgbind").Logger()
	}
}

func (pl *Logger) Log(ctx context.Context, level pgbind.LogLevel, msg string, data map[string]any) {
	var zlevel zerolog.Level
	switch level {
	case pgbind.LogLevelNone:
		zlevel = zerolog.NoLevel
	case pgbind.LogLevelError:
		zlevel = zerolog.ErrorLevel
	case pgbind.LogLevelWarn:
		zlevel = zerolog.WarnLevel
	case pgbind.LogLevelInfo:
		zlevel = zerolog.InfoLevel
	default:
		zlevel = zerolog.DebugLevel
	}

	var zctx zerolog.Context
	if pl.fromContext {
		logger := zerolog.Ctx(ctx)
		if !pl.skipModule {
			zctx = logger.With().Str("module", "pgbind")
		} else {
			zctx = logger.With()
		}
	} else {
		zctx = pl.logger.With()
	}
	if pl.withFunc != nil {
		zctx = pl.withFunc(ctx, zctx)
	}
	if level == pgbind.LogLevelTrace {
		zctx = zctx.Str("PGBIND_LOG_LEVEL", level.String())
	}

	pgbindlog := zctx.Fields(data).Logger()
	pgbindlog.WithLevel(zlevel).Msg(msg)
}
