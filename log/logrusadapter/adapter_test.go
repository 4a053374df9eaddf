package logrusadapter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pgbind/pgbind"
	"github.com/pgbind/pgbind/log/logrusadapter"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	logger := logrusadapter.NewLogger(l)

	tests := []struct {
		level pgbind.LogLevel
		want  logrus.Level
	}{
		{pgbind.LogLevelTrace, logrus.DebugLevel},
		{pgbind.LogLevelDebug, logrus.DebugLevel},
		{pgbind.LogLevelInfo, logrus.InfoLevel},
		{pgbind.LogLevelWarn, logrus.WarnLevel},
		{pgbind.LogLevelError, logrus.ErrorLevel},
	}
	for _, tt := range tests {
		hook.Reset()
		logger.Log(context.Background(), tt.level, "Execute", map[string]any{"sql": "select 1"})

		entry := hook.LastEntry()
		require.NotNil(t, entry, tt.level)
		assert.Equal(t, tt.want, entry.Level, tt.level)
		assert.Equal(t, "Execute", entry.Message)
		assert.Equal(t, "select 1", entry.Data["sql"])
		assert.Equal(t, "pgbind", entry.Data["module"])
	}

	hook.Reset()
	logger.Log(context.Background(), pgbind.LogLevelTrace, "Execute", nil)
	assert.Equal(t, "trace", hook.LastEntry().Data["PGBIND_LOG_LEVEL"])

	hook.Reset()
	logger.Log(context.Background(), pgbind.LogLevel(42), "Execute", nil)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Data, "INVALID_PGBIND_LOG_LEVEL")
}

func TestLoggerErrorField(t *testing.T) {
	l, hook := test.NewNullLogger()
	logger := logrusadapter.NewLogger(l, logrusadapter.WithoutPGBindModule())

	boom := errors.New("boom")
	logger.Log(context.Background(), pgbind.LogLevelError, "Execute", map[string]any{"err": boom, "sql": "select 1"})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, boom, entry.Data[logrus.ErrorKey])
	assert.NotContains(t, entry.Data, "module")
}
