package log15adapter_test

import (
	"context"
	"testing"

	"github.com/pgbind/pgbind"
	"github.com/pgbind/pgbind/log/log15adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	log15 "gopkg.in/inconshreveable/log15.v2"
)

func recordingLogger() (log15.Logger, *[]*log15.Record) {
	var records []*log15.Record
	l := log15.New()
	l.SetHandler(log15.FuncHandler(func(r *log15.Record) error {
		records = append(records, r)
		return nil
	}))
	return l, &records
}

func TestLogger(t *testing.T) {
	l, records := recordingLogger()
	logger := log15adapter.NewLogger(l)

	logger.Log(context.Background(), pgbind.LogLevelInfo, "Connect", map[string]any{"b": 2, "a": 1})
	logger.Log(context.Background(), pgbind.LogLevelTrace, "Execute", nil)
	logger.Log(context.Background(), pgbind.LogLevelError, "Execute", nil)

	require.Len(t, *records, 3)
	r := *records
	assert.Equal(t, log15.LvlInfo, r[0].Lvl)
	assert.Equal(t, "Connect", r[0].Msg)
	assert.Equal(t, []any{"module", "pgbind", "a", 1, "b", 2}, r[0].Ctx)

	assert.Equal(t, log15.LvlDebug, r[1].Lvl)
	assert.Equal(t, []any{"module", "pgbind", "PGBIND_LOG_LEVEL", "trace"}, r[1].Ctx)

	assert.Equal(t, log15.LvlError, r[2].Lvl)
}

func TestLoggerWithoutPGBindModule(t *testing.T) {
	l, records := recordingLogger()
	logger := log15adapter.NewLogger(l, log15adapter.WithoutPGBindModule())

	logger.Log(context.Background(), pgbind.LogLevelWarn, "Execute", map[string]any{"sql": "select 1"})

	require.Len(t, *records, 1)
	assert.Equal(t, log15.LvlWarn, (*records)[0].Lvl)
	assert.Equal(t, []any{"sql", "select 1"}, (*records)[0].Ctx)
}
