package testingadapter_test

import (
	"context"
	"testing"

	"github.com/pgbind/pgbind"
	"github.com/pgbind/pgbind/log/testingadapter"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	args [][]any
}

func (r *recorder) Log(args ...any) {
	r.args = append(r.args, args)
}

func TestLogger(t *testing.T) {
	r := &recorder{}
	logger := testingadapter.NewLogger(r)

	logger.Log(context.Background(), pgbind.LogLevelInfo, "Execute", map[string]any{"sql": "select 1", "args": []any{}})

	assert.Equal(t, [][]any{{pgbind.LogLevelInfo, "Execute", "args=[]", "sql=select 1"}}, r.args)
}

func TestLoggerWithTB(t *testing.T) {
	var l pgbind.Logger = testingadapter.NewLogger(t)
	l.Log(context.Background(), pgbind.LogLevelDebug, "hello", nil)
}
