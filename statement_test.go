package pgbind_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pgbind/pgbind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareAndExecute(t *testing.T) {
	ctx := context.Background()
	conn, native := connectTest(t, basicHandler)

	s, err := conn.Prepare(ctx, "SELECT $1 = ANY($2)")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.Name(), "stmt__"), s.Name())
	assert.Equal(t, "SELECT $1 = ANY($2)", s.Query())
	assert.Equal(t, 2, s.NumParams())
	assert.Len(t, s.ParamOids(), 2)
	assert.Equal(t, 1, s.NumColumns())
	assert.Equal(t, []string{"?column?"}, s.ColumnNames())
	assert.Equal(t, 0, s.ColumnIndex("?column?"))
	assert.Equal(t, 0, s.Description().NumRows())
	assert.Contains(t, s.String(), "(2 parameters, 1 columns)")

	r, err := s.Execute(ctx, []any{13, []int{12, 13, 14, 15}})
	require.NoError(t, err)
	defer r.Close()

	found, err := r.Get(0, 0)
	require.NoError(t, err)
	assert.Equal(t, true, found)

	last := native.Calls[len(native.Calls)-1]
	assert.Equal(t, s.Name(), last.Prepared)
	require.Len(t, last.Params, 2)
	assert.Equal(t, "13", *last.Params[0])
}

func TestPrepareError(t *testing.T) {
	conn, _ := connectTest(t, basicHandler)

	_, err := conn.Prepare(context.Background(), "SELECT * FROM missing")
	var qe *pgbind.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "SELECT * FROM missing", qe.SQL)
}

func TestPrepareErrorIgnoresThrowErrorOption(t *testing.T) {
	conn, _ := connectTest(t, basicHandler, func(c *pgbind.Config) { c.ThrowError = false })

	_, err := conn.Prepare(context.Background(), "SELECT * FROM missing")
	var qe *pgbind.QueryError
	assert.ErrorAs(t, err, &qe)
}

func TestPrepareCached(t *testing.T) {
	ctx := context.Background()
	conn, _ := connectTest(t, basicHandler)

	s1, err := conn.PrepareCached(ctx, "SELECT a, b FROM t")
	require.NoError(t, err)
	s2, err := conn.PrepareCached(ctx, "SELECT a, b FROM t")
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	require.NoError(t, conn.Reset(ctx))

	s3, err := conn.PrepareCached(ctx, "SELECT a, b FROM t")
	require.NoError(t, err)
	assert.NotSame(t, s1, s3)
	assert.NotEqual(t, s1.Name(), s3.Name())
}

func TestPrepareCachedWithoutCache(t *testing.T) {
	ctx := context.Background()
	conn, _ := connectTest(t, basicHandler, func(c *pgbind.Config) { c.StatementCacheCapacity = 0 })

	s1, err := conn.PrepareCached(ctx, "SELECT a, b FROM t")
	require.NoError(t, err)
	s2, err := conn.PrepareCached(ctx, "SELECT a, b FROM t")
	require.NoError(t, err)
	assert.NotSame(t, s1, s2)
}

func TestStatementInvalidAfterResetOrClose(t *testing.T) {
	ctx := context.Background()
	conn, _ := connectTest(t, basicHandler)

	s, err := conn.Prepare(ctx, "SELECT a, b FROM t")
	require.NoError(t, err)
	require.NoError(t, conn.Reset(ctx))

	_, err = s.Execute(ctx, nil)
	assert.ErrorIs(t, err, pgbind.ErrClosed)

	s, err = conn.Prepare(ctx, "SELECT a, b FROM t")
	require.NoError(t, err)
	r, err := s.Execute(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, r.NumRows())
	r.Close()

	conn.Close()
	_, err = s.Execute(ctx, nil)
	assert.ErrorIs(t, err, pgbind.ErrClosed)

	_, err = conn.Prepare(ctx, "SELECT a, b FROM t")
	assert.ErrorIs(t, err, pgbind.ErrClosed)
}
