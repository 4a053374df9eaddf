package pgbindpool

import (
	"context"
	"time"

	"github.com/jackc/puddle"
	"github.com/pgbind/pgbind"
	"github.com/pgbind/pgbind/libpq"
)

// Conn is an acquired *pgbind.Connection from a Pool.
type Conn struct {
	res *puddle.Resource
	p   *Pool
}

// Release returns c to the pool it was acquired from. Once Release has been called, other methods must not be called.
// However, it is safe to call Release multiple times. Subsequent calls after the first will be ignored.
//
// Broken connections are destroyed. A connection left inside a transaction is rolled back before it is returned.
func (c *Conn) Release() {
	if c.res == nil {
		return
	}

	conn := c.Connection()
	res := c.res
	c.res = nil

	if !conn.IsOpen() || conn.Status() == libpq.ConnectionBad {
		res.Destroy()
		return
	}

	if conn.TransactionStatus() != libpq.TransactionIdle {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			r, err := conn.Execute(ctx, "rollback", nil, pgbind.WithThrowError(true))
			if err != nil || conn.TransactionStatus() != libpq.TransactionIdle {
				res.Destroy()
				return
			}
			r.Close()
			c.p.releaseOrDestroy(res, conn)
		}()
		return
	}

	c.p.releaseOrDestroy(res, conn)
}

func (p *Pool) releaseOrDestroy(res *puddle.Resource, conn *pgbind.Connection) {
	if p.afterRelease != nil && !p.afterRelease(conn) {
		res.Destroy()
		return
	}
	res.Release()
}

// Execute executes sql on the acquired connection.
func (c *Conn) Execute(ctx context.Context, sql string, params []any, opts ...pgbind.QueryOption) (*pgbind.Result, error) {
	return c.Connection().Execute(ctx, sql, params, opts...)
}

// PrepareCached prepares query on the acquired connection through its statement cache. The statement belongs to the
// connection and must not be executed after Release.
func (c *Conn) PrepareCached(ctx context.Context, query string) (*pgbind.Statement, error) {
	return c.Connection().PrepareCached(ctx, query)
}

// Connection returns the underlying Connection. It must not be used after Release.
func (c *Conn) Connection() *pgbind.Connection {
	return c.res.Value().(*pgbind.Connection)
}
