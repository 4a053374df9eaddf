// Package pgbindpool is a concurrency-safe pool of pgbind Connections.
//
// A pgbind.Connection must not be used from more than one goroutine at a time. A Pool hands out independent
// Connections so that goroutines can query in parallel.
package pgbindpool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/puddle"
	"github.com/jpillora/backoff"
	"github.com/pgbind/pgbind"
	"github.com/pgbind/pgbind/libpq"
	"go.uber.org/atomic"
)

// ErrClosedPool is returned by Acquire on a closed pool.
var ErrClosedPool = errors.New("pgbindpool: closed pool")

type Pool struct {
	p      *puddle.Pool
	config *Config

	afterConnect      func(context.Context, *pgbind.Connection) error
	beforeAcquire     func(*pgbind.Connection) bool
	afterRelease      func(*pgbind.Connection) bool
	maxConnLifetime   time.Duration
	healthCheckPeriod time.Duration

	newConnsCount        *atomic.Int64
	connectRetryCount    *atomic.Int64
	lifetimeDestroyCount *atomic.Int64

	closeOnce sync.Once
	closeChan chan struct{}
}

// Connect creates a new Pool and immediately establishes one connection. ctx can be used to cancel this initial
// connection. See ParseConfig for information on connString format.
func Connect(ctx context.Context, connString string) (*Pool, error) {
	config, err := ParseConfig(connString)
	if err != nil {
		return nil, err
	}

	return ConnectConfig(ctx, config)
}

// ConnectConfig creates a new Pool and immediately establishes one connection. ctx can be used to cancel this
// initial connection. config must have been created by ParseConfig.
func ConnectConfig(ctx context.Context, config *Config) (*Pool, error) {
	// Default values are set in ParseConfig. Enforce initial creation by ParseConfig rather than setting defaults from
	// zero values.
	if !config.createdByParseConfig {
		panic("config must be created by ParseConfig")
	}
	config = config.Copy()

	p := &Pool{
		config:               config,
		afterConnect:         config.AfterConnect,
		beforeAcquire:        config.BeforeAcquire,
		afterRelease:         config.AfterRelease,
		maxConnLifetime:      config.MaxConnLifetime,
		healthCheckPeriod:    config.HealthCheckPeriod,
		newConnsCount:        atomic.NewInt64(0),
		connectRetryCount:    atomic.NewInt64(0),
		lifetimeDestroyCount: atomic.NewInt64(0),
		closeChan:            make(chan struct{}),
	}

	p.p = puddle.NewPool(
		func(ctx context.Context) (any, error) {
			conn, err := p.connect(ctx)
			if err != nil {
				return nil, err
			}

			if p.afterConnect != nil {
				if err := p.afterConnect(ctx, conn); err != nil {
					conn.Close()
					return nil, err
				}
			}

			p.newConnsCount.Inc()
			return conn, nil
		},
		func(value any) {
			value.(*pgbind.Connection).Close()
		},
		config.MaxConns,
	)

	if p.healthCheckPeriod > 0 {
		go p.backgroundHealthCheck()
	}

	res, err := p.p.Acquire(ctx)
	if err != nil {
		p.Close()
		return nil, err
	}
	res.Release()

	return p, nil
}

// connect opens one Connection, retrying ConnectionErrors with exponential backoff.
func (p *Pool) connect(ctx context.Context) (*pgbind.Connection, error) {
	b := &backoff.Backoff{
		Min:    p.config.MinConnectDelay,
		Max:    p.config.MaxConnectDelay,
		Factor: 2,
		Jitter: true,
	}

	for attempt := 1; ; attempt++ {
		conn, err := pgbind.ConnectConfig(ctx, p.config.ConnConfig)
		if err == nil && conn.Status() == libpq.ConnectionBad {
			err = &pgbind.ConnectionError{Message: conn.ErrorMessage(), Status: libpq.ConnectionBad}
			conn.Close()
		}
		if err == nil {
			return conn, nil
		}

		var connErr *pgbind.ConnectionError
		if !errors.As(err, &connErr) || attempt >= p.config.ConnectAttempts {
			return nil, err
		}
		p.connectRetryCount.Inc()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.closeChan:
			return nil, err
		case <-time.After(b.Duration()):
		}
	}
}

// Close closes all connections in the pool and rejects future Acquire calls. Blocks until all connections are
// returned to pool and closed.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.closeChan)
		p.p.Close()
	})
}

func (p *Pool) backgroundHealthCheck() {
	ticker := time.NewTicker(p.healthCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.closeChan:
			return
		case <-ticker.C:
			p.checkIdleConnsHealth()
		}
	}
}

func (p *Pool) checkIdleConnsHealth() {
	resources := p.p.AcquireAllIdle()

	now := time.Now()
	for _, res := range resources {
		conn := res.Value().(*pgbind.Connection)
		switch {
		case p.maxConnLifetime > 0 && now.Sub(res.CreationTime()) > p.maxConnLifetime:
			p.lifetimeDestroyCount.Inc()
			res.Destroy()
		case conn.Status() == libpq.ConnectionBad:
			res.Destroy()
		default:
			res.Release()
		}
	}
}

// Acquire returns a connection from the pool, creating one when none is idle and the pool is not full. The caller
// must call Release on the returned Conn.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	for {
		res, err := p.p.Acquire(ctx)
		if err != nil {
			if errors.Is(err, puddle.ErrClosedPool) {
				return nil, ErrClosedPool
			}
			return nil, err
		}

		conn := res.Value().(*pgbind.Connection)
		if conn.Status() == libpq.ConnectionBad {
			res.Destroy()
			continue
		}
		if p.beforeAcquire == nil || p.beforeAcquire(conn) {
			return &Conn{res: res, p: p}, nil
		}

		res.Destroy()
	}
}

// AcquireFunc acquires a connection, calls f with it and releases it.
func (p *Pool) AcquireFunc(ctx context.Context, f func(*Conn) error) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer c.Release()

	return f(c)
}

// AcquireAllIdle atomically acquires all currently idle connections. Its intended use is for health check and
// keep-alive functionality. It does not update pool statistics.
func (p *Pool) AcquireAllIdle() []*Conn {
	resources := p.p.AcquireAllIdle()
	conns := make([]*Conn, 0, len(resources))
	for _, res := range resources {
		if p.beforeAcquire == nil || p.beforeAcquire(res.Value().(*pgbind.Connection)) {
			conns = append(conns, &Conn{res: res, p: p})
		} else {
			res.Destroy()
		}
	}
	return conns
}

// Config returns a copy of the config that was used to initialize this pool.
func (p *Pool) Config() *Config {
	return p.config.Copy()
}

// Stat returns a snapshot of the pool's statistics.
func (p *Pool) Stat() *Stat {
	return &Stat{
		s:                    p.p.Stat(),
		newConnsCount:        p.newConnsCount.Load(),
		connectRetryCount:    p.connectRetryCount.Load(),
		lifetimeDestroyCount: p.lifetimeDestroyCount.Load(),
	}
}

// Execute acquires a connection, executes sql on it and releases it. The Result stays valid after the connection
// returns to the pool.
func (p *Pool) Execute(ctx context.Context, sql string, params []any, opts ...pgbind.QueryOption) (*pgbind.Result, error) {
	c, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Release()

	return c.Execute(ctx, sql, params, opts...)
}
