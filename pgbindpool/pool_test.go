package pgbindpool_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pgbind/pgbind"
	"github.com/pgbind/pgbind/libpq"
	"github.com/pgbind/pgbind/libpq/libpqtest"
	"github.com/pgbind/pgbind/pgbindpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func handler(query string, params []*string) *libpq.Result {
	switch query {
	case "SELECT 1":
		return libpqtest.Rows([]libpqtest.Column{{Name: "?column?", OID: 23}}, []any{"1"})
	case "rollback":
		return libpqtest.Command("ROLLBACK")
	}
	return libpqtest.Error("unexpected query: " + query)
}

func testConfig(t *testing.T, connString string) (*pgbindpool.Config, *libpqtest.Driver) {
	t.Helper()

	config, err := pgbindpool.ParseConfig(connString)
	require.NoError(t, err)

	driver := &libpqtest.Driver{Handler: handler}
	config.ConnConfig.Driver = driver
	config.ConnConfig.Registry = pgbind.NewRegistry()
	config.MinConnectDelay = time.Millisecond
	config.MaxConnectDelay = 5 * time.Millisecond
	return config, driver
}

func connectPool(t *testing.T, config *pgbindpool.Config) *pgbindpool.Pool {
	t.Helper()

	pool, err := pgbindpool.ConnectConfig(context.Background(), config)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestParseConfigExtractsPoolSettings(t *testing.T) {
	config, err := pgbindpool.ParseConfig("host=fake pool_max_conns=7 dbname='a b' pool_connect_attempts=2 pool_max_conn_lifetime=1m pool_health_check_period=5s")
	require.NoError(t, err)

	assert.Equal(t, "host=fake dbname='a b'", config.ConnConfig.ConnString)
	assert.EqualValues(t, 7, config.MaxConns)
	assert.Equal(t, 2, config.ConnectAttempts)
	assert.Equal(t, time.Minute, config.MaxConnLifetime)
	assert.Equal(t, 5*time.Second, config.HealthCheckPeriod)
}

func TestParseConfigExtractsPoolSettingsFromURL(t *testing.T) {
	config, err := pgbindpool.ParseConfig("postgres://jack@fake:5432/mydb?sslmode=disable&pool_max_conns=2")
	require.NoError(t, err)

	assert.Equal(t, "postgres://jack@fake:5432/mydb?sslmode=disable", config.ConnConfig.ConnString)
	assert.EqualValues(t, 2, config.MaxConns)
}

func TestParseConfigDefaults(t *testing.T) {
	config, err := pgbindpool.ParseConfig("host=fake")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, config.MaxConns, int32(4))
	assert.Equal(t, 3, config.ConnectAttempts)
	assert.Equal(t, time.Hour, config.MaxConnLifetime)
}

func TestParseConfigErrors(t *testing.T) {
	for _, connString := range []string{
		"host=fake pool_max_conns=0",
		"host=fake pool_max_conns=x",
		"host=fake pool_connect_attempts=0",
		"host=fake pool_max_conn_lifetime=forever",
		"host=fake pool_health_check_period=1",
		"host=fake dbname='unterminated",
		"host",
	} {
		_, err := pgbindpool.ParseConfig(connString)
		assert.Errorf(t, err, "%q", connString)
	}
}

func TestConnectConfigRequiresParseConfig(t *testing.T) {
	assert.Panics(t, func() { pgbindpool.ConnectConfig(context.Background(), &pgbindpool.Config{}) })
}

func TestPoolExecute(t *testing.T) {
	config, driver := testConfig(t, "host=fake pool_max_conns=2")
	pool := connectPool(t, config)

	r, err := pool.Execute(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	defer r.Close()

	n, err := r.Get(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), n)

	assert.Len(t, driver.Conns(), 1)
	stat := pool.Stat()
	assert.EqualValues(t, 1, stat.TotalConns())
	assert.EqualValues(t, 1, stat.IdleConns())
	assert.EqualValues(t, 2, stat.MaxConns())
	assert.EqualValues(t, 1, stat.NewConnsCount())
}

func TestPoolConcurrentAcquiresGetDistinctConnections(t *testing.T) {
	config, driver := testConfig(t, "host=fake pool_max_conns=4")
	pool := connectPool(t, config)

	const n = 4
	var (
		mu    sync.Mutex
		seen  = map[*pgbind.Connection]bool{}
		ready sync.WaitGroup
	)
	ready.Add(n)

	g, ctx := errgroup.WithContext(context.Background())
	for range n {
		g.Go(func() error {
			c, err := pool.Acquire(ctx)
			if err != nil {
				ready.Done()
				return err
			}
			defer c.Release()

			mu.Lock()
			seen[c.Connection()] = true
			mu.Unlock()

			ready.Done()
			ready.Wait()

			r, err := c.Execute(ctx, "SELECT 1", nil)
			if err != nil {
				return err
			}
			r.Close()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, seen, n)
	assert.Len(t, driver.Conns(), n)
	assert.EqualValues(t, n, pool.Stat().TotalConns())
}

func TestPoolDestroysBrokenConnectionOnRelease(t *testing.T) {
	config, driver := testConfig(t, "host=fake pool_max_conns=2")
	pool := connectPool(t, config)

	c, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	broken := c.Connection()
	driver.Conns()[0].Bad = true
	c.Release()
	c.Release()

	require.Eventually(t, func() bool { return pool.Stat().TotalConns() == 0 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return !broken.IsOpen() }, time.Second, time.Millisecond)

	c, err = pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, broken, c.Connection())
	c.Release()
	assert.Len(t, driver.Conns(), 2)
}

func TestPoolRollsBackConnectionInTransaction(t *testing.T) {
	config, driver := testConfig(t, "host=fake pool_max_conns=2")
	pool := connectPool(t, config)

	c, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	native := driver.Conns()[0]
	native.TxStatus = libpq.TransactionInError
	c.Release()

	// The fake never leaves the transaction, so the connection is destroyed after the rollback.
	require.Eventually(t, func() bool { return pool.Stat().TotalConns() == 0 }, time.Second, time.Millisecond)
	require.NotEmpty(t, native.Calls)
	assert.Equal(t, "rollback", native.Calls[len(native.Calls)-1].Query)
}

func TestPoolAfterReleaseCanDestroy(t *testing.T) {
	config, _ := testConfig(t, "host=fake pool_max_conns=2")
	config.AfterRelease = func(*pgbind.Connection) bool { return false }
	pool := connectPool(t, config)

	c, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	c.Release()

	require.Eventually(t, func() bool { return pool.Stat().TotalConns() == 0 }, time.Second, time.Millisecond)
}

func TestPoolBeforeAcquireAndAfterConnect(t *testing.T) {
	config, driver := testConfig(t, "host=fake pool_max_conns=2")
	var connected int
	config.AfterConnect = func(ctx context.Context, conn *pgbind.Connection) error {
		connected++
		return nil
	}
	rejected := false
	config.BeforeAcquire = func(*pgbind.Connection) bool {
		if !rejected {
			rejected = true
			return false
		}
		return true
	}
	pool := connectPool(t, config)

	err := pool.AcquireFunc(context.Background(), func(c *pgbindpool.Conn) error {
		assert.True(t, c.Connection().IsOpen())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, connected)
	assert.Len(t, driver.Conns(), 2)
}

func TestPoolRetriesConnect(t *testing.T) {
	config, driver := testConfig(t, "host=fake pool_connect_attempts=3")
	driver.FailFirst = 2
	pool := connectPool(t, config)

	assert.Len(t, driver.Conns(), 3)
	assert.EqualValues(t, 2, pool.Stat().ConnectRetryCount())
}

func TestPoolConnectGivesUp(t *testing.T) {
	config, driver := testConfig(t, "host=fake pool_connect_attempts=2")
	driver.Bad = true

	_, err := pgbindpool.ConnectConfig(context.Background(), config)
	var ce *pgbind.ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Len(t, driver.Conns(), 2)
}

func TestPoolClose(t *testing.T) {
	config, driver := testConfig(t, "host=fake")
	pool, err := pgbindpool.ConnectConfig(context.Background(), config)
	require.NoError(t, err)

	pool.Close()
	pool.Close()

	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, pgbindpool.ErrClosedPool)
	assert.Equal(t, 1, driver.Conns()[0].FinishCalls)
}

func TestPoolAcquireAllIdleAndPrepare(t *testing.T) {
	config, _ := testConfig(t, "host=fake")
	pool := connectPool(t, config)

	conns := pool.AcquireAllIdle()
	require.Len(t, conns, 1)

	s, err := conns[0].PrepareCached(context.Background(), "SELECT 1")
	require.NoError(t, err)
	again, err := conns[0].PrepareCached(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Same(t, s, again)

	for _, c := range conns {
		c.Release()
	}
	assert.EqualValues(t, 1, pool.Stat().IdleConns())
}
