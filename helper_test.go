package pgbind_test

import (
	"context"
	"testing"

	"github.com/pgbind/pgbind"
	"github.com/pgbind/pgbind/libpq"
	"github.com/pgbind/pgbind/libpq/libpqtest"
	"github.com/stretchr/testify/require"
)

const testConnString = "host=fake port=5432 dbname=test user=tester password=secret sslmode=disable"

func testConfig(t testing.TB, h libpqtest.Handler) (*pgbind.Config, *libpqtest.Driver) {
	t.Helper()

	config, err := pgbind.ParseConfig(testConnString)
	require.NoError(t, err)

	driver := &libpqtest.Driver{Handler: h}
	config.Driver = driver
	config.Registry = pgbind.NewRegistry()
	return config, driver
}

func connectTest(t testing.TB, h libpqtest.Handler, configure ...func(*pgbind.Config)) (*pgbind.Connection, *libpqtest.Conn) {
	t.Helper()

	config, driver := testConfig(t, h)
	for _, f := range configure {
		f(config)
	}

	conn, err := pgbind.ConnectConfig(context.Background(), config)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	conns := driver.Conns()
	require.Len(t, conns, 1)
	return conn, conns[0]
}

// basicHandler answers the queries used throughout the tests.
func basicHandler(query string, params []*string) *libpq.Result {
	switch query {
	case "SELECT 1::int4, 'foo'::varchar, false":
		return libpqtest.Rows(
			[]libpqtest.Column{{Name: "int4", OID: 23}, {Name: "varchar", OID: 1043}, {Name: "bool", OID: 16}},
			[]any{"1", "foo", "f"},
		)
	case "SELECT $1 = ANY($2)":
		found := "f"
		if params != nil && params[0] != nil && params[1] != nil && *params[0] == "13" && *params[1] == "{12,13,14,15}" {
			found = "t"
		}
		return libpqtest.Rows([]libpqtest.Column{{Name: "?column?", OID: 16}}, []any{found})
	case "SELECT a, b FROM t":
		return libpqtest.Rows(
			[]libpqtest.Column{{Name: "a", OID: 23}, {Name: "b", OID: 25}},
			[]any{"1", "x"},
			[]any{"2", nil},
		)
	case "CREATE TABLE t (a int4, b text)":
		return libpqtest.Command("CREATE TABLE")
	case "INSERT INTO t VALUES (1, 'x'), (2, NULL), (3, 'z')":
		return libpqtest.Command("INSERT 0 3")
	case "SELECT * FROM missing":
		return libpqtest.Error(`relation "missing" does not exist`)
	}
	return libpqtest.Error("unexpected query: " + query)
}
