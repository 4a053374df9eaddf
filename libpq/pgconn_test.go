package libpq_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgproto3"
	"github.com/pgbind/pgbind/internal/pgmock"
	"github.com/pgbind/pgbind/libpq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectMock(t *testing.T, steps ...[]pgmock.Step) (libpq.Conn, *pgmock.Server) {
	t.Helper()

	script := &pgmock.Script{Steps: pgmock.AcceptUnauthenticatedConnRequestSteps("16.2")}
	for _, s := range steps {
		script.Steps = append(script.Steps, s...)
	}
	script.Steps = append(script.Steps, pgmock.WaitForClose())

	server, err := pgmock.NewServer(script)
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn := libpq.PgconnDriver{}.Connect(ctx, server.ConnString())
	require.Equal(t, libpq.ConnectionOK, conn.Status(), conn.ErrorMessage())
	return conn, server
}

func TestPgconnExec(t *testing.T) {
	conn, server := connectMock(t, pgmock.SimpleQuerySteps(
		[]pgmock.Column{{Name: "int4", OID: 23}, {Name: "varchar", OID: 1043}, {Name: "bool", OID: 16}},
		[][][]byte{{[]byte("1"), []byte("foo"), []byte("f")}},
		"SELECT 1",
	))
	ctx := context.Background()

	r := conn.Exec(ctx, "SELECT 1::int4, 'foo'::varchar, false")
	require.Equal(t, libpq.TuplesOK, r.Status(), r.ErrorMessage())
	assert.Equal(t, 1, r.NTuples())
	assert.Equal(t, 3, r.NFields())
	assert.EqualValues(t, 1043, r.FType(1))
	assert.Equal(t, "foo", string(r.GetValue(0, 1)))
	assert.Equal(t, "1", r.CmdTuples())
	r.Clear()

	assert.Equal(t, 160002, conn.ServerVersion())
	assert.Equal(t, "UTF8", conn.ClientEncoding())
	assert.Equal(t, libpq.TransactionIdle, conn.TransactionStatus())

	conn.Finish()
	conn.Finish()
	require.NoError(t, server.Wait())
}

func TestPgconnExecCommand(t *testing.T) {
	conn, server := connectMock(t, pgmock.SimpleQuerySteps(nil, nil, "CREATE TABLE"))

	r := conn.Exec(context.Background(), "CREATE TABLE t (a int)")
	assert.Equal(t, libpq.CommandOK, r.Status())
	assert.Equal(t, 0, r.NTuples())
	assert.Equal(t, 0, r.NFields())
	assert.Equal(t, "", r.CmdTuples())

	conn.Finish()
	require.NoError(t, server.Wait())
}

func TestPgconnZeroRowResultsKeepColumns(t *testing.T) {
	columns := []pgmock.Column{{Name: "id", OID: 23}, {Name: "name", OID: 25}}
	conn, server := connectMock(t,
		pgmock.SimpleQuerySteps(columns, nil, "SELECT 0"),
		pgmock.ExtendedQuerySteps(columns[:1], nil, "SELECT 0"),
		pgmock.PrepareSteps(nil, columns[1:]),
		pgmock.ExecPreparedSteps(columns[1:], nil, "SELECT 0"),
	)
	ctx := context.Background()

	r := conn.Exec(ctx, "SELECT id, name FROM t WHERE false")
	require.Equal(t, libpq.TuplesOK, r.Status(), r.ErrorMessage())
	assert.Equal(t, 0, r.NTuples())
	require.Equal(t, 2, r.NFields())
	assert.Equal(t, "name", r.FName(1))
	assert.EqualValues(t, 25, r.FType(1))
	assert.Equal(t, "0", r.CmdTuples())

	r = conn.ExecParams(ctx, "SELECT id FROM t WHERE id = $1", nil)
	require.Equal(t, libpq.TuplesOK, r.Status(), r.ErrorMessage())
	require.Equal(t, 1, r.NFields())
	assert.Equal(t, "id", r.FName(0))
	assert.EqualValues(t, 23, r.FType(0))

	require.Equal(t, libpq.CommandOK, conn.Prepare(ctx, "stmt__1", "SELECT name FROM t WHERE false").Status())
	r = conn.ExecPrepared(ctx, "stmt__1", nil)
	require.Equal(t, libpq.TuplesOK, r.Status(), r.ErrorMessage())
	require.Equal(t, 1, r.NFields())
	assert.Equal(t, "name", r.FName(0))

	conn.Finish()
	require.NoError(t, server.Wait())
}

func TestPgconnExecKeepsEmptyStringApartFromNull(t *testing.T) {
	conn, server := connectMock(t, pgmock.SimpleQuerySteps(
		[]pgmock.Column{{Name: "a", OID: 25}, {Name: "b", OID: 25}},
		[][][]byte{{[]byte{}, nil}},
		"SELECT 1",
	))

	r := conn.Exec(context.Background(), "SELECT '', NULL")
	require.Equal(t, libpq.TuplesOK, r.Status(), r.ErrorMessage())
	assert.False(t, r.GetIsNull(0, 0))
	assert.Equal(t, 0, r.GetLength(0, 0))
	assert.True(t, r.GetIsNull(0, 1))

	conn.Finish()
	require.NoError(t, server.Wait())
}

func TestPgconnExecError(t *testing.T) {
	conn, server := connectMock(t, pgmock.SimpleQueryErrorSteps("42P01", `relation "missing" does not exist`))

	r := conn.Exec(context.Background(), "SELECT * FROM missing")
	assert.Equal(t, libpq.FatalError, r.Status())
	assert.Equal(t, "ERROR:  relation \"missing\" does not exist\n", r.ErrorMessage())
	assert.Equal(t, r.ErrorMessage(), conn.ErrorMessage())
	require.NotNil(t, r.PgError())
	assert.Equal(t, "42P01", r.PgError().Code)
	assert.Equal(t, libpq.ConnectionOK, conn.Status())

	conn.Finish()
	require.NoError(t, server.Wait())
}

func TestPgconnExecParams(t *testing.T) {
	conn, server := connectMock(t, pgmock.ExtendedQuerySteps(
		[]pgmock.Column{{Name: "?column?", OID: 16}},
		[][][]byte{{[]byte("t")}},
		"SELECT 1",
	))

	p1, p2 := "13", "{12,13,14,15}"
	r := conn.ExecParams(context.Background(), "SELECT $1 = ANY($2)", []*string{&p1, &p2})
	require.Equal(t, libpq.TuplesOK, r.Status(), r.ErrorMessage())
	assert.Equal(t, "t", string(r.GetValue(0, 0)))

	conn.Finish()
	require.NoError(t, server.Wait())
}

func TestPgconnExecParamsSendsNull(t *testing.T) {
	script := &pgmock.Script{Steps: pgmock.AcceptUnauthenticatedConnRequestSteps("16.2")}
	script.Steps = append(script.Steps,
		pgmock.ExpectAnyMessage(&pgproto3.Parse{}),
		pgmock.ExpectMessage(&pgproto3.Bind{
			ParameterFormatCodes: nil,
			Parameters:           [][]byte{[]byte("a"), nil},
			ResultFormatCodes:    []int16{},
		}),
	)
	script.Steps = append(script.Steps, pgmock.ExtendedQuerySteps(
		[]pgmock.Column{{Name: "?column?", OID: 25}},
		[][][]byte{{nil}},
		"SELECT 1",
	)[2:]...)
	script.Steps = append(script.Steps, pgmock.WaitForClose())

	server, err := pgmock.NewServer(script)
	require.NoError(t, err)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn := libpq.PgconnDriver{}.Connect(ctx, server.ConnString())
	require.Equal(t, libpq.ConnectionOK, conn.Status(), conn.ErrorMessage())

	a := "a"
	r := conn.ExecParams(ctx, "SELECT coalesce($1, $2)", []*string{&a, nil})
	assert.True(t, r.GetIsNull(0, 0))

	conn.Finish()
	require.NoError(t, server.Wait())
}

func TestPgconnPrepare(t *testing.T) {
	columns := []pgmock.Column{{Name: "n", OID: 20}}
	conn, server := connectMock(t,
		pgmock.PrepareSteps([]uint32{20}, columns),
		pgmock.ExecPreparedSteps(columns, [][][]byte{{[]byte("42")}}, "SELECT 1"),
	)
	ctx := context.Background()

	r := conn.Prepare(ctx, "stmt__1", "SELECT $1::int8 AS n")
	require.Equal(t, libpq.CommandOK, r.Status(), r.ErrorMessage())

	d := conn.DescribePrepared(ctx, "stmt__1")
	require.Equal(t, libpq.CommandOK, d.Status())
	assert.Equal(t, 1, d.NParams())
	assert.EqualValues(t, 20, d.ParamType(0))
	assert.Equal(t, "n", d.FName(0))

	missing := conn.DescribePrepared(ctx, "nope")
	assert.Equal(t, libpq.FatalError, missing.Status())
	assert.Equal(t, "26000", missing.PgError().Code)

	v := "42"
	e := conn.ExecPrepared(ctx, "stmt__1", []*string{&v})
	require.Equal(t, libpq.TuplesOK, e.Status(), e.ErrorMessage())
	assert.Equal(t, "42", string(e.GetValue(0, 0)))

	conn.Finish()
	require.NoError(t, server.Wait())
}

func TestPgconnReset(t *testing.T) {
	first := &pgmock.Script{Steps: pgmock.AcceptUnauthenticatedConnRequestSteps("16.2")}
	first.Steps = append(first.Steps, pgmock.WaitForClose())
	second := &pgmock.Script{Steps: pgmock.AcceptUnauthenticatedConnRequestSteps("16.3")}
	second.Steps = append(second.Steps, pgmock.WaitForClose())

	server, err := pgmock.NewServer(first, second)
	require.NoError(t, err)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn := libpq.PgconnDriver{}.Connect(ctx, server.ConnString())
	require.Equal(t, libpq.ConnectionOK, conn.Status(), conn.ErrorMessage())
	assert.Equal(t, 160002, conn.ServerVersion())

	conn.Reset(ctx)
	require.Equal(t, libpq.ConnectionOK, conn.Status(), conn.ErrorMessage())
	assert.Equal(t, 160003, conn.ServerVersion())

	conn.Finish()
	require.NoError(t, server.Wait())
}

func TestPgconnConnectFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn := libpq.PgconnDriver{}.Connect(ctx, "host=127.0.0.1 port=1 sslmode=disable connect_timeout=1")
	assert.Equal(t, libpq.ConnectionBad, conn.Status())
	assert.NotEmpty(t, conn.ErrorMessage())
	assert.Equal(t, libpq.TransactionUnknown, conn.TransactionStatus())

	r := conn.Exec(ctx, "SELECT 1")
	assert.Equal(t, libpq.FatalError, r.Status())
	conn.Finish()
}

func TestPgconnParseFailure(t *testing.T) {
	conn := libpq.PgconnDriver{}.Connect(context.Background(), "host=localhost port=notaport")
	assert.Equal(t, libpq.ConnectionBad, conn.Status())
	assert.Contains(t, conn.ErrorMessage(), "port")
	conn.Finish()
}

func TestParseSettings(t *testing.T) {
	settings, err := libpq.ParseSettings("host=db.example.com port=6543 user=alice password=secret dbname=app sslmode=disable application_name=pgbind")
	require.NoError(t, err)

	assert.Equal(t, "db.example.com", settings["host"])
	assert.Equal(t, "6543", settings["port"])
	assert.Equal(t, "alice", settings["user"])
	assert.Equal(t, "secret", settings["password"])
	assert.Equal(t, "app", settings["dbname"])
	assert.Equal(t, "disable", settings["sslmode"])
	assert.Equal(t, "pgbind", settings["application_name"])

	settings, err = libpq.ParseSettings("postgres://bob@localhost:5433/other?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "bob", settings["user"])
	assert.Equal(t, "5433", settings["port"])
	assert.Equal(t, "other", settings["dbname"])

	_, err = libpq.ParseSettings("port=abc")
	assert.Error(t, err)
}
