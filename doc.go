// Package pgbind is a PostgreSQL client binding that converts text protocol results into Go values.
/*
pgbind executes queries through a native client connection (package libpq) and resolves, once per result, the Go
type and conversion function of every column. Values are then extracted from the result's own buffer.

Establishing a Connection

	conn, err := pgbind.Connect(context.Background(), os.Getenv("DATABASE_URL"))
	if err != nil {
		return err
	}
	defer conn.Close()

Connection strings may be in key/value form ("host=localhost dbname=app") or URI form
("postgres://localhost/app"). Unset keys fall back to the PG* environment variables. The client encoding is set to
UTF8 on every new connection.

Executing Queries

	result, err := conn.Execute(ctx, "SELECT $1 = ANY($2)", []any{"13", "{12,13,14,15}"})
	if err != nil {
		return err
	}
	defer result.Close()

	found, err := pgbind.GetAs[bool](result, 0, 0)

Parameters are always sent as text. nil is sent as NULL.

Type Resolution

The host type of a column is the first hit of, in order: a WithColumnTypes override (by 1-based position, then by
name), the query TypeMap (WithTypeMap), the connection TypeMap (Config.TypeMap), the library Registry, the built-in
defaults, and finally string. The conversion function for the column's oid and host type is resolved in the same
order (WithConversions, Config.Conversions, Registry, built-in) and falls back to ParseText.

Each Result is independent of its Connection once created. Results and Connections are released with Close, which is
idempotent.

Null Values

Get returns nil for NULL cells. Columns asserted not null with WithNotNull return a *NullAssertionError instead when a
NULL is encountered.
*/
package pgbind
