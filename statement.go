package pgbind

import (
	"context"
	"fmt"
	"time"

	"github.com/pgbind/pgbind/libpq"
)

// Statement is a named prepared statement of a Connection. It is valid until its Connection is reset or closed. No
// DEALLOCATE is sent; the statement lives until the server session ends.
type Statement struct {
	conn        *Connection
	name        string
	query       string
	description *Result
	resetGen    uint64
}

// Prepare creates a prepared statement for query with a name generated by UniqueID and describes its parameters and
// result columns.
func (c *Connection) Prepare(ctx context.Context, query string) (*Statement, error) {
	if c.closed {
		return nil, &UseAfterCloseError{Object: "connection", Op: "Prepare"}
	}

	startTime := time.Now()
	name := c.UniqueID("stmt")

	pr := c.native.Prepare(ctx, name, query)
	if pr.Status().IsError() {
		err := newQueryError(pr, query)
		pr.Clear()
		c.log(ctx, LogLevelError, "Prepare", map[string]any{"sql": query, "name": name, "err": err, "time": time.Since(startTime)})
		return nil, err
	}
	pr.Clear()

	dr := c.native.DescribePrepared(ctx, name)
	if dr.Status().IsError() {
		err := newQueryError(dr, query)
		dr.Clear()
		c.log(ctx, LogLevelError, "Prepare", map[string]any{"sql": query, "name": name, "err": err, "time": time.Since(startTime)})
		return nil, err
	}

	o := c.queryOptions(nil)
	s := &Statement{
		conn:        c,
		name:        name,
		query:       query,
		description: newResult(dr, query, newResolver(o, c), NotNull{}, c.encoding),
		resetGen:    c.resetGen,
	}

	if c.shouldLog(LogLevelInfo) {
		c.log(ctx, LogLevelInfo, "Prepare", map[string]any{"sql": query, "name": name, "time": time.Since(startTime)})
	}
	return s, nil
}

// PrepareCached is like Prepare but returns a previously prepared Statement for the same query while it is in the
// connection's statement cache. Evicted statements are not deallocated.
func (c *Connection) PrepareCached(ctx context.Context, query string) (*Statement, error) {
	if c.stmtCache == nil {
		return c.Prepare(ctx, query)
	}
	if c.closed {
		return nil, &UseAfterCloseError{Object: "connection", Op: "PrepareCached"}
	}

	if s, ok := c.stmtCache.Get(query); ok && s.valid() {
		return s, nil
	}

	s, err := c.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	c.stmtCache.Add(query, s)
	return s, nil
}

func (s *Statement) valid() bool {
	return !s.conn.closed && s.resetGen == s.conn.resetGen
}

// Execute executes the statement with params. params are converted by StringParameters; nil is the same as no
// parameters.
func (s *Statement) Execute(ctx context.Context, params []any, opts ...QueryOption) (*Result, error) {
	if !s.valid() {
		return nil, &UseAfterCloseError{Object: "statement", Op: "Execute"}
	}

	c := s.conn
	startTime := time.Now()
	o := c.queryOptions(opts)

	textParams, err := c.textParameters(params)
	if err != nil {
		return nil, err
	}
	native := c.native.ExecPrepared(ctx, s.name, textParams)
	return c.handleResult(ctx, "Execute", s.query, params, native, o, startTime)
}

func (s *Statement) Name() string {
	return s.name
}

func (s *Statement) Query() string {
	return s.query
}

// Description returns the result describing the statement's columns. It has no rows.
func (s *Statement) Description() *Result {
	return s.description
}

func (s *Statement) NumParams() int {
	return s.description.NumParams()
}

// ParamOids returns the type oids the server inferred for the parameters.
func (s *Statement) ParamOids() []Oid {
	oids := make([]Oid, s.description.NumParams())
	for i := range oids {
		oids[i] = Oid(s.description.native.ParamType(i))
	}
	return oids
}

func (s *Statement) NumColumns() int {
	return s.description.NumColumns()
}

func (s *Statement) ColumnName(col int) string {
	return s.description.ColumnName(col)
}

func (s *Statement) ColumnNames() []string {
	return s.description.ColumnNames()
}

func (s *Statement) ColumnIndex(name string) int {
	return s.description.ColumnIndex(name)
}

// Status returns the status of the description result.
func (s *Statement) Status() libpq.ExecStatus {
	return s.description.Status()
}

func (s *Statement) String() string {
	return fmt.Sprintf("PostgreSQL prepared statement %s: %s (%d parameters, %d columns)", s.name, s.query, s.NumParams(), s.NumColumns())
}
