// Package libpqtest provides in-memory libpq connections for tests.
package libpqtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pgbind/pgbind/libpq"
)

// Column describes a result column of a scripted response.
type Column struct {
	Name string
	OID  uint32
}

// Rows builds a TuplesOK result. Each value is a string or nil for NULL.
func Rows(columns []Column, rows ...[]any) *libpq.Result {
	fields := make([]libpq.FieldDescription, len(columns))
	for i, c := range columns {
		fields[i] = libpq.FieldDescription{Name: c.Name, DataTypeOID: c.OID, DataTypeSize: -1, TypeModifier: -1}
	}

	data := make([][][]byte, len(rows))
	for i, row := range rows {
		data[i] = make([][]byte, len(row))
		for j, v := range row {
			switch v := v.(type) {
			case nil:
			case string:
				data[i][j] = []byte(v)
			case []byte:
				data[i][j] = v
			default:
				data[i][j] = []byte(fmt.Sprint(v))
			}
		}
	}

	return libpq.NewResult(libpq.TuplesOK, fields, data, fmt.Sprintf("SELECT %d", len(rows)))
}

// Command builds a CommandOK result carrying commandTag.
func Command(commandTag string) *libpq.Result {
	return libpq.NewResult(libpq.CommandOK, nil, nil, commandTag)
}

// Error builds a FatalError result.
func Error(msg string) *libpq.Result {
	return libpq.NewErrorResult(libpq.FatalError, "ERROR:  "+msg+"\n")
}

// Handler answers one execution. params is nil for simple protocol executions.
type Handler func(query string, params []*string) *libpq.Result

// Call records one execution seen by a Conn.
type Call struct {
	Query  string
	Params []*string
	// Prepared is the statement name for ExecPrepared calls.
	Prepared string
}

// Conn is a scriptable libpq.Conn.
type Conn struct {
	Handler       Handler
	Bad           bool
	ErrMsg        string
	Encoding      string
	ServerVer     string
	TxStatus      libpq.TransactionStatus
	Conninfo      map[string]string
	FailEncodings map[string]bool

	Calls       []Call
	Prepared    map[string]string
	FinishCalls int
	ResetCalls  int

	// ResetBad makes the next Reset leave the connection bad.
	ResetBad bool
}

// NewConn returns a healthy connection answering with h.
func NewConn(h Handler) *Conn {
	return &Conn{
		Handler:   h,
		Encoding:  "SQL_ASCII",
		ServerVer: "16.2",
		Conninfo:  map[string]string{},
		Prepared:  map[string]string{},
	}
}

func (c *Conn) Status() libpq.ConnStatus {
	if c.Bad || c.FinishCalls > 0 {
		return libpq.ConnectionBad
	}
	return libpq.ConnectionOK
}

func (c *Conn) ErrorMessage() string {
	return c.ErrMsg
}

func (c *Conn) checkUsable() {
	if c.FinishCalls > 0 {
		panic("libpqtest: use of finished connection")
	}
}

func (c *Conn) answer(query string, params []*string) *libpq.Result {
	if c.Bad {
		c.ErrMsg = "no connection to the server\n"
		return libpq.NewErrorResult(libpq.FatalError, c.ErrMsg)
	}
	if c.Handler == nil {
		return Command("SELECT 0")
	}

	r := c.Handler(query, params)
	if r == nil {
		return libpq.NewResult(libpq.EmptyQuery, nil, nil, "")
	}
	c.ErrMsg = r.ErrorMessage()
	return r
}

func (c *Conn) Exec(ctx context.Context, query string) *libpq.Result {
	c.checkUsable()
	c.Calls = append(c.Calls, Call{Query: query})

	if name, ok := strings.CutPrefix(query, "SET client_encoding TO "); ok {
		enc := strings.Trim(name, "'")
		if c.FailEncodings[strings.ToUpper(enc)] {
			c.ErrMsg = fmt.Sprintf("ERROR:  invalid value for parameter \"client_encoding\": \"%s\"\n", enc)
			return libpq.NewErrorResult(libpq.FatalError, c.ErrMsg)
		}
		c.Encoding = strings.ToUpper(enc)
		return Command("SET")
	}

	return c.answer(query, nil)
}

func (c *Conn) ExecParams(ctx context.Context, query string, params []*string) *libpq.Result {
	c.checkUsable()
	c.Calls = append(c.Calls, Call{Query: query, Params: params})
	if params == nil {
		params = []*string{}
	}
	return c.answer(query, params)
}

func (c *Conn) Prepare(ctx context.Context, name, query string) *libpq.Result {
	c.checkUsable()
	if c.Bad {
		return c.answer(query, nil)
	}
	c.Prepared[name] = query
	return Command("")
}

func (c *Conn) DescribePrepared(ctx context.Context, name string) *libpq.Result {
	c.checkUsable()
	query, ok := c.Prepared[name]
	if !ok {
		return Error(fmt.Sprintf("prepared statement \"%s\" does not exist", name))
	}

	r := c.answer(query, nil)
	if r.Status().IsError() {
		return r
	}
	defer r.Clear()

	fields := make([]libpq.FieldDescription, r.NFields())
	for i := range fields {
		fields[i] = r.Field(i)
	}
	return libpq.NewDescribeResult(fields, make([]uint32, countParams(query)))
}

func countParams(query string) int {
	n := 0
	for i := 1; strings.Contains(query, fmt.Sprintf("$%d", i)); i++ {
		n = i
	}
	return n
}

func (c *Conn) ExecPrepared(ctx context.Context, name string, params []*string) *libpq.Result {
	c.checkUsable()
	c.Calls = append(c.Calls, Call{Query: c.Prepared[name], Params: params, Prepared: name})
	if _, ok := c.Prepared[name]; !ok {
		return Error(fmt.Sprintf("prepared statement \"%s\" does not exist", name))
	}
	if params == nil {
		params = []*string{}
	}
	return c.answer(c.Prepared[name], params)
}

func (c *Conn) Reset(ctx context.Context) {
	c.checkUsable()
	c.ResetCalls++
	c.Prepared = map[string]string{}
	c.Encoding = "SQL_ASCII"
	c.Bad = c.ResetBad
	if c.Bad {
		c.ErrMsg = "could not connect to server\n"
	} else {
		c.ErrMsg = ""
	}
}

func (c *Conn) Finish() {
	c.FinishCalls++
}

func (c *Conn) ServerVersion() int {
	return libpq.ServerVersionNumber(c.ServerVer)
}

func (c *Conn) ParameterStatus(name string) string {
	switch name {
	case "server_version":
		return c.ServerVer
	case "client_encoding":
		return c.Encoding
	}
	return ""
}

func (c *Conn) TransactionStatus() libpq.TransactionStatus {
	if c.Status() == libpq.ConnectionBad {
		return libpq.TransactionUnknown
	}
	return c.TxStatus
}

func (c *Conn) SetClientEncoding(ctx context.Context, encoding string) error {
	r := c.Exec(ctx, "SET client_encoding TO '"+encoding+"'")
	if r.Status().IsError() {
		return fmt.Errorf("%s", strings.TrimSpace(r.ErrorMessage()))
	}
	return nil
}

func (c *Conn) ClientEncoding() string {
	return c.Encoding
}

func (c *Conn) Settings() map[string]string {
	c.checkUsable()
	return c.Conninfo
}

// Driver hands out Conns. It is safe for concurrent use.
type Driver struct {
	// Handler answers executions on every Conn the driver creates.
	Handler Handler
	// Bad makes every new Conn start in the bad state.
	Bad bool
	// FailFirst makes the first FailFirst Conns start in the bad state.
	FailFirst int

	mu    sync.Mutex
	conns []*Conn
}

func (d *Driver) Connect(ctx context.Context, conninfo string) libpq.Conn {
	c := NewConn(d.Handler)
	for _, kv := range strings.Fields(conninfo) {
		if k, v, ok := strings.Cut(kv, "="); ok {
			c.Conninfo[k] = v
		}
	}

	d.mu.Lock()
	if d.Bad || len(d.conns) < d.FailFirst {
		c.Bad = true
		c.ErrMsg = "could not connect to server: Connection refused\n"
	}
	d.conns = append(d.conns, c)
	d.mu.Unlock()

	return c
}

// Conns returns every Conn created so far.
func (d *Driver) Conns() []*Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Conn(nil), d.conns...)
}
