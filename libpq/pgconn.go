package libpq

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PgconnDriver opens connections with github.com/jackc/pgx/v5/pgconn.
type PgconnDriver struct{}

// Connect parses conninfo with pgconn.ParseConfig, which accepts key/value and URI connection strings and falls
// back to the PG* environment variables, the password file and the service file for unset keys.
func (PgconnDriver) Connect(ctx context.Context, conninfo string) Conn {
	c := &pgconnConn{described: make(map[string]*pgconn.StatementDescription)}

	config, err := pgconn.ParseConfig(conninfo)
	if err != nil {
		c.fail(err)
		return c
	}
	c.config = config
	c.connect(ctx)

	return c
}

// ParseSettings parses a connection string into libpq keyword values, resolving defaults and environment
// variables the same way Connect does.
func ParseSettings(conninfo string) (map[string]string, error) {
	config, err := pgconn.ParseConfig(conninfo)
	if err != nil {
		return nil, err
	}
	return configSettings(config), nil
}

type pgconnConn struct {
	config    *pgconn.Config
	pgConn    *pgconn.PgConn
	errMsg    string
	finished  bool
	described map[string]*pgconn.StatementDescription
}

func (c *pgconnConn) fail(err error) {
	c.errMsg = err.Error() + "\n"
}

func (c *pgconnConn) connect(ctx context.Context) {
	pgConn, err := pgconn.ConnectConfig(ctx, c.config)
	if err != nil {
		c.pgConn = nil
		c.fail(err)
		return
	}
	c.pgConn = pgConn
	c.errMsg = ""
}

func (c *pgconnConn) Status() ConnStatus {
	if c.pgConn == nil || c.pgConn.IsClosed() {
		return ConnectionBad
	}
	return ConnectionOK
}

func (c *pgconnConn) ErrorMessage() string {
	return c.errMsg
}

func (c *pgconnConn) noConnection() *Result {
	msg := "no connection to the server\n"
	c.errMsg = msg
	return NewErrorResult(FatalError, msg)
}

func (c *pgconnConn) errorResult(err error) *Result {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		r := newPgErrorResult(pgErr)
		c.errMsg = r.ErrorMessage()
		return r
	}

	c.fail(err)
	if c.pgConn.IsClosed() {
		return NewErrorResult(FatalError, c.errMsg)
	}
	return NewErrorResult(BadResponse, c.errMsg)
}

func convertFields(fds []pgconn.FieldDescription) []FieldDescription {
	fields := make([]FieldDescription, len(fds))
	for i, fd := range fds {
		fields[i] = FieldDescription{
			Name:                 fd.Name,
			TableOID:             fd.TableOID,
			TableAttributeNumber: fd.TableAttributeNumber,
			DataTypeOID:          fd.DataTypeOID,
			DataTypeSize:         fd.DataTypeSize,
			TypeModifier:         fd.TypeModifier,
			Format:               fd.Format,
		}
	}
	return fields
}

// readResult drains rr. The field descriptions are taken from the reader rather than from pgconn.Result so that a
// row description without any data rows still yields its columns.
func readResult(rr *pgconn.ResultReader) (*Result, error) {
	var rows [][][]byte
	for rr.NextRow() {
		values := rr.Values()
		row := make([][]byte, len(values))
		for i, v := range values {
			if v != nil {
				row[i] = append(make([]byte, 0, len(v)), v...)
			}
		}
		rows = append(rows, row)
	}
	fields := convertFields(rr.FieldDescriptions())

	tag, err := rr.Close()
	if err != nil {
		return nil, err
	}

	commandTag := tag.String()
	status := CommandOK
	switch {
	case len(fields) > 0:
		status = TuplesOK
	case commandTag == "":
		status = EmptyQuery
	}

	return NewResult(status, fields, rows, commandTag), nil
}

func paramValues(params []*string) [][]byte {
	if len(params) == 0 {
		return nil
	}
	values := make([][]byte, len(params))
	for i, p := range params {
		if p != nil {
			values[i] = []byte(*p)
		}
	}
	return values
}

func (c *pgconnConn) Exec(ctx context.Context, query string) *Result {
	if c.pgConn == nil {
		return c.noConnection()
	}

	mrr := c.pgConn.Exec(ctx, query)
	var (
		last     *Result
		firstErr error
	)
	for mrr.NextResult() {
		r, err := readResult(mrr.ResultReader())
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		last = r
	}
	if err := mrr.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return c.errorResult(firstErr)
	}

	c.errMsg = ""
	if last == nil {
		return NewResult(EmptyQuery, nil, nil, "")
	}
	return last
}

func (c *pgconnConn) ExecParams(ctx context.Context, query string, params []*string) *Result {
	if c.pgConn == nil {
		return c.noConnection()
	}

	r, err := readResult(c.pgConn.ExecParams(ctx, query, paramValues(params), nil, nil, nil))
	if err != nil {
		return c.errorResult(err)
	}
	c.errMsg = ""
	return r
}

func (c *pgconnConn) Prepare(ctx context.Context, name, query string) *Result {
	if c.pgConn == nil {
		return c.noConnection()
	}

	sd, err := c.pgConn.Prepare(ctx, name, query, nil)
	if err != nil {
		return c.errorResult(err)
	}
	c.described[name] = sd
	c.errMsg = ""
	return NewResult(CommandOK, nil, nil, "")
}

func (c *pgconnConn) DescribePrepared(ctx context.Context, name string) *Result {
	if c.pgConn == nil {
		return c.noConnection()
	}

	sd, ok := c.described[name]
	if !ok {
		return newPgErrorResult(&pgconn.PgError{
			Severity: "ERROR",
			Code:     "26000",
			Message:  "prepared statement \"" + name + "\" does not exist",
		})
	}

	return NewDescribeResult(convertFields(sd.Fields), append([]uint32(nil), sd.ParamOIDs...))
}

func (c *pgconnConn) ExecPrepared(ctx context.Context, name string, params []*string) *Result {
	if c.pgConn == nil {
		return c.noConnection()
	}

	r, err := readResult(c.pgConn.ExecPrepared(ctx, name, paramValues(params), nil, nil))
	if err != nil {
		return c.errorResult(err)
	}
	c.errMsg = ""
	return r
}

func (c *pgconnConn) Reset(ctx context.Context) {
	if c.pgConn != nil {
		closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		c.pgConn.Close(closeCtx)
		cancel()
		c.pgConn = nil
	}
	c.described = make(map[string]*pgconn.StatementDescription)

	if c.config == nil {
		return
	}
	c.connect(ctx)
}

func (c *pgconnConn) Finish() {
	if c.finished {
		return
	}
	c.finished = true

	if c.pgConn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		c.pgConn.Close(ctx)
		cancel()
		c.pgConn = nil
	}
	c.described = nil
}

func (c *pgconnConn) ServerVersion() int {
	return ServerVersionNumber(c.ParameterStatus("server_version"))
}

func (c *pgconnConn) ParameterStatus(name string) string {
	if c.pgConn == nil {
		return ""
	}
	return c.pgConn.ParameterStatus(name)
}

func (c *pgconnConn) TransactionStatus() TransactionStatus {
	if c.pgConn == nil || c.pgConn.IsClosed() {
		return TransactionUnknown
	}
	if c.pgConn.IsBusy() {
		return TransactionActive
	}
	return TransactionStatusFromByte(c.pgConn.TxStatus())
}

func (c *pgconnConn) SetClientEncoding(ctx context.Context, encoding string) error {
	if c.pgConn == nil {
		return errors.New("no connection to the server")
	}
	if strings.EqualFold(c.ClientEncoding(), encoding) {
		return nil
	}

	r := c.Exec(ctx, "SET client_encoding TO "+pq.QuoteLiteral(encoding))
	if r.Status().IsError() {
		return errors.New(strings.TrimSpace(r.ErrorMessage()))
	}
	return nil
}

func (c *pgconnConn) ClientEncoding() string {
	return c.ParameterStatus("client_encoding")
}

func (c *pgconnConn) Settings() map[string]string {
	if c.config == nil {
		return map[string]string{}
	}
	return configSettings(c.config)
}

func configSettings(config *pgconn.Config) map[string]string {
	settings := map[string]string{
		"host":   config.Host,
		"port":   strconv.Itoa(int(config.Port)),
		"dbname": config.Database,
		"user":   config.User,
	}
	if config.Password != "" {
		settings["password"] = config.Password
	}
	if config.ConnectTimeout > 0 {
		settings["connect_timeout"] = strconv.Itoa(int(config.ConnectTimeout / time.Second))
	}
	settings["sslmode"] = sslMode(config)

	for k, v := range config.RuntimeParams {
		settings[k] = v
	}

	return settings
}

// sslMode recovers an approximation of sslmode from the TLS configurations pgconn derived from it.
func sslMode(config *pgconn.Config) string {
	if config.TLSConfig == nil {
		for _, fb := range config.Fallbacks {
			if fb.TLSConfig != nil {
				return "allow"
			}
		}
		return "disable"
	}
	for _, fb := range config.Fallbacks {
		if fb.TLSConfig == nil {
			return "prefer"
		}
	}
	return "require"
}
