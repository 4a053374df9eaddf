package pgbind

import (
	"context"
	"time"

	"github.com/pgbind/pgbind/libpq"
)

// Execute executes sql on the server and returns its result. Without params the simple query protocol is used and
// sql may hold several statements, of which the last result is returned. With params (even an empty slice) sql must
// be a single statement; params are converted by StringParameters and sent as text, referenced as $1, $2, etc.
//
// When the execution fails and throw errors is in effect, the native result is released and a *QueryError returned.
// Otherwise a Result with the error status is returned.
func (c *Connection) Execute(ctx context.Context, sql string, params []any, opts ...QueryOption) (*Result, error) {
	if c.closed {
		return nil, &UseAfterCloseError{Object: "connection", Op: "Execute"}
	}

	startTime := time.Now()
	o := c.queryOptions(opts)

	if params == nil {
		native := c.native.Exec(ctx, sql)
		return c.handleResult(ctx, "Execute", sql, nil, native, o, startTime)
	}

	textParams, err := c.textParameters(params)
	if err != nil {
		return nil, err
	}
	native := c.native.ExecParams(ctx, sql, textParams)
	return c.handleResult(ctx, "Execute", sql, params, native, o, startTime)
}

func (c *Connection) textParameters(params []any) ([]*string, error) {
	textParams, err := StringParameters(params)
	if err != nil {
		return nil, err
	}
	if c.encoding == nil {
		return textParams, nil
	}

	for i, p := range textParams {
		if p == nil {
			continue
		}
		s, err := encodeText(c.encoding, *p)
		if err != nil {
			return nil, &ParameterError{Index: i, Err: err}
		}
		textParams[i] = &s
	}
	return textParams, nil
}

func (c *Connection) handleResult(ctx context.Context, op, sql string, args []any, native *libpq.Result, o *queryOptions, startTime time.Time) (*Result, error) {
	status := native.Status()

	if status.IsError() {
		if o.throwError {
			err := newQueryError(native, sql)
			native.Clear()
			if c.shouldLog(LogLevelError) {
				c.log(ctx, LogLevelError, op, map[string]any{"sql": sql, "args": logQueryArgs(args), "err": err, "time": time.Since(startTime)})
			}
			return nil, err
		}
		if c.shouldLog(LogLevelWarn) {
			c.log(ctx, LogLevelWarn, op, map[string]any{"sql": sql, "args": logQueryArgs(args), "status": status.String(), "err": native.ErrorMessage(), "time": time.Since(startTime)})
		}
	}

	r := newResult(native, sql, newResolver(o, c), o.notNull, c.encoding)

	if !status.IsError() && c.shouldLog(LogLevelInfo) {
		c.log(ctx, LogLevelInfo, op, map[string]any{
			"sql":        sql,
			"args":       logQueryArgs(args),
			"status":     status.String(),
			"commandTag": native.CmdStatus(),
			"time":       time.Since(startTime),
		})
	}

	return r, nil
}
