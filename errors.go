package pgbind

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgbind/pgbind/libpq"
)

// ErrClosed is matched by errors.Is for every UseAfterCloseError.
var ErrClosed = errors.New("use after close")

// ConnectionError occurs when a connection cannot be established or reset.
type ConnectionError struct {
	// Message is the error message of the native connection, without the trailing newline.
	Message string
	Status  libpq.ConnStatus
}

func (e *ConnectionError) Error() string {
	return "pgbind: connection failed: " + e.Message
}

// QueryError occurs when a query fails on the server or its response cannot be read.
type QueryError struct {
	Status  libpq.ExecStatus
	Message string
	SQL     string
	pgErr   *pgconn.PgError
}

func (e *QueryError) Error() string {
	return "pgbind: " + e.Status.String() + ": " + e.Message
}

// Unwrap returns the *pgconn.PgError sent by the server, if any.
func (e *QueryError) Unwrap() error {
	if e.pgErr == nil {
		return nil
	}
	return e.pgErr
}

// SQLState returns the SQLSTATE of the server error or "" when the server did not send one.
func (e *QueryError) SQLState() string {
	if e.pgErr == nil {
		return ""
	}
	return e.pgErr.Code
}

func newQueryError(r *libpq.Result, sql string) *QueryError {
	return &QueryError{
		Status:  r.Status(),
		Message: strings.TrimRight(r.ErrorMessage(), "\n"),
		SQL:     sql,
		pgErr:   r.PgError(),
	}
}

// UnknownTypeError occurs when a type name or oid cannot be resolved.
type UnknownTypeError struct {
	Key any
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("pgbind: unknown PostgreSQL type %#v", e.Key)
}

// ConversionError occurs when the text of a value cannot be converted to the requested host type.
type ConversionError struct {
	// Raw is a copy of the value's bytes.
	Raw    []byte
	Oid    Oid
	Target HostType
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("pgbind: cannot convert %q (%s) to %s: %v", e.Raw, oidLabel(e.Oid), e.Target, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func newConversionError(v Value, target HostType, err error) *ConversionError {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce
	}

	// strconv errors hold the input string, which may alias the result buffer.
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		err = numErr.Err
	}

	return &ConversionError{Raw: v.Bytes(), Oid: v.Oid(), Target: target, Err: err}
}

// NullAssertionError occurs when a value is NULL in a column asserted to be not null.
type NullAssertionError struct {
	Row    int
	Column int
	Name   string
}

func (e *NullAssertionError) Error() string {
	return fmt.Sprintf("pgbind: NULL in column %d (%q) row %d asserted not null", e.Column, e.Name, e.Row)
}

// IndexError occurs when a row or column index is out of range.
type IndexError struct {
	What  string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("pgbind: %s index %d out of range [0, %d)", e.What, e.Index, e.Len)
}

// UseAfterCloseError occurs when an operation is attempted on a closed Connection, a closed Result or a Statement
// whose Connection was reset or closed.
type UseAfterCloseError struct {
	Object string
	Op     string
}

func (e *UseAfterCloseError) Error() string {
	return "pgbind: " + e.Op + " on closed " + e.Object
}

func (e *UseAfterCloseError) Is(target error) bool {
	return target == ErrClosed
}

// ParameterError occurs when a query parameter cannot be sent as text.
type ParameterError struct {
	Index int
	Err   error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("pgbind: parameter $%d: %v", e.Index+1, e.Err)
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}
