package pgbind

import (
	"fmt"
	"strconv"

	"github.com/pgbind/pgbind/libpq"
	"golang.org/x/text/encoding"
)

// Result is the result of an execution. It owns its native result handle until Close is called. Column oids, host
// types, not-null flags and conversion functions are resolved once when the Result is created.
//
// Column metadata and the command tag outlive Close. Row data and parameter descriptions do not: after Close,
// NumRows and NumParams report 0 and value access fails with ErrClosed.
//
// A Result is not safe for concurrent use.
type Result struct {
	native   *libpq.Result
	sql      string
	encoding encoding.Encoding
	resolver *resolver

	oids    []Oid
	names   []string
	types   []HostType
	notNull []bool
	funcs   []ConversionFunc

	commandTag string

	closed bool
}

func newResult(native *libpq.Result, sql string, rs *resolver, nn NotNull, enc encoding.Encoding) *Result {
	n := native.NFields()
	r := &Result{
		native:   native,
		sql:      sql,
		encoding: enc,
		resolver: rs,
		oids:     make([]Oid, n),
		names:    make([]string, n),
		types:    make([]HostType, n),
		notNull:  make([]bool, n),
		funcs:    make([]ConversionFunc, n),

		commandTag: native.CmdStatus(),
	}

	for col := 0; col < n; col++ {
		oid := Oid(native.FType(col))
		name := native.FName(col)
		t := rs.hostType(col, name, oid)

		r.oids[col] = oid
		r.names[col] = name
		r.types[col] = t
		r.notNull[col] = nn.has(col, name)
		r.funcs[col] = rs.conversion(oid, t)
	}

	return r
}

// Status returns the status of the native result.
func (r *Result) Status() libpq.ExecStatus {
	return r.native.Status()
}

// ErrorMessage returns the error message of a failed execution or "".
func (r *Result) ErrorMessage() string {
	return r.native.ErrorMessage()
}

// IsOpen reports whether Close has not been called.
func (r *Result) IsOpen() bool {
	return !r.closed
}

// Close releases the native result. Values and views obtained from r must not be used afterwards. Close is
// idempotent.
func (r *Result) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.native.Clear()
}

func (r *Result) NumRows() int {
	if r.closed {
		return 0
	}
	return r.native.NTuples()
}

func (r *Result) NumColumns() int {
	return len(r.oids)
}

// NumAffectedRows returns the row count reported in the command tag, or 0 for commands that do not report one.
func (r *Result) NumAffectedRows() int64 {
	n, err := strconv.ParseInt(libpq.CommandTagRows(r.commandTag), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// CommandTag returns the command tag of the command that produced r, e.g. "INSERT 0 1".
func (r *Result) CommandTag() string {
	return r.commandTag
}

// NumParams returns the number of parameters of the prepared statement r describes.
func (r *Result) NumParams() int {
	if r.closed {
		return 0
	}
	return r.native.NParams()
}

// ColumnName returns the name of column col, or "" if col is out of range.
func (r *Result) ColumnName(col int) string {
	if col < 0 || col >= len(r.names) {
		return ""
	}
	return r.names[col]
}

func (r *Result) ColumnNames() []string {
	return append([]string(nil), r.names...)
}

// ColumnIndex returns the 0-based index of the column named name, or -1.
func (r *Result) ColumnIndex(name string) int {
	for i, n := range r.names {
		if n == name {
			return i
		}
	}
	return -1
}

func (r *Result) ColumnOids() []Oid {
	return append([]Oid(nil), r.oids...)
}

// ColumnTypes returns the resolved host type of every column.
func (r *Result) ColumnTypes() []HostType {
	return append([]HostType(nil), r.types...)
}

// NotNull reports whether column col was asserted not null.
func (r *Result) NotNull(col int) bool {
	return col >= 0 && col < len(r.notNull) && r.notNull[col]
}

func (r *Result) check(op string, row, col int) error {
	if r.closed {
		return &UseAfterCloseError{Object: "result", Op: op}
	}
	if n := r.native.NTuples(); row < 0 || row >= n {
		return &IndexError{What: "row", Index: row, Len: n}
	}
	if col < 0 || col >= len(r.oids) {
		return &IndexError{What: "column", Index: col, Len: len(r.oids)}
	}
	return nil
}

// Value returns a view of the cell at row and col.
func (r *Result) Value(row, col int) (Value, error) {
	if err := r.check("Value", row, col); err != nil {
		return Value{}, err
	}
	return Value{r: r, row: row, col: col, oid: r.oids[col]}, nil
}

// IsNull reports whether the cell at row and col is NULL.
func (r *Result) IsNull(row, col int) (bool, error) {
	if err := r.check("IsNull", row, col); err != nil {
		return false, err
	}
	return r.native.GetIsNull(row, col), nil
}

// Get converts the cell at row and col with the column's conversion function. A NULL cell is returned as nil unless
// the column was asserted not null, in which case a *NullAssertionError is returned.
func (r *Result) Get(row, col int) (any, error) {
	v, err := r.Value(row, col)
	if err != nil {
		return nil, err
	}
	return r.convert(v, r.types[col], r.funcs[col])
}

func (r *Result) convert(v Value, t HostType, fn ConversionFunc) (any, error) {
	if v.IsNull() {
		if r.notNull[v.col] {
			return nil, &NullAssertionError{Row: v.row, Column: v.col, Name: r.names[v.col]}
		}
		return nil, nil
	}

	x, err := fn(v)
	if err != nil {
		return nil, newConversionError(v, t, err)
	}
	return x, nil
}

// Row converts every cell of row.
func (r *Result) Row(row int) ([]any, error) {
	values := make([]any, len(r.oids))
	for col := range values {
		x, err := r.Get(row, col)
		if err != nil {
			return nil, err
		}
		values[col] = x
	}
	return values, nil
}

// GetAs converts the cell at row and col to T. When T is the column's resolved host type the column's conversion
// function is used; otherwise the conversion for the column's oid and T is resolved through the same maps. A NULL
// cell yields the zero value of T unless the column was asserted not null.
func GetAs[T any](r *Result, row, col int) (T, error) {
	var zero T

	v, err := r.Value(row, col)
	if err != nil {
		return zero, err
	}

	t := TypeFor[T]()
	fn := r.funcs[col]
	if t != r.types[col] {
		fn = r.resolver.conversion(v.oid, t)
	}

	x, err := r.convert(v, t, fn)
	if err != nil || x == nil {
		return zero, err
	}

	typed, ok := x.(T)
	if !ok {
		return zero, newConversionError(v, t, fmt.Errorf("conversion returned %T", x))
	}
	return typed, nil
}

func (r *Result) String() string {
	if r.closed {
		return "PostgreSQL result (closed)"
	}
	return fmt.Sprintf("PostgreSQL result (%s): %d rows, %d columns", r.Status(), r.NumRows(), r.NumColumns())
}
