package libpq

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// FieldDescription describes one column of a result.
type FieldDescription struct {
	Name                 string
	TableOID             uint32
	TableAttributeNumber uint16
	DataTypeOID          uint32
	DataTypeSize         int16
	TypeModifier         int32
	Format               int16
}

type cell struct {
	off int
	n   int // -1 for NULL
}

// Result is a result handle. It owns the bytes of every cell until Clear is called.
type Result struct {
	status       ExecStatus
	errorMessage string
	pgErr        *pgconn.PgError
	fields       []FieldDescription
	paramOIDs    []uint32
	commandTag   string
	nTuples      int

	buf   []byte
	cells []cell

	cleared bool
}

// NewResult builds a result handle from row data. rows[i][j] is the text of row i column j or nil for NULL. The
// bytes are copied into the handle's own buffer.
func NewResult(status ExecStatus, fields []FieldDescription, rows [][][]byte, commandTag string) *Result {
	r := &Result{
		status:     status,
		fields:     fields,
		commandTag: commandTag,
		nTuples:    len(rows),
	}

	size := 0
	for _, row := range rows {
		for _, v := range row {
			size += len(v) + 1
		}
	}

	r.buf = make([]byte, 0, size)
	r.cells = make([]cell, 0, len(rows)*len(fields))
	for _, row := range rows {
		for j := range fields {
			var v []byte
			if j < len(row) {
				v = row[j]
			}
			if v == nil {
				r.cells = append(r.cells, cell{off: len(r.buf), n: -1})
				continue
			}
			r.cells = append(r.cells, cell{off: len(r.buf), n: len(v)})
			r.buf = append(r.buf, v...)
			r.buf = append(r.buf, 0)
		}
	}

	return r
}

// NewErrorResult builds a result handle for a failed execution. msg should end with a newline like libpq messages.
func NewErrorResult(status ExecStatus, msg string) *Result {
	return &Result{status: status, errorMessage: msg}
}

// NewDescribeResult builds the result of describing a prepared statement.
func NewDescribeResult(fields []FieldDescription, paramOIDs []uint32) *Result {
	r := NewResult(CommandOK, fields, nil, "")
	r.paramOIDs = paramOIDs
	return r
}

func newPgErrorResult(pgErr *pgconn.PgError) *Result {
	r := NewErrorResult(FatalError, FormatPgError(pgErr))
	r.pgErr = pgErr
	return r
}

// FormatPgError renders a server error the way libpq renders PQresultErrorMessage.
func FormatPgError(pgErr *pgconn.PgError) string {
	sb := &strings.Builder{}
	sb.WriteString(pgErr.Severity)
	sb.WriteString(":  ")
	sb.WriteString(pgErr.Message)
	sb.WriteByte('\n')
	if pgErr.Detail != "" {
		sb.WriteString("DETAIL:  ")
		sb.WriteString(pgErr.Detail)
		sb.WriteByte('\n')
	}
	if pgErr.Hint != "" {
		sb.WriteString("HINT:  ")
		sb.WriteString(pgErr.Hint)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (r *Result) Status() ExecStatus {
	return r.status
}

// ErrorMessage returns the error message of the result or "" when there was no error.
func (r *Result) ErrorMessage() string {
	return r.errorMessage
}

// PgError returns the server error behind a FatalError result, if the server sent one.
func (r *Result) PgError() *pgconn.PgError {
	return r.pgErr
}

// Cleared reports whether Clear has been called.
func (r *Result) Cleared() bool {
	return r.cleared
}

// Clear releases the cell buffer. It is safe to call more than once.
func (r *Result) Clear() {
	if r.cleared {
		return
	}
	r.cleared = true
	r.buf = nil
	r.cells = nil
	r.fields = nil
	r.paramOIDs = nil
	r.nTuples = 0
}

// NTuples returns the number of rows.
func (r *Result) NTuples() int {
	return r.nTuples
}

// NFields returns the number of columns.
func (r *Result) NFields() int {
	return len(r.fields)
}

// NParams returns the number of parameters of a described prepared statement.
func (r *Result) NParams() int {
	return len(r.paramOIDs)
}

// ParamType returns the type oid of parameter i.
func (r *Result) ParamType(i int) uint32 {
	if i < 0 || i >= len(r.paramOIDs) {
		return 0
	}
	return r.paramOIDs[i]
}

// Field returns the description of column i.
func (r *Result) Field(i int) FieldDescription {
	return r.fields[i]
}

// FName returns the name of column i or "" when i is out of range.
func (r *Result) FName(i int) string {
	if i < 0 || i >= len(r.fields) {
		return ""
	}
	return r.fields[i].Name
}

// FNumber returns the index of the column named name or -1.
func (r *Result) FNumber(name string) int {
	for i := range r.fields {
		if r.fields[i].Name == name {
			return i
		}
	}
	return -1
}

// FType returns the type oid of column i or 0 when i is out of range.
func (r *Result) FType(i int) uint32 {
	if i < 0 || i >= len(r.fields) {
		return 0
	}
	return r.fields[i].DataTypeOID
}

func (r *Result) cell(row, col int) (cell, bool) {
	if row < 0 || row >= r.nTuples || col < 0 || col >= len(r.fields) || r.cleared {
		return cell{}, false
	}
	return r.cells[row*len(r.fields)+col], true
}

// GetValue returns the bytes of one cell, not including the trailing zero byte. The slice aliases the handle's
// buffer. It returns nil for NULL cells and for out of range indexes.
func (r *Result) GetValue(row, col int) []byte {
	c, ok := r.cell(row, col)
	if !ok || c.n < 0 {
		return nil
	}
	return r.buf[c.off : c.off+c.n : c.off+c.n]
}

// GetValueTerminated returns the bytes of one cell including the trailing zero byte.
func (r *Result) GetValueTerminated(row, col int) []byte {
	c, ok := r.cell(row, col)
	if !ok || c.n < 0 {
		return nil
	}
	return r.buf[c.off : c.off+c.n+1 : c.off+c.n+1]
}

// GetIsNull reports whether a cell is NULL.
func (r *Result) GetIsNull(row, col int) bool {
	c, ok := r.cell(row, col)
	return ok && c.n < 0
}

// GetLength returns the byte length of a cell. NULL cells have length 0.
func (r *Result) GetLength(row, col int) int {
	c, ok := r.cell(row, col)
	if !ok || c.n < 0 {
		return 0
	}
	return c.n
}

// CmdStatus returns the command tag of the command that produced the result.
func (r *Result) CmdStatus() string {
	return r.commandTag
}

// CmdTuples returns the number of rows affected by the command as a string, or "" when the command does not report a
// row count.
func (r *Result) CmdTuples() string {
	return CommandTagRows(r.commandTag)
}

// CommandTagRows extracts the row count from a command tag such as "INSERT 0 3" or "SELECT 5". It returns "" when
// the command does not report one.
func CommandTagRows(commandTag string) string {
	fields := strings.Fields(commandTag)
	if len(fields) < 2 {
		return ""
	}

	switch fields[0] {
	case "INSERT":
		if len(fields) != 3 {
			return ""
		}
	case "UPDATE", "DELETE", "SELECT", "MOVE", "FETCH", "COPY", "MERGE":
	default:
		return ""
	}

	n := fields[len(fields)-1]
	for i := 0; i < len(n); i++ {
		if n[i] < '0' || n[i] > '9' {
			return ""
		}
	}
	return n
}
