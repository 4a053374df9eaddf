package pgbind

import (
	"unsafe"
)

// Value is a view of one cell of a Result. It does not own the cell's bytes: the views it returns are only valid
// until the Result is closed, and a Value of a closed Result reports no data.
type Value struct {
	r   *Result
	row int
	col int
	oid Oid
}

// Oid returns the type oid of the cell's column.
func (v Value) Oid() Oid {
	return v.oid
}

func (v Value) Row() int {
	return v.row
}

func (v Value) Column() int {
	return v.col
}

// Valid reports whether the Result the value belongs to is still open.
func (v Value) Valid() bool {
	return v.r != nil && !v.r.closed
}

func (v Value) IsNull() bool {
	return v.Valid() && v.r.native.GetIsNull(v.row, v.col)
}

// Len returns the length of the cell in bytes.
func (v Value) Len() int {
	if !v.Valid() {
		return 0
	}
	return v.r.native.GetLength(v.row, v.col)
}

// DataPointer returns a pointer to the first byte of the cell. The cell is followed by a zero byte. It returns nil for
// NULL cells.
func (v Value) DataPointer() *byte {
	b := v.BytesView()
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}

// BytesView returns the cell's bytes followed by a terminating zero byte, aliasing the Result's buffer.
func (v Value) BytesView() []byte {
	if !v.Valid() {
		return nil
	}
	return v.r.native.GetValueTerminated(v.row, v.col)
}

// StringView returns the cell's bytes as a string that aliases the Result's buffer. The string must not be used
// after the Result is closed.
func (v Value) StringView() string {
	b := v.raw()
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// Bytes returns a copy of the cell's bytes.
func (v Value) Bytes() []byte {
	b := v.raw()
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}

// Text returns a copy of the cell decoded from the client encoding the Result was produced with.
func (v Value) Text() string {
	if !v.Valid() {
		return ""
	}
	return decodeText(v.r.encoding, v.raw())
}

func (v Value) String() string {
	if v.IsNull() {
		return "NULL"
	}
	return v.Text()
}

func (v Value) raw() []byte {
	if !v.Valid() {
		return nil
	}
	return v.r.native.GetValue(v.row, v.col)
}
