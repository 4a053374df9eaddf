package pgbind

import "reflect"

// HostType identifies the Go type a database value is converted into. The zero HostType is invalid.
type HostType struct {
	t reflect.Type
}

// TypeFor returns the HostType of T.
func TypeFor[T any]() HostType {
	return HostType{t: reflect.TypeOf((*T)(nil)).Elem()}
}

// TypeOf returns the HostType of the dynamic type of v.
func TypeOf(v any) HostType {
	if v == nil {
		return HostType{}
	}
	return HostType{t: reflect.TypeOf(v)}
}

// Type returns the reflect.Type of t.
func (t HostType) Type() reflect.Type {
	return t.t
}

func (t HostType) IsValid() bool {
	return t.t != nil
}

func (t HostType) String() string {
	if t.t == nil {
		return "<invalid>"
	}
	return t.t.String()
}

// Char is the one byte internal "char" type.
type Char byte

func (c Char) String() string {
	return string([]byte{byte(c)})
}

// UnmarshalText parses the text of a "char" value. The empty string is the zero byte.
func (c *Char) UnmarshalText(text []byte) error {
	switch len(text) {
	case 0:
		*c = 0
	case 1:
		*c = Char(text[0])
	default:
		// Non-ASCII bytes are sent as a backslash octal escape.
		if len(text) == 4 && text[0] == '\\' {
			var n byte
			for _, d := range text[1:] {
				if d < '0' || d > '7' {
					return errInvalidChar
				}
				n = n*8 + d - '0'
			}
			*c = Char(n)
			return nil
		}
		return errInvalidChar
	}
	return nil
}
