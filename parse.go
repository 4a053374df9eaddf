package pgbind

import (
	"database/sql"
	"encoding"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5/pgtype"
)

var (
	errInvalidChar  = errors.New("invalid \"char\" value")
	errInvalidBool  = errors.New("invalid boolean")
	errInvalidBytea = errors.New("invalid bytea escape")
)

var pgtypeMaps = sync.Pool{
	New: func() any { return pgtype.NewMap() },
}

// scanText scans the text of v into dst with a pgtype.Map.
func scanText(v Value, dst any) error {
	m := pgtypeMaps.Get().(*pgtype.Map)
	defer pgtypeMaps.Put(m)
	return m.Scan(uint32(v.Oid()), pgtype.TextFormatCode, v.Bytes(), dst)
}

// ParseText converts v to t using only the text of v. It is the conversion used when no conversion function is
// registered for the column's oid and host type. In order, it tries encoding.TextUnmarshaler, sql.Scanner, the
// string, bool, integer, float and byte slice kinds, and finally the pgtype text decoder for the oid. Pointer types
// are parsed as their element type.
func ParseText(v Value, t HostType) (any, error) {
	if !t.IsValid() {
		return nil, errors.New("invalid host type")
	}
	rt := t.t

	if rt.Kind() == reflect.Pointer && !implementsDecoder(rt) {
		elem, err := ParseText(v, HostType{t: rt.Elem()})
		if err != nil {
			return nil, err
		}
		p := reflect.New(rt.Elem())
		p.Elem().Set(reflect.ValueOf(elem))
		return p.Interface(), nil
	}

	p := reflect.New(rt)
	switch d := p.Interface().(type) {
	case encoding.TextUnmarshaler:
		if err := d.UnmarshalText(v.Bytes()); err != nil {
			return nil, err
		}
		return p.Elem().Interface(), nil
	case sql.Scanner:
		if err := d.Scan(v.Text()); err != nil {
			return nil, err
		}
		return p.Elem().Interface(), nil
	}

	dst := p.Elem()
	switch rt.Kind() {
	case reflect.String:
		dst.SetString(v.Text())
	case reflect.Bool:
		b, err := parseBool(v.StringView())
		if err != nil {
			return nil, err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(v.StringView(), 10, rt.Bits())
		if err != nil {
			return nil, err
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(v.StringView(), 10, rt.Bits())
		if err != nil {
			return nil, err
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(v.StringView(), rt.Bits())
		if err != nil {
			return nil, err
		}
		dst.SetFloat(f)
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			if v.Oid() != ByteaOID {
				dst.SetBytes([]byte(v.Text()))
				break
			}
			b, err := decodeBytea(v.raw())
			if err != nil {
				return nil, err
			}
			dst.SetBytes(b)
			break
		}
		fallthrough
	default:
		if err := scanText(v, p.Interface()); err != nil {
			return nil, err
		}
	}

	return dst.Interface(), nil
}

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	scannerType         = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

func implementsDecoder(rt reflect.Type) bool {
	p := reflect.PointerTo(rt)
	return p.Implements(textUnmarshalerType) || p.Implements(scannerType)
}

func parseBool(s string) (bool, error) {
	switch s {
	case "t":
		return true, nil
	case "f":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errInvalidBool
	}
	return b, nil
}

// decodeBytea decodes the hex or escape output format of bytea into a new slice.
func decodeBytea(src []byte) ([]byte, error) {
	if len(src) >= 2 && src[0] == '\\' && src[1] == 'x' {
		b := make([]byte, hex.DecodedLen(len(src)-2))
		if _, err := hex.Decode(b, src[2:]); err != nil {
			return nil, fmt.Errorf("invalid bytea hex: %w", err)
		}
		return b, nil
	}

	b := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		if src[i] != '\\' {
			b = append(b, src[i])
			continue
		}
		if i+1 < len(src) && src[i+1] == '\\' {
			b = append(b, '\\')
			i++
			continue
		}
		if i+3 >= len(src) {
			return nil, errInvalidBytea
		}
		var n byte
		for _, d := range src[i+1 : i+4] {
			if d < '0' || d > '7' {
				return nil, errInvalidBytea
			}
			n = n*8 + d - '0'
		}
		b = append(b, n)
		i += 3
	}
	return b, nil
}
