package pgbind

import (
	"encoding/json"
	"errors"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

var (
	builtinTypes       = NewTypeMap()
	builtinConversions = NewConversionMap()
)

// BuiltinTypes returns a copy of the built-in type map.
func BuiltinTypes() *TypeMap {
	return builtinTypes.Clone()
}

// BuiltinConversions returns a copy of the built-in conversion map.
func BuiltinConversions() *ConversionMap {
	return builtinConversions.Clone()
}

func builtin[T any](oids []Oid, fn func(v Value) (T, error)) {
	for _, oid := range oids {
		builtinTypes.MustSet(oid, TypeFor[T]())
		if err := RegisterConversion(builtinConversions, oid, fn); err != nil {
			panic(err)
		}
	}
}

func extraConversion[T any](oids []Oid, fn func(v Value) (T, error)) {
	for _, oid := range oids {
		if err := RegisterConversion(builtinConversions, oid, fn); err != nil {
			panic(err)
		}
	}
}

func init() {
	builtin([]Oid{BoolOID}, func(v Value) (bool, error) { return parseBool(v.StringView()) })
	builtin([]Oid{ByteaOID}, func(v Value) ([]byte, error) { return decodeBytea(v.raw()) })
	builtin([]Oid{CharOID}, func(v Value) (Char, error) {
		var c Char
		err := c.UnmarshalText(v.raw())
		return c, err
	})
	builtin([]Oid{NameOID, TextOID, VarcharOID, BPCharOID, JSONOID, JSONBOID, XMLOID, UnknownOID, MoneyOID},
		func(v Value) (string, error) { return v.Text(), nil })

	builtin([]Oid{Int2OID}, func(v Value) (int16, error) {
		n, err := strconv.ParseInt(v.StringView(), 10, 16)
		return int16(n), err
	})
	builtin([]Oid{Int4OID}, func(v Value) (int32, error) {
		n, err := strconv.ParseInt(v.StringView(), 10, 32)
		return int32(n), err
	})
	builtin([]Oid{Int8OID}, func(v Value) (int64, error) {
		return strconv.ParseInt(v.StringView(), 10, 64)
	})
	builtin([]Oid{OIDOID}, func(v Value) (Oid, error) {
		n, err := strconv.ParseUint(v.StringView(), 10, 32)
		return Oid(n), err
	})
	builtin([]Oid{XIDOID, CIDOID}, func(v Value) (uint32, error) {
		n, err := strconv.ParseUint(v.StringView(), 10, 32)
		return uint32(n), err
	})
	builtin([]Oid{Float4OID}, func(v Value) (float32, error) {
		f, err := strconv.ParseFloat(v.StringView(), 32)
		return float32(f), err
	})
	builtin([]Oid{Float8OID}, func(v Value) (float64, error) {
		return strconv.ParseFloat(v.StringView(), 64)
	})
	builtin([]Oid{NumericOID}, func(v Value) (decimal.Decimal, error) {
		return decimal.NewFromString(v.Text())
	})

	builtin([]Oid{DateOID}, func(v Value) (time.Time, error) { return parseDate(v.Text()) })
	builtin([]Oid{TimestampOID}, func(v Value) (time.Time, error) { return parseTimestamp(v.Text()) })
	builtin([]Oid{TimestamptzOID}, func(v Value) (time.Time, error) { return parseTimestamptz(v.Text()) })
	builtin([]Oid{TimeOID}, scanAs[pgtype.Time])
	builtin([]Oid{IntervalOID}, scanAs[pgtype.Interval])

	builtin([]Oid{UUIDOID}, func(v Value) (uuid.UUID, error) { return uuid.FromString(v.Text()) })
	builtin([]Oid{InetOID, CIDROID}, func(v Value) (netip.Prefix, error) { return parseInet(v.Text()) })
	builtin([]Oid{MacaddrOID}, func(v Value) (net.HardwareAddr, error) { return net.ParseMAC(v.Text()) })

	builtin([]Oid{BoolArrayOID}, scanAs[[]bool])
	builtin([]Oid{Int2ArrayOID}, scanAs[[]int16])
	builtin([]Oid{Int4ArrayOID}, scanAs[[]int32])
	builtin([]Oid{Int8ArrayOID}, scanAs[[]int64])
	builtin([]Oid{Float4ArrayOID}, scanAs[[]float32])
	builtin([]Oid{Float8ArrayOID}, scanAs[[]float64])
	builtin([]Oid{TextArrayOID, VarcharArrayOID, BPCharArrayOID, NameArrayOID}, scanAs[[]string])
	builtin([]Oid{DateArrayOID, TimestampArrayOID, TimestamptzArrayOID}, scanAs[[]time.Time])

	extraConversion([]Oid{JSONOID, JSONBOID}, func(v Value) (json.RawMessage, error) {
		if !json.Valid(v.raw()) {
			return nil, errors.New("invalid JSON")
		}
		return json.RawMessage(v.Bytes()), nil
	})
	extraConversion([]Oid{JSONOID, JSONBOID}, func(v Value) (map[string]any, error) {
		var m map[string]any
		err := json.Unmarshal(v.raw(), &m)
		return m, err
	})
	extraConversion([]Oid{Int2OID, Int4OID}, func(v Value) (int64, error) {
		return strconv.ParseInt(v.StringView(), 10, 64)
	})
	extraConversion([]Oid{NumericOID}, func(v Value) (float64, error) {
		return strconv.ParseFloat(v.StringView(), 64)
	})
	extraConversion([]Oid{UUIDOID}, func(v Value) (string, error) { return v.Text(), nil })
}

func scanAs[T any](v Value) (T, error) {
	var dst T
	err := scanText(v, &dst)
	return dst, err
}

func parseDate(s string) (time.Time, error) {
	s, bc := strings.CutSuffix(s, " BC")
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return adjustBC(t, bc), nil
}

func parseTimestamp(s string) (time.Time, error) {
	s, bc := strings.CutSuffix(s, " BC")
	t, err := time.ParseInLocation("2006-01-02 15:04:05.999999999", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return adjustBC(t, bc), nil
}

var timestamptzLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00:00",
}

func parseTimestamptz(s string) (time.Time, error) {
	s, bc := strings.CutSuffix(s, " BC")

	var err error
	for _, layout := range timestamptzLayouts {
		var t time.Time
		t, err = time.Parse(layout, s)
		if err == nil {
			return adjustBC(t, bc), nil
		}
	}
	return time.Time{}, err
}

// adjustBC converts a year before the common era to its astronomical numbering.
func adjustBC(t time.Time, bc bool) time.Time {
	if !bc {
		return t
	}
	return t.AddDate(1-2*t.Year(), 0, 0)
}

func parseInet(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		return netip.ParsePrefix(s)
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
