package pgbind

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/lib/pq"
)

// StringParameters converts query parameters to the text the server receives. nil, nil pointers and nil byte slices
// become NULL. Byte slices are sent in bytea hex format, time.Time in ISO 8601 with a UTC offset, and other slices as
// array literals. driver.Valuer and fmt.Stringer implementations are honored.
func StringParameters(params []any) ([]*string, error) {
	textParams := make([]*string, len(params))
	for i, p := range params {
		s, null, err := encodeParameter(p)
		if err != nil {
			return nil, &ParameterError{Index: i, Err: err}
		}
		if !null {
			textParams[i] = &s
		}
	}
	return textParams, nil
}

const timestamptzParamLayout = "2006-01-02 15:04:05.999999999Z07:00:00"

func encodeParameter(p any) (s string, null bool, err error) {
	if p == nil {
		return "", true, nil
	}
	if rv := reflect.ValueOf(p); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", true, nil
	}

	switch v := p.(type) {
	case string:
		return v, false, nil
	case *string:
		return *v, false, nil
	case []byte:
		if v == nil {
			return "", true, nil
		}
		return `\x` + hex.EncodeToString(v), false, nil
	case bool:
		return strconv.FormatBool(v), false, nil
	case int:
		return strconv.FormatInt(int64(v), 10), false, nil
	case int8:
		return strconv.FormatInt(int64(v), 10), false, nil
	case int16:
		return strconv.FormatInt(int64(v), 10), false, nil
	case int32:
		return strconv.FormatInt(int64(v), 10), false, nil
	case int64:
		return strconv.FormatInt(v, 10), false, nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), false, nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), false, nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), false, nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), false, nil
	case uint64:
		return strconv.FormatUint(v, 10), false, nil
	case Oid:
		return v.String(), false, nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), false, nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), false, nil
	case time.Time:
		return v.Format(timestamptzParamLayout), false, nil
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return "", false, err
		}
		return encodeParameter(dv)
	case fmt.Stringer:
		return v.String(), false, nil
	}

	rv := reflect.ValueOf(p)
	switch rv.Kind() {
	case reflect.Pointer:
		return encodeParameter(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "", true, nil
		}
		dv, err := pq.Array(p).Value()
		if err != nil {
			return "", false, err
		}
		return encodeParameter(dv)
	case reflect.String:
		return rv.String(), false, nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), false, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), false, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), false, nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits()), false, nil
	}

	return "", false, fmt.Errorf("cannot encode %T as a text parameter", p)
}
