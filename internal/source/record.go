package source

import (
	stdjson "encoding/json"
	"fmt"
	"strconv"
)

// String returns the named field of r as text. Strings are returned as
// they are, numbers in their shortest form and nil or missing fields as "".
func String(r Record, name string) string {
	switch v := r[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case stdjson.Number:
		return v.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Int64 returns the named field of r as an integer.
func Int64(r Record, name string) (int64, error) {
	switch v := r[name].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case stdjson.Number:
		return v.Int64()
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("field %s: %g is not an integer", name, v)
		}
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case nil:
		return 0, fmt.Errorf("field %s is missing", name)
	default:
		return 0, fmt.Errorf("field %s: cannot convert %T to int64", name, v)
	}
}
