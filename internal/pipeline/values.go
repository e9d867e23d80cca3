package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// toString renders a raw cell or field value. Whole floats print without a
// fractional part so numeric cells like phone numbers and units read cleanly.
func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return toString(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case time.Time:
		return x.Format(dateLayout)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

var errNotFinite = errors.New("not a finite number")

// toFloat accepts numbers and numeric strings, including "$1,500.00".
// NaN and infinities are rejected.
func toFloat(v any) (float64, error) {
	f, err := parseFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}

func parseFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// toInt truncates toward zero. Values outside the int64 range are rejected.
func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v out of range", f)
	}
	return int(f), nil
}

// ssnFragment normalizes a last-4 value. Lists often type the column as a
// number, which drops leading zeros.
func ssnFragment(v any) string {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && x >= 0 && x < 10000 {
			return fmt.Sprintf("%04d", int(x))
		}
	case int:
		if x >= 0 && x < 10000 {
			return fmt.Sprintf("%04d", x)
		}
	}
	return toString(v)
}
