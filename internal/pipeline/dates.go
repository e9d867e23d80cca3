package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	dateTimeLayout,
	dateLayout,
}

// maxExcelSerial is 9999-12-31.
const maxExcelSerial = 2958465

// parseDate normalizes a raw date to YYYY-MM-DD. Values that cannot be
// parsed keep their date prefix (text before "T") or are returned as is;
// missing values become "".
func parseDate(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(dateLayout)
	case float64:
		return serialDate(x)
	case int:
		return serialDate(float64(x))
	case int64:
		return serialDate(float64(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return ""
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(dateLayout)
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if d := serialDate(f); d != "" {
				return d
			}
		}
		if i := strings.Index(s, "T"); i > 0 {
			return s[:i]
		}
		return s
	default:
		return toString(v)
	}
}

// serialDate converts an Excel serial day number (1900 date system).
func serialDate(f float64) string {
	if f < 1 || f > maxExcelSerial {
		return ""
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return ""
	}
	return t.Format(dateLayout)
}
