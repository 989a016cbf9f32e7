package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for every date column.
const DateLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	DateLayout,
}

// Int64 returns the column as an integer, 0 when null or missing.
func (r Row) Int64(col string) int64 {
	v, _ := toInt64(r[col])
	return v
}

// NullInt64 returns nil when the column is null.
func (r Row) NullInt64(col string) *int64 {
	v, ok := toInt64(r[col])
	if !ok {
		return nil
	}
	return &v
}

// String returns the column as text, "" when null.
func (r Row) String(col string) string {
	s, _ := toString(r[col])
	return s
}

// NullString returns nil when the column is null.
func (r Row) NullString(col string) *string {
	s, ok := toString(r[col])
	if !ok {
		return nil
	}
	return &s
}

// Date returns a date column formatted as YYYY-MM-DD.
func (r Row) Date(col string) string {
	switch v := r[col].(type) {
	case time.Time:
		return v.Format(DateLayout)
	case nil:
		return ""
	default:
		s, _ := toString(v)
		if len(s) >= len(DateLayout) {
			return s[:len(DateLayout)]
		}
		return s
	}
}

// Time returns a timestamp column, the zero time when null or unparseable.
func (r Row) Time(col string) time.Time {
	switch v := r[col].(type) {
	case time.Time:
		return v
	case string:
		return parseTime(v)
	case int64:
		return time.Unix(v, 0).UTC()
	}
	return time.Time{}
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int:
		return int64(x), true
	case float64:
		if x != math.Trunc(x) {
			return int64(math.Round(x)), true
		}
		return int64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if ferr != nil {
				return 0, false
			}
			return int64(math.Round(f)), true
		}
		return n, true
	case []byte:
		return toInt64(string(x))
	}
	return 0, false
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case time.Time:
		return x.Format(time.RFC3339), true
	default:
		return fmt.Sprint(x), true
	}
}
