package tender

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ListSeparator joins multi-valued source fields into one stored string.
const ListSeparator = ", "

// Scalar coerces a loosely typed source value into a trimmed string.
// Lists of scalars are joined with ListSeparator. Objects and nil yield ("", false).
func Scalar(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case []byte:
		s := strings.TrimSpace(string(x))
		return s, s != ""
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case json.Number:
		return x.String(), true
	case time.Time:
		if x.IsZero() {
			return "", false
		}
		return x.UTC().Format(time.RFC3339), true
	case []string:
		return joinScalars(len(x), func(i int) any { return x[i] })
	case []any:
		return joinScalars(len(x), func(i int) any { return x[i] })
	default:
		return "", false
	}
}

func joinScalars(n int, at func(int) any) (string, bool) {
	parts := make([]string, 0, n)
	for i := range n {
		if s, ok := Scalar(at(i)); ok {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ListSeparator), true
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the ISO-8601 variants seen in source rows.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Epoch returns the date as unix seconds, or nil when the string does not parse.
func Epoch(s string) *int64 {
	t, ok := ParseDate(s)
	if !ok {
		return nil
	}
	ts := t.Unix()
	return &ts
}
