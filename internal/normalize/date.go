package normalize

import (
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ISOLayout is the ISO-8601 form written for every normalized date.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// FormatISO renders t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// Date converts a date of unknown shape to an ISO-8601 string, falling back
// to now when the input is absent or cannot be parsed.
func Date(input any, now time.Time) string {
	s, _ := DateWithFallback(input, now)
	return s
}

// DateWithFallback is Date that also reports whether a present value was
// replaced by now because it could not be parsed.
//
// Strings already containing a "T" are assumed to be ISO-8601 and returned
// unchanged. Numbers are milliseconds since the Unix epoch.
func DateWithFallback(input any, now time.Time) (string, bool) {
	switch v := input.(type) {
	case nil:
		return FormatISO(now), false
	case string:
		if v == "" {
			return FormatISO(now), false
		}
		if strings.Contains(v, "T") {
			return v, false
		}
		t, err := dateparse.ParseIn(strings.TrimSpace(v), time.UTC)
		if err != nil {
			return FormatISO(now), true
		}
		return FormatISO(t), false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return FormatISO(now), true
		}
		return FormatISO(time.UnixMilli(int64(v))), false
	case int64:
		return FormatISO(time.UnixMilli(v)), false
	case int:
		return FormatISO(time.UnixMilli(int64(v))), false
	case time.Time:
		if v.IsZero() {
			return FormatISO(now), true
		}
		return FormatISO(v), false
	default:
		return FormatISO(now), true
	}
}
