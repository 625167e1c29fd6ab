package util

import (
	"strings"
	"time"
)

// Timestamp layouts seen across the source feeds, tried in order.
// OPSD time series carry RFC3339 UTC stamps; the plant registry and the
// 60-minute sample use bare date or space-separated forms.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006",
}

// ParseTimestamp parses a raw feed timestamp string. The second return is
// false when no known layout matches. Zone offsets are accepted but the
// result is always reduced to its wall-clock reading (see Naive).
func ParseTimestamp(s string) (time.Time, bool) {
	trimmed := strings.TrimSpace(strings.Trim(s, `"`))
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return Naive(t), true
		}
	}
	return time.Time{}, false
}

// Naive strips the zone from a timestamp, keeping the wall-clock fields.
// Validation rules and calendar keys compare wall-clock readings, never
// instants, so every timestamp entering the pipeline goes through this.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// DateID converts a timestamp to the YYYYMMDD integer key used by the
// calendar dimension.
func DateID(t time.Time) int64 {
	return int64(t.Year())*10000 + int64(t.Month())*100 + int64(t.Day())
}

// TruncateToDay drops the time-of-day fields.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
