package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampLayouts(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339 utc", "2024-06-01T12:30:00Z", time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)},
		{"iso no zone", "2024-06-01T12:30:00", time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)},
		{"space separated", "2024-06-01 12:30:00", time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)},
		{"bare date", "2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"french date", "01/06/2024", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"quoted", `"2024-06-01T12:30:00Z"`, time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tc.in)
			require.True(t, ok)
			assert.True(t, got.Equal(tc.want), "got %s want %s", got, tc.want)
		})
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "not a date", "2024-13-45", "12345x"} {
		_, ok := ParseTimestamp(in)
		assert.False(t, ok, "expected %q to fail", in)
	}
}

func TestNaiveKeepsWallClock(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	in := time.Date(2024, 6, 1, 9, 0, 0, 0, paris)
	got := Naive(in)
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, time.UTC, got.Location())
}

func TestDateID(t *testing.T) {
	assert.Equal(t, int64(20240601), DateID(time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, int64(20150101), DateID(time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestTruncateToDay(t *testing.T) {
	got := TruncateToDay(time.Date(2024, 6, 1, 23, 59, 59, 12345, time.UTC))
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got)
}
