package etl

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSucceeded(t *testing.T) {
	assert.False(t, AllSucceeded(nil))

	ok := []UnitResult{
		{Unit: "a", Status: StatusSuccess},
		{Unit: "b", Status: StatusSuccess},
	}
	assert.True(t, AllSucceeded(ok))

	for _, bad := range []Status{StatusMissing, StatusFailed, StatusSkipped} {
		results := append(ok, UnitResult{Unit: "c", Status: bad})
		assert.False(t, AllSucceeded(results), string(bad))
	}
}

func TestJoinErrors(t *testing.T) {
	assert.NoError(t, JoinErrors([]UnitResult{{Unit: "a", Status: StatusSuccess}}))

	errA := errors.New("boom")
	errB := errors.New("bang")
	joined := JoinErrors([]UnitResult{
		{Unit: "a", Status: StatusFailed, Err: errA},
		{Unit: "b", Status: StatusSuccess},
		{Unit: "c", Status: StatusFailed, Err: errB},
	})
	require.Error(t, joined)
	assert.ErrorIs(t, joined, errA)
	assert.ErrorIs(t, joined, errB)
	assert.Contains(t, joined.Error(), "a: boom")
	assert.Contains(t, joined.Error(), "c: bang")
}

func TestRenderSummary(t *testing.T) {
	var sb strings.Builder
	RenderSummary(&sb, "clean", []UnitResult{
		{Unit: "france_time_series", Status: StatusSuccess, Rows: 100, Rejected: 4, Elapsed: 150 * time.Millisecond},
		{Unit: "renewable_power_plants_FR", Status: StatusMissing, Message: "file not found"},
		{Unit: "time_series_60min_sample", Status: StatusFailed, Err: errors.New("transform blew up")},
	})
	out := sb.String()

	assert.Contains(t, out, "--- clean summary ---")
	assert.Contains(t, out, "france_time_series")
	assert.Contains(t, out, "file not found")
	assert.Contains(t, out, "transform blew up")
	assert.Contains(t, out, "clean: 1 success, 1 missing, 1 failed (3 units)")
}
