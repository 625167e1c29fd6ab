package ingestor

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcharvet/energiedw/internal/config"
	"github.com/lcharvet/energiedw/internal/etl"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReadDelimited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"utc_timestamp,load_mw,comment\n"+
			"2024-06-01T00:00:00Z,45000,ok\n"+
			"2024-06-01T01:00:00Z,44000\n"+ // short row, padded
			"2024-06-01T02:00:00Z,43000,late,extra\n", // long row, truncated
	), 0o644))

	f, err := readDelimited(path, ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"utc_timestamp", "load_mw", "comment"}, f.ColumnNames())
	require.Equal(t, 3, f.NumRows())

	assert.Equal(t, "ok", f.Value(0, "comment"))
	assert.Nil(t, f.Value(1, "comment"))
	assert.Equal(t, "late", f.Value(2, "comment"))
	assert.Equal(t, "45000", f.Value(0, "load_mw"))
}

func TestReadDelimitedSemicolon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eurostat.csv")
	require.NoError(t, os.WriteFile(path, []byte("2021;2022\n478,3;460,1\n"), 0o644))

	f, err := readDelimited(path, ';')
	require.NoError(t, err)
	assert.Equal(t, []string{"2021", "2022"}, f.ColumnNames())
	require.Equal(t, 1, f.NumRows())
	assert.Equal(t, "478,3", f.Value(0, "2021"))
}

func TestReadDelimitedEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := readDelimited(path, ',')
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestIngestSources(t *testing.T) {
	root := t.TempDir()
	landing := filepath.Join(root, "landing")
	require.NoError(t, os.MkdirAll(landing, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(landing, "ts.csv"),
		[]byte("utc_timestamp,load_mw\n2024-06-01T00:00:00Z,45000\n2024-06-01T01:00:00Z,44000\n"), 0o644))

	cfg := config.Config{
		Country: "FR",
		Sources: []config.Source{
			{Name: "france_time_series", File: "ts.csv", Delimiter: ","},
			{Name: "renewable_power_plants_FR", File: "plants.csv", Delimiter: ","},
		},
		Paths: config.Paths{
			Landing: landing,
			Bronze:  filepath.Join(root, "bronze"),
		},
	}

	var seen []string
	results := IngestSources(context.Background(), cfg, discard(), func(r etl.UnitResult) {
		seen = append(seen, r.Unit)
	})
	require.Len(t, results, 2)
	assert.Equal(t, []string{"france_time_series", "renewable_power_plants_FR"}, seen)

	assert.Equal(t, etl.StatusSuccess, results[0].Status)
	assert.Equal(t, int64(2), results[0].Rows)
	assert.FileExists(t, filepath.Join(cfg.Paths.Bronze, "france_time_series", SnapshotFile))

	assert.Equal(t, etl.StatusMissing, results[1].Status)
	assert.Equal(t, "file not found", results[1].Message)
	assert.NoFileExists(t, filepath.Join(cfg.Paths.Bronze, "renewable_power_plants_FR", SnapshotFile))
}
