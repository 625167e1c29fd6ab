package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "energiedw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
sources:
  - name: france_time_series
    file: france_time_series.csv
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "FR", cfg.Country)
	assert.Equal(t, ",", cfg.Sources[0].Delimiter)
	assert.Equal(t, "./data/bronze", cfg.Paths.Bronze)
	assert.Equal(t, "gold", cfg.Warehouse.Schema)
	assert.Equal(t, DefaultWarehousePath, cfg.Warehouse.Path)
	assert.Equal(t, "2015-01-01", cfg.Calendar.Start)
	assert.Equal(t, "2026-12-31", cfg.Calendar.End)

	start, end, err := cfg.CalendarRange()
	require.NoError(t, err)
	assert.True(t, start.Before(end))
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
country: DE
sources:
  - name: eurostat_electricity_france
    file: eurostat.csv
    delimiter: ";"
paths:
  landing: /srv/landing
warehouse:
  path: /srv/wh.duckdb
  schema: analytics
calendar:
  start: 2020-01-01
  end: 2020-12-31
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DE", cfg.Country)
	assert.Equal(t, ";", cfg.Sources[0].Delimiter)
	assert.Equal(t, "/srv/landing", cfg.Paths.Landing)
	assert.Equal(t, "analytics", cfg.Warehouse.Schema)
	assert.Equal(t, "2020-01-01", cfg.Calendar.Start)
}

func TestLoadRejectsInvalidConfigs(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no sources",
			content: `country: FR`,
			wantErr: "at least one source",
		},
		{
			name: "missing file",
			content: `
sources:
  - name: france_time_series
`,
			wantErr: "file is required",
		},
		{
			name: "duplicate names",
			content: `
sources:
  - name: a
    file: a.csv
  - name: a
    file: b.csv
`,
			wantErr: "duplicate source name",
		},
		{
			name: "multi-char delimiter",
			content: `
sources:
  - name: a
    file: a.csv
    delimiter: ",,"
`,
			wantErr: "single character",
		},
		{
			name: "bad calendar start",
			content: `
sources:
  - name: a
    file: a.csv
calendar:
  start: not-a-date
`,
			wantErr: "calendar start",
		},
		{
			name: "inverted calendar",
			content: `
sources:
  - name: a
    file: a.csv
calendar:
  start: 2026-01-01
  end: 2015-01-01
`,
			wantErr: "precedes",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}
