package orchestrator

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
	"github.com/lcharvet/energiedw/internal/loader"
)

func testPipeline(t *testing.T) (*Pipeline, config.Config) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		Country: "FR",
		Sources: []config.Source{
			{Name: "france_time_series", File: "france_time_series.csv", Delimiter: ","},
			{Name: "renewable_power_plants_FR", File: "renewable_power_plants_FR.csv", Delimiter: ","},
		},
		Paths: config.Paths{
			Landing: filepath.Join(root, "landing"),
			Bronze:  filepath.Join(root, "bronze"),
			Silver:  filepath.Join(root, "silver"),
			DQ:      filepath.Join(root, "dq"),
			Gold:    filepath.Join(root, "gold"),
		},
		Warehouse: config.Warehouse{Path: filepath.Join(root, "wh.duckdb"), Schema: "gold"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, logger, nil), cfg
}

func TestStageRange(t *testing.T) {
	full, err := StageRange("", "")
	require.NoError(t, err)
	assert.Equal(t, []string{etl.StageIngest, etl.StageClean, etl.StageBuild, etl.StageLoad}, full)

	mid, err := StageRange(etl.StageClean, etl.StageBuild)
	require.NoError(t, err)
	assert.Equal(t, []string{etl.StageClean, etl.StageBuild}, mid)

	single, err := StageRange(etl.StageLoad, etl.StageLoad)
	require.NoError(t, err)
	assert.Equal(t, []string{etl.StageLoad}, single)

	_, err = StageRange("bronze", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")

	_, err = StageRange(etl.StageBuild, etl.StageIngest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precedes")
}

func TestGateRequiresPredecessorOutput(t *testing.T) {
	p, cfg := testPipeline(t)

	err := p.gate(etl.StageIngest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "landing directory")

	err = p.gate(etl.StageClean)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run ingest first")

	err = p.gate(etl.StageBuild)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run clean first")

	err = p.gate(etl.StageLoad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run build first")

	require.NoError(t, os.MkdirAll(cfg.Paths.Landing, 0o755))
	require.NoError(t, os.MkdirAll(cfg.Paths.Bronze, 0o755))
	assert.NoError(t, p.gate(etl.StageIngest))
	assert.NoError(t, p.gate(etl.StageClean))
}

func TestCleanOutputsLeavesLandingAlone(t *testing.T) {
	p, cfg := testPipeline(t)
	for _, dir := range []string{cfg.Paths.Landing, cfg.Paths.Bronze, cfg.Paths.Silver, cfg.Paths.DQ, cfg.Paths.Gold} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	require.NoError(t, p.CleanOutputs())

	assert.DirExists(t, cfg.Paths.Landing)
	assert.NoDirExists(t, cfg.Paths.Bronze)
	assert.NoDirExists(t, cfg.Paths.Silver)
	assert.NoDirExists(t, cfg.Paths.DQ)
	assert.NoDirExists(t, cfg.Paths.Gold)
}

func TestRunStageLoadRequiresConnection(t *testing.T) {
	p, cfg := testPipeline(t)
	require.NoError(t, os.MkdirAll(cfg.Paths.Gold, 0o755))

	_, err := p.RunStage(context.Background(), etl.StageLoad, loader.ModeReplace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warehouse connection")
}

func TestRunStageIngestMissingFiles(t *testing.T) {
	// An empty landing directory opens the gate but every source is missing,
	// so the stage verdict is failure without any unit error.
	p, cfg := testPipeline(t)
	require.NoError(t, os.MkdirAll(cfg.Paths.Landing, 0o755))

	var observed []etl.UnitResult
	p.OnUnit = func(stage string, r etl.UnitResult) {
		assert.Equal(t, etl.StageIngest, stage)
		observed = append(observed, r)
	}

	results, err := p.RunStage(context.Background(), etl.StageIngest, "")
	require.Error(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, etl.StatusMissing, r.Status)
	}
	assert.Len(t, observed, 2)
}

func TestUnitCount(t *testing.T) {
	p, _ := testPipeline(t)
	assert.Equal(t, 2, p.UnitCount(etl.StageIngest))
	assert.Equal(t, 2, p.UnitCount(etl.StageClean))
	assert.Equal(t, 7, p.UnitCount(etl.StageBuild))
	assert.Equal(t, 7, p.UnitCount(etl.StageLoad))
	assert.Equal(t, 0, p.UnitCount("nope"))
}
