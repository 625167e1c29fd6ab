package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcharvet/energiedw/internal/etl"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("append")
	require.NoError(t, err)
	assert.Equal(t, ModeAppend, m)

	m, err = ParseMode("REPLACE")
	require.NoError(t, err)
	assert.Equal(t, ModeReplace, m)

	_, err = ParseMode("truncate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown load mode")
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"gold"`, quoteIdent("gold"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
}

func TestQuotePath(t *testing.T) {
	assert.Equal(t, `'/data/gold/dim_date/data.parquet'`, quotePath("/data/gold/dim_date/data.parquet"))
	assert.Equal(t, `'C:/gold/o''brien.parquet'`, quotePath(`C:\gold\o'brien.parquet`))
}

func TestLoadStatementsReplace(t *testing.T) {
	stmts := loadStatements("gold", "dim_date", "/data/gold/dim_date/data.parquet", ModeReplace)
	require.Len(t, stmts, 1)
	assert.Equal(t,
		`CREATE OR REPLACE TABLE "gold"."dim_date" AS SELECT * FROM read_parquet('/data/gold/dim_date/data.parquet');`,
		stmts[0])
}

func TestLoadStatementsAppend(t *testing.T) {
	stmts := loadStatements("gold", "fact_energy_production", "/data/gold/fact_energy_production/data.parquet", ModeAppend)
	require.Len(t, stmts, 2)
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "gold"."fact_energy_production" AS SELECT * FROM read_parquet('/data/gold/fact_energy_production/data.parquet') LIMIT 0;`,
		stmts[0])
	assert.Equal(t,
		`INSERT INTO "gold"."fact_energy_production" SELECT * FROM read_parquet('/data/gold/fact_energy_production/data.parquet');`,
		stmts[1])
}

func TestSucceeded(t *testing.T) {
	assert.False(t, Succeeded(nil))

	ok := []etl.UnitResult{
		{Unit: "dim_date", Status: etl.StatusSuccess, Rows: 4383},
		{Unit: "dim_plant", Status: etl.StatusSuccess, Rows: 1},
	}
	assert.True(t, Succeeded(ok))

	withMissing := append(ok, etl.UnitResult{Unit: "fact_monthly_summary", Status: etl.StatusMissing})
	assert.False(t, Succeeded(withMissing))

	emptyTable := []etl.UnitResult{{Unit: "dim_date", Status: etl.StatusSuccess, Rows: 0}}
	assert.False(t, Succeeded(emptyTable))
}
