// Package loader moves gold parquet snapshots into the DuckDB warehouse
// schema. Replace mode is idempotent (CREATE OR REPLACE TABLE); append mode
// inserts on top of whatever a previous run loaded.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lcharvet/energiedw/internal/config"
	"github.com/lcharvet/energiedw/internal/etl"
	"github.com/lcharvet/energiedw/internal/gold"
	"github.com/lcharvet/energiedw/internal/ingestor"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// Mode selects the load semantics.
type Mode string

const (
	ModeAppend  Mode = "append"
	ModeReplace Mode = "replace"
)

// ParseMode validates a mode flag value.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeAppend:
		return ModeAppend, nil
	case ModeReplace:
		return ModeReplace, nil
	default:
		return "", fmt.Errorf("unknown load mode %q (append or replace)", s)
	}
}

// quoteIdent quotes a SQL identifier for DuckDB.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quotePath escapes a filesystem path for a DuckDB string literal.
func quotePath(path string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(path, `\`, `/`), `'`, `''`) + "'"
}

// loadStatements builds the SQL executed for one table, in order.
func loadStatements(schema, table, parquetPath string, mode Mode) []string {
	target := quoteIdent(schema) + "." + quoteIdent(table)
	src := quotePath(parquetPath)
	if mode == ModeReplace {
		return []string{
			fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT * FROM read_parquet(%s);`, target, src),
		}
	}
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s AS SELECT * FROM read_parquet(%s) LIMIT 0;`, target, src),
		fmt.Sprintf(`INSERT INTO %s SELECT * FROM read_parquet(%s);`, target, src),
	}
}

// LoadWarehouse loads every gold table into the warehouse schema. A missing
// snapshot marks its table missing; a SQL error marks it failed; siblings
// always continue.
func LoadWarehouse(ctx context.Context, cfg config.Config, db *sql.DB, mode Mode, logger *slog.Logger, progress func(etl.UnitResult)) []etl.UnitResult {
	log := logger.With(slog.String("component", "loader"), slog.String("mode", string(mode)))
	results := make([]etl.UnitResult, 0, len(gold.Tables))

	schemaSQL := fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s;`, quoteIdent(cfg.Warehouse.Schema))
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		// Without the schema nothing can load; report every table failed.
		log.Error("Failed to create warehouse schema.", "error", err)
		for _, table := range gold.Tables {
			res := etl.UnitResult{Unit: table, Status: etl.StatusFailed, Err: fmt.Errorf("create schema %s: %w", cfg.Warehouse.Schema, err)}
			results = append(results, res)
			if progress != nil {
				progress(res)
			}
		}
		return results
	}

	for _, table := range gold.Tables {
		start := time.Now()
		res := loadOne(ctx, cfg, db, mode, table, log)
		res.Elapsed = time.Since(start)
		results = append(results, res)
		if progress != nil {
			progress(res)
		}
	}
	return results
}

func loadOne(ctx context.Context, cfg config.Config, db *sql.DB, mode Mode, table string, log *slog.Logger) etl.UnitResult {
	res := etl.UnitResult{Unit: table}
	l := log.With(slog.String("table", table))

	parquetPath := filepath.Join(cfg.Paths.Gold, table, ingestor.SnapshotFile)
	if _, err := os.Stat(parquetPath); os.IsNotExist(err) {
		l.Warn("Gold snapshot not found, skipping table.", slog.String("path", parquetPath))
		res.Status = etl.StatusMissing
		res.Message = "missing"
		return res
	}

	for _, stmt := range loadStatements(cfg.Warehouse.Schema, table, parquetPath, mode) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			l.Error("Load statement failed.", "error", err)
			res.Status = etl.StatusFailed
			res.Err = fmt.Errorf("load %s: %w", table, err)
			return res
		}
	}

	countSQL := fmt.Sprintf(`SELECT count(*) FROM read_parquet(%s);`, quotePath(parquetPath))
	var loaded int64
	if err := db.QueryRowContext(ctx, countSQL).Scan(&loaded); err != nil {
		l.Error("Failed to count loaded rows.", "error", err)
		res.Status = etl.StatusFailed
		res.Err = fmt.Errorf("count %s: %w", table, err)
		return res
	}

	l.Info("Table loaded.", slog.Int64("rows", loaded))
	res.Status = etl.StatusSuccess
	res.Rows = loaded
	return res
}

// Succeeded applies the load verdict: every table present, loaded without
// error, and holding at least one row.
func Succeeded(results []etl.UnitResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Status != etl.StatusSuccess || r.Rows <= 0 {
			return false
		}
	}
	return true
}
