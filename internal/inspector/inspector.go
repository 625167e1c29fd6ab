// Package inspector summarizes the parquet snapshots of one pipeline stage:
// per-table schema, row count, and event timestamp range where present.
package inspector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lcharvet/energiedw/internal/config"
	"github.com/lcharvet/energiedw/internal/ingestor"

	_ "github.com/marcboeker/go-duckdb"
)

// Stage names accepted by Inspect.
const (
	StageBronze = "bronze"
	StageSilver = "silver"
	StageGold   = "gold"
	StageDQ     = "dq"
)

// timestampColumn is the canonical event timestamp name; min/max stats are
// only computed for tables carrying it.
const timestampColumn = "event_ts"

type tableSummary struct {
	table        string
	path         string
	rowCount     int64
	minTimestamp sql.NullTime
	maxTimestamp sql.NullTime
	schema       string
	hasTimestamp bool
	schemaErr    error
	statsErr     error
}

// StageRoot resolves a stage name onto its configured directory.
func StageRoot(cfg config.Config, stage string) (string, error) {
	switch strings.ToLower(stage) {
	case StageBronze:
		return cfg.Paths.Bronze, nil
	case StageSilver:
		return cfg.Paths.Silver, nil
	case StageGold:
		return cfg.Paths.Gold, nil
	case StageDQ:
		return cfg.Paths.DQ, nil
	default:
		return "", fmt.Errorf("unknown stage %q (bronze, silver, gold, or dq)", stage)
	}
}

// Inspect summarizes every table snapshot under the stage root.
func Inspect(ctx context.Context, cfg config.Config, stage string, logger *slog.Logger) error {
	log := logger.With(slog.String("component", "inspector"), slog.String("stage", stage))

	root, err := StageRoot(cfg, stage)
	if err != nil {
		return err
	}

	globPattern := filepath.Join(root, "*", ingestor.SnapshotFile)
	snapshots, err := filepath.Glob(globPattern)
	if err != nil {
		return fmt.Errorf("failed glob snapshots in %s: %w", root, err)
	}
	if len(snapshots) == 0 {
		log.Info("No snapshots found.", slog.String("dir", root))
		fmt.Printf("No %s snapshots under %s.\n", stage, root)
		return nil
	}
	log.Info("Found snapshots to summarize.", slog.Int("count", len(snapshots)))

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer db.Close()

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var summaries []*tableSummary
	for _, path := range snapshots {
		summary := &tableSummary{table: filepath.Base(filepath.Dir(path)), path: path}
		summaries = append(summaries, summary)
		l := log.With(slog.String("table", summary.table))

		schemaStr, columnNames, schemaErr := describeSnapshot(ctx, conn, path)
		summary.schema = schemaStr
		summary.schemaErr = schemaErr
		if schemaErr != nil {
			l.Error("Failed getting schema.", "error", schemaErr)
		}
		for _, colName := range columnNames {
			if strings.EqualFold(colName, timestampColumn) {
				summary.hasTimestamp = true
				break
			}
		}

		escaped := strings.ReplaceAll(strings.ReplaceAll(path, `\`, `/`), "'", "''")
		var statsSQL string
		if summary.hasTimestamp {
			statsSQL = fmt.Sprintf(`SELECT COUNT(*), MIN(%s), MAX(%s) FROM read_parquet('%s');`, timestampColumn, timestampColumn, escaped)
		} else {
			statsSQL = fmt.Sprintf(`SELECT COUNT(*), NULL::TIMESTAMP, NULL::TIMESTAMP FROM read_parquet('%s');`, escaped)
		}

		var totalRows sql.NullInt64
		var minTs, maxTs sql.NullTime
		if err := conn.QueryRowContext(ctx, statsSQL).Scan(&totalRows, &minTs, &maxTs); err != nil {
			summary.statsErr = err
			l.Error("Failed getting statistics.", "error", err)
			continue
		}
		summary.rowCount = totalRows.Int64
		summary.minTimestamp = minTs
		summary.maxTimestamp = maxTs
		l.Info("Statistics gathered.", slog.Int64("rows", summary.rowCount))
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].table < summaries[j].table })

	fmt.Printf("\n--- %s snapshot summary ---\n", stage)
	for _, summary := range summaries {
		fmt.Printf("\n=== Table: %s ===\n", summary.table)
		if summary.schemaErr != nil {
			fmt.Printf("    ERROR retrieving schema: %v\n", summary.schemaErr)
		} else {
			for _, line := range strings.Split(summary.schema, "\n") {
				fmt.Printf("    %s\n", line)
			}
		}
	}

	fmt.Println("\n--- Statistics ---")
	fmt.Printf("%-30s | %12s | %-25s | %-25s | %s\n", "Table", "Rows", "Min event_ts", "Max event_ts", "Errors")
	fmt.Println(strings.Repeat("-", 110))
	var finalErr error
	for _, summary := range summaries {
		minStr, maxStr := "N/A", "N/A"
		if summary.minTimestamp.Valid {
			minStr = summary.minTimestamp.Time.UTC().Format(time.RFC3339)
		}
		if summary.maxTimestamp.Valid {
			maxStr = summary.maxTimestamp.Time.UTC().Format(time.RFC3339)
		}
		errorStr := ""
		if summary.schemaErr != nil || summary.statsErr != nil {
			errorStr = "see log"
		}
		fmt.Printf("%-30s | %12d | %-25s | %-25s | %s\n", summary.table, summary.rowCount, minStr, maxStr, errorStr)
		finalErr = errors.Join(finalErr, summary.schemaErr, summary.statsErr)
	}
	fmt.Println(strings.Repeat("-", 110))

	if finalErr != nil {
		log.Warn("Inspection completed with errors.", "error", finalErr)
	}
	return finalErr
}

// describeSnapshot returns a rendered DESCRIBE table and the column names of
// one parquet file.
func describeSnapshot(ctx context.Context, conn *sql.Conn, path string) (schemaString string, columnNames []string, err error) {
	escaped := strings.ReplaceAll(strings.ReplaceAll(path, `\`, `/`), "'", "''")
	describeSQL := fmt.Sprintf("DESCRIBE SELECT * FROM read_parquet('%s');", escaped)
	rows, err := conn.QueryContext(ctx, describeSQL)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") || strings.Contains(err.Error(), "No files found") {
			return "(File not found or empty)", nil, nil
		}
		return "", nil, fmt.Errorf("query schema for %s: %w", path, err)
	}
	defer rows.Close()

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%-30s | %-20s | %-5s\n", "Column Name", "Column Type", "Null"))
	builder.WriteString(strings.Repeat("-", 62) + "\n")
	count := 0
	for rows.Next() {
		var colName, colType, nullVal, keyVal, defaultVal, extraVal sql.NullString
		if scanErr := rows.Scan(&colName, &colType, &nullVal, &keyVal, &defaultVal, &extraVal); scanErr != nil {
			return "", nil, fmt.Errorf("scan schema row for %s: %w", path, scanErr)
		}
		builder.WriteString(fmt.Sprintf("%-30s | %-20s | %-5s\n", colName.String, colType.String, nullVal.String))
		if colName.Valid {
			columnNames = append(columnNames, colName.String)
		}
		count++
	}
	if err = rows.Err(); err != nil {
		return "", nil, fmt.Errorf("iterate schema rows for %s: %w", path, err)
	}
	if count == 0 {
		return "(No columns found)", nil, nil
	}
	return strings.TrimRight(builder.String(), "\n"), columnNames, nil
}
