// Package db owns the pipeline event log kept in the warehouse database:
// one row per stage unit outcome, queryable with the state command.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // Driver
)

// Event types recorded per stage unit.
const (
	EventStart   = "start"
	EventSuccess = "success"
	EventMissing = "missing"
	EventFailed  = "failed"
	EventSkipped = "skipped"
)

const schemaSequenceSQL = `CREATE SEQUENCE IF NOT EXISTS etl_event_log_id_seq;`
const schemaTableSQL = `
CREATE TABLE IF NOT EXISTS etl_event_log (
    log_id          BIGINT PRIMARY KEY DEFAULT nextval('etl_event_log_id_seq'),
    stage           VARCHAR NOT NULL,      -- ingest, clean, build, load
    unit            VARCHAR NOT NULL,      -- source or table name
    event           VARCHAR NOT NULL,
    event_timestamp TIMESTAMP NOT NULL,
    message         VARCHAR,
    rows_out        BIGINT,
    duration_ms     BIGINT
);
CREATE INDEX IF NOT EXISTS idx_etl_event_log_stage_unit ON etl_event_log (stage, unit);
CREATE INDEX IF NOT EXISTS idx_etl_event_log_event_time ON etl_event_log (event, event_timestamp);
`

// InitializeSchema creates the event-log sequence and table.
func InitializeSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSequenceSQL)
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("failed to execute sequence setup: %w", err)
	}
	_, err = db.Exec(schemaTableSQL)
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("failed to execute table/index setup: %w", err)
	}
	return nil
}

// LogStageEvent appends one event row.
func LogStageEvent(ctx context.Context, db *sql.DB, stage, unit, event, message string, rows int64, duration *time.Duration) error {
	query := `
        INSERT INTO etl_event_log (stage, unit, event, event_timestamp, message, rows_out, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?);
    `
	var durationMs sql.NullInt64
	if duration != nil {
		durationMs = sql.NullInt64{Int64: duration.Milliseconds(), Valid: true}
	}

	_, err := db.ExecContext(ctx, query,
		stage,
		unit,
		event,
		time.Now().UTC(),
		sql.NullString{String: message, Valid: message != ""},
		rows,
		durationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to log event '%s' for '%s/%s': %w", event, stage, unit, err)
	}
	return nil
}

// LatestUnitEvent retrieves the most recent event for one stage unit.
func LatestUnitEvent(ctx context.Context, db *sql.DB, stage, unit string) (event string, timestamp time.Time, found bool, err error) {
	query := `
        SELECT event, event_timestamp
        FROM etl_event_log
        WHERE stage = ? AND unit = ?
        ORDER BY event_timestamp DESC, log_id DESC
        LIMIT 1;
    `
	row := db.QueryRowContext(ctx, query, stage, unit)
	err = row.Scan(&event, &timestamp)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", time.Time{}, false, nil
		}
		return "", time.Time{}, false, fmt.Errorf("failed query latest event for '%s/%s': %w", stage, unit, err)
	}
	return event, timestamp, true, nil
}

// DisplayEventHistory prints the most recent event-log rows, optionally
// filtered by stage and event.
func DisplayEventHistory(ctx context.Context, db *sql.DB, stageFilter, eventFilter string, limit int) error {
	query := `
        SELECT stage, unit, event, event_timestamp, message, rows_out, duration_ms
        FROM etl_event_log
    `
	conditions := []string{}
	args := []any{}
	argCounter := 1

	if stageFilter != "" {
		conditions = append(conditions, fmt.Sprintf("stage = $%d", argCounter))
		args = append(args, stageFilter)
		argCounter++
	}
	if eventFilter != "" {
		conditions = append(conditions, fmt.Sprintf("event = $%d", argCounter))
		args = append(args, eventFilter)
		argCounter++
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY event_timestamp DESC, log_id DESC LIMIT $%d", argCounter)
	args = append(args, limit)

	fmt.Printf("--- Pipeline Event Log (Limit %d) ---\n", limit)
	fmt.Printf("%-8s | %-35s | %-8s | %-25s | %10s | %10s | %s\n", "Stage", "Unit", "Event", "Timestamp (UTC)", "Rows", "DurationMS", "Message")
	fmt.Println(strings.Repeat("-", 130))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query event log: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var stage, unit, event string
		var timestamp time.Time
		var message sql.NullString
		var rowsOut, durationMs sql.NullInt64
		if err := rows.Scan(&stage, &unit, &event, &timestamp, &message, &rowsOut, &durationMs); err != nil {
			return fmt.Errorf("failed to scan event log row: %w", err)
		}

		durationStr := ""
		if durationMs.Valid {
			durationStr = fmt.Sprintf("%d", durationMs.Int64)
		}
		rowsStr := ""
		if rowsOut.Valid {
			rowsStr = fmt.Sprintf("%d", rowsOut.Int64)
		}

		fmt.Printf("%-8s | %-35s | %-8s | %-25s | %10s | %10s | %s\n",
			stage, filepath.Base(unit), event, timestamp.Format(time.RFC3339), rowsStr, durationStr, message.String)
		count++
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating event log rows: %w", err)
	}
	fmt.Printf("Displayed %d records.\n", count)
	return nil
}
