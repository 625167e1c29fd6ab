package cleaner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lcharvet/energiedw/internal/config"
	"github.com/lcharvet/energiedw/internal/frame"
	"github.com/lcharvet/energiedw/internal/ingestor"
	"github.com/lcharvet/energiedw/internal/util"
)

// ColRejectReason tags quarantined rows with the rule that removed them.
const ColRejectReason = "reject_reason"

// Canonical silver column names.
const (
	ColEventTS    = "event_ts"
	ColLoadMW     = "load_mw"
	ColSolarMW    = "solar_mw"
	ColWindMW     = "wind_mw"
	ColCountry    = "country"
	ColEnergyType = "energy_type"
)

// Reject reasons. The wording is part of the data-quality contract; reports
// downstream match on these strings.
const (
	ReasonInvalidTimestamp = "Timestamp invalide ou manquant"
	ReasonFutureTimestamp  = "Timestamp futur"
	ReasonBadTimestamp     = "Timestamp invalide"
	ReasonNonPositiveCap   = "Capacité <= 0"
)

func reasonNegative(col string) string {
	return fmt.Sprintf("%s < 0 (impossible physiquement)", col)
}

var systemColumns = map[string]bool{
	ingestor.ColSourceFile: true,
	ingestor.ColIngestTS:   true,
	ingestor.ColIngestDate: true,
}

// newRejectFrame builds an empty reject frame sharing the input's columns
// plus the reason tag. Rules must not change the column set after this.
func newRejectFrame(f *frame.Frame) *frame.Frame {
	cols := append(append([]frame.Column(nil), f.Columns...), frame.Column{Name: ColRejectReason, Type: frame.String})
	return frame.New(cols...)
}

// applyRule removes rows matching bad, appending them to rejects with the
// given reason, and returns the surviving rows. Rules fire in order: a row
// removed here is never seen by later rules.
func applyRule(f, rejects *frame.Frame, reason string, bad func(row []any) bool) *frame.Frame {
	kept, dropped := f.Partition(func(row []any) bool { return !bad(row) })
	for _, row := range dropped.Rows {
		rejects.Rows = append(rejects.Rows, append(append([]any(nil), row...), reason))
	}
	return kept
}

// coerceFloatColumn converts a column to Float in place. Unparseable or
// empty values become null rather than errors.
func coerceFloatColumn(f *frame.Frame, name string) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return
	}
	for _, row := range f.Rows {
		row[idx] = toFloat(row[idx])
	}
	f.Columns[idx].Type = frame.Float
}

func toFloat(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return val
	case int64:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil
		}
		return parsed
	default:
		return nil
	}
}

// parseTimestampColumn derives a Timestamp column from a raw string column.
// Unparseable or missing values become null.
func parseTimestampColumn(f *frame.Frame, srcCol, dstCol string) {
	srcIdx := f.ColumnIndex(srcCol)
	f.AddColumn(frame.Column{Name: dstCol, Type: frame.Timestamp}, nil)
	if srcIdx < 0 {
		return
	}
	dstIdx := f.ColumnIndex(dstCol)
	for _, row := range f.Rows {
		raw, ok := row[srcIdx].(string)
		if !ok {
			continue
		}
		if t, parsed := util.ParseTimestamp(raw); parsed {
			row[dstIdx] = t
		}
	}
}

// dedupByColumn keeps the first row per distinct value of the named column.
func dedupByColumn(f *frame.Frame, name string) *frame.Frame {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return f
	}
	seen := make(map[string]bool, len(f.Rows))
	out := frame.New(f.Columns...)
	for _, row := range f.Rows {
		key := frame.CellKey(row[idx])
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Rows = append(out.Rows, row)
	}
	return out
}

// dedupRows keeps the first occurrence of each fully identical row.
func dedupRows(f *frame.Frame) *frame.Frame {
	seen := make(map[string]bool, len(f.Rows))
	out := frame.New(f.Columns...)
	for _, row := range f.Rows {
		key := frame.RowKey(row)
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Rows = append(out.Rows, row)
	}
	return out
}

// cleanFranceTimeSeries validates the OPSD France national feed: timestamp
// parse, measure coercion, physical-bounds rules, dedup by timestamp.
func cleanFranceTimeSeries(cfg config.Config, in *frame.Frame, now time.Time) (*frame.Frame, *frame.Frame, error) {
	if !in.HasColumn("utc_timestamp") {
		return nil, nil, fmt.Errorf("required column utc_timestamp not found")
	}

	f := in.Clone()
	parseTimestampColumn(f, "utc_timestamp", ColEventTS)

	measures := []struct{ from, to string }{
		{"FR_load_actual_entsoe_transparency", ColLoadMW},
		{"FR_solar_generation_actual", ColSolarMW},
		{"FR_wind_onshore_generation_actual", ColWindMW},
	}
	for _, m := range measures {
		coerceFloatColumn(f, m.from)
		f.RenameColumn(m.from, m.to)
	}

	rejects := newRejectFrame(f)

	tsIdx := f.ColumnIndex(ColEventTS)
	f = applyRule(f, rejects, ReasonInvalidTimestamp, func(row []any) bool {
		return row[tsIdx] == nil
	})

	for _, col := range []string{ColLoadMW, ColSolarMW, ColWindMW} {
		idx := f.ColumnIndex(col)
		if idx < 0 {
			continue
		}
		f = applyRule(f, rejects, reasonNegative(col), func(row []any) bool {
			v, ok := row[idx].(float64)
			return ok && v < 0
		})
	}

	limit := util.Naive(now)
	f = applyRule(f, rejects, ReasonFutureTimestamp, func(row []any) bool {
		t, ok := row[tsIdx].(time.Time)
		return ok && t.After(limit)
	})

	f = dedupByColumn(f, ColEventTS)

	f.AddColumn(frame.Column{Name: ColCountry, Type: frame.String}, cfg.Country)
	f.AddColumn(frame.Column{Name: ColEnergyType, Type: frame.String}, "mixed")

	accepted := f.Select(ColEventTS, ColLoadMW, ColSolarMW, ColWindMW, ColCountry, ColEnergyType,
		ingestor.ColSourceFile, ingestor.ColIngestTS, ingestor.ColIngestDate)
	return accepted, rejects, nil
}

// cleanEurostatElectricityFrance coerces every business column to numeric
// and deduplicates whole rows. The feed has no validation rules.
func cleanEurostatElectricityFrance(cfg config.Config, in *frame.Frame, _ time.Time) (*frame.Frame, *frame.Frame, error) {
	f := in.Clone()
	for _, c := range f.ColumnNames() {
		if systemColumns[c] {
			continue
		}
		coerceFloatColumn(f, c)
	}
	f = dedupRows(f)
	f.AddColumn(frame.Column{Name: ColCountry, Type: frame.String}, cfg.Country)
	return f, nil, nil
}

// cleanTimeSeries60Min handles the hourly sample feed, whose timestamp
// column name varies: the first column containing "time" wins, falling back
// to the first column.
func cleanTimeSeries60Min(cfg config.Config, in *frame.Frame, _ time.Time) (*frame.Frame, *frame.Frame, error) {
	if in.NumCols() == 0 {
		return nil, nil, fmt.Errorf("input has no columns")
	}

	f := in.Clone()
	tsCol := f.Columns[0].Name
	for _, c := range f.ColumnNames() {
		if strings.Contains(strings.ToLower(c), "time") {
			tsCol = c
			break
		}
	}

	parseTimestampColumn(f, tsCol, ColEventTS)

	rejects := newRejectFrame(f)
	tsIdx := f.ColumnIndex(ColEventTS)
	f = applyRule(f, rejects, ReasonBadTimestamp, func(row []any) bool {
		return row[tsIdx] == nil
	})

	for _, c := range f.ColumnNames() {
		if systemColumns[c] || c == tsCol || c == ColEventTS {
			continue
		}
		coerceFloatColumn(f, c)
	}

	f.DropColumn(tsCol)
	f.AddColumn(frame.Column{Name: ColCountry, Type: frame.String}, cfg.Country)
	return f, rejects, nil
}

// cleanRenewablePowerPlants validates the plant registry: capacity must be a
// positive number; identical registrations collapse to one.
func cleanRenewablePowerPlants(cfg config.Config, in *frame.Frame, _ time.Time) (*frame.Frame, *frame.Frame, error) {
	f := in.Clone()
	coerceFloatColumn(f, "electrical_capacity")

	rejects := newRejectFrame(f)
	if idx := f.ColumnIndex("electrical_capacity"); idx >= 0 {
		f = applyRule(f, rejects, ReasonNonPositiveCap, func(row []any) bool {
			v, ok := row[idx].(float64)
			return ok && v <= 0
		})
	}

	f = dedupRows(f)
	f.AddColumn(frame.Column{Name: ColCountry, Type: frame.String}, cfg.Country)
	return f, rejects, nil
}
