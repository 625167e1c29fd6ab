// Package cleaner implements the silver stage: each bronze snapshot goes
// through its source-specific transform, producing an accepted table and,
// when rules fired, a quarantined reject table tagged with reasons.
package cleaner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lcharvet/energiedw/internal/config"
	"github.com/lcharvet/energiedw/internal/etl"
	"github.com/lcharvet/energiedw/internal/frame"
	"github.com/lcharvet/energiedw/internal/ingestor"
)

// TransformFunc turns one bronze frame into accepted and rejected frames.
// The rejected frame carries the extra reject_reason column.
type TransformFunc func(cfg config.Config, in *frame.Frame, now time.Time) (accepted, rejected *frame.Frame, err error)

type transformEntry struct {
	silverTable string
	rejectTable string
	fn          TransformFunc
}

// transforms maps source names onto their silver transform. Sources outside
// this registry fail the clean stage for that unit.
var transforms = map[string]transformEntry{
	"france_time_series": {
		silverTable: "france_time_series",
		rejectTable: "france_time_series_rejects",
		fn:          cleanFranceTimeSeries,
	},
	"eurostat_electricity_france": {
		silverTable: "eurostat_electricity_france",
		rejectTable: "eurostat_rejects",
		fn:          cleanEurostatElectricityFrance,
	},
	"time_series_60min_sample": {
		silverTable: "time_series_60min",
		rejectTable: "time_series_rejects",
		fn:          cleanTimeSeries60Min,
	},
	"renewable_power_plants_FR": {
		silverTable: "renewable_plants",
		rejectTable: "renewable_rejects",
		fn:          cleanRenewablePowerPlants,
	},
}

// HasTransform reports whether a source name has a registered transform.
func HasTransform(source string) bool {
	_, ok := transforms[source]
	return ok
}

// SilverTable returns the silver table name a source cleans into, or "".
func SilverTable(source string) string {
	return transforms[source].silverTable
}

// CleanSources runs the silver stage for every configured source. Missing
// bronze input marks the unit missing; a transform error marks it failed;
// siblings always continue.
func CleanSources(ctx context.Context, cfg config.Config, logger *slog.Logger, progress func(etl.UnitResult)) []etl.UnitResult {
	log := logger.With(slog.String("component", "cleaner"))
	now := time.Now().UTC()
	results := make([]etl.UnitResult, 0, len(cfg.Sources))

	for _, src := range cfg.Sources {
		start := time.Now()
		res := cleanOne(ctx, cfg, src, now, log)
		res.Elapsed = time.Since(start)
		results = append(results, res)
		if progress != nil {
			progress(res)
		}
	}
	return results
}

func cleanOne(ctx context.Context, cfg config.Config, src config.Source, now time.Time, log *slog.Logger) etl.UnitResult {
	res := etl.UnitResult{Unit: src.Name}
	l := log.With(slog.String("source", src.Name))

	entry, ok := transforms[src.Name]
	if !ok {
		res.Status = etl.StatusFailed
		res.Err = fmt.Errorf("no transform registered for source %q", src.Name)
		l.Error("No transform registered.", "error", res.Err)
		return res
	}

	bronzePath := filepath.Join(cfg.Paths.Bronze, src.Name, ingestor.SnapshotFile)
	in, err := frame.ReadParquet(ctx, bronzePath)
	if err != nil {
		l.Warn("Bronze snapshot unavailable, skipping source.", "error", err)
		res.Status = etl.StatusMissing
		res.Message = "file not found"
		return res
	}

	accepted, rejected, err := entry.fn(cfg, in, now)
	if err != nil {
		l.Error("Transform failed.", "error", err)
		res.Status = etl.StatusFailed
		res.Err = err
		return res
	}

	silverPath := filepath.Join(cfg.Paths.Silver, entry.silverTable, ingestor.SnapshotFile)
	if err := frame.WriteParquet(accepted, silverPath); err != nil {
		l.Error("Failed to write silver snapshot.", "error", err)
		res.Status = etl.StatusFailed
		res.Err = err
		return res
	}

	if rejected != nil && rejected.NumRows() > 0 {
		dqPath := filepath.Join(cfg.Paths.DQ, entry.rejectTable, ingestor.SnapshotFile)
		if err := frame.WriteParquet(rejected, dqPath); err != nil {
			l.Error("Failed to write reject snapshot.", "error", err)
			res.Status = etl.StatusFailed
			res.Err = err
			return res
		}
		res.Rejected = int64(rejected.NumRows())
	}

	l.Info("Silver snapshot written.",
		slog.Int("accepted", accepted.NumRows()),
		slog.Int64("rejected", res.Rejected),
		slog.String("table", entry.silverTable))
	res.Status = etl.StatusSuccess
	res.Rows = int64(accepted.NumRows())
	return res
}
