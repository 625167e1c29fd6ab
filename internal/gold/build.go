package gold

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lcharvet/energiedw/internal/config"
	"github.com/lcharvet/energiedw/internal/etl"
	"github.com/lcharvet/energiedw/internal/frame"
	"github.com/lcharvet/energiedw/internal/ingestor"
)

// Silver tables the build stage reads.
const (
	silverTimeSeries = "france_time_series"
	silverPlants     = "renewable_plants"
)

// Tables lists every gold table, in build order.
var Tables = []string{
	"dim_date",
	"dim_energy_type",
	"dim_location",
	"dim_plant",
	"fact_energy_production",
	"fact_renewable_capacity",
	"fact_monthly_summary",
}

// Build runs the gold stage: reads the silver inputs once, derives every
// dimension and fact, and snapshots each to parquet. Missing or broken
// inputs degrade individual tables (placeholder dimensions, empty or
// fallback facts) rather than failing the stage; only write errors fail a
// table.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, progress func(etl.UnitResult)) []etl.UnitResult {
	log := logger.With(slog.String("component", "gold"))
	now := time.Now().UTC()

	ts := readSilver(ctx, cfg, silverTimeSeries, log)
	plants := readSilver(ctx, cfg, silverPlants, log)

	start, end, err := cfg.CalendarRange()
	if err != nil {
		// Config validation guarantees parseability; stay defined anyway.
		start, _ = time.Parse("2006-01-02", config.DefaultCalendarStart)
		end, _ = time.Parse("2006-01-02", config.DefaultCalendarEnd)
		log.Warn("Calendar range unparseable, using defaults.", "error", err)
	}

	dimLocation, err := BuildDimLocation(plants, cfg.Country)
	if err != nil {
		log.Warn("Falling back to placeholder location dimension.", "error", err)
		dimLocation = PlaceholderLocation(cfg.Country)
	}
	dimPlant, err := BuildDimPlant(plants)
	if err != nil {
		log.Warn("Falling back to placeholder plant dimension.", "error", err)
		dimPlant = PlaceholderPlant()
	}
	factCapacity, err := BuildFactRenewableCapacity(plants, now, cfg.Country)
	if err != nil {
		log.Warn("Falling back to single-row capacity fact.", "error", err)
		factCapacity = FallbackCapacityFact(now, cfg.Country)
	}

	tables := map[string]*frame.Frame{
		"dim_date":                BuildDimDate(start, end),
		"dim_energy_type":         BuildDimEnergyType(),
		"dim_location":            dimLocation,
		"dim_plant":               dimPlant,
		"fact_energy_production":  BuildFactEnergyProduction(ts, plants, now, cfg.Country),
		"fact_renewable_capacity": factCapacity,
		"fact_monthly_summary":    BuildFactMonthlySummary(ts, cfg.Country),
	}

	results := make([]etl.UnitResult, 0, len(Tables))
	for _, name := range Tables {
		startT := time.Now()
		res := etl.UnitResult{Unit: name}
		f := tables[name]
		outPath := filepath.Join(cfg.Paths.Gold, name, ingestor.SnapshotFile)
		if writeErr := frame.WriteParquet(f, outPath); writeErr != nil {
			log.Error("Failed to write gold table.", slog.String("table", name), "error", writeErr)
			res.Status = etl.StatusFailed
			res.Err = writeErr
		} else {
			log.Info("Gold table written.", slog.String("table", name), slog.Int("rows", f.NumRows()))
			res.Status = etl.StatusSuccess
			res.Rows = int64(f.NumRows())
		}
		res.Elapsed = time.Since(startT)
		results = append(results, res)
		if progress != nil {
			progress(res)
		}
	}
	return results
}

// readSilver loads one silver table, returning nil when unavailable so the
// callers' degradation paths kick in.
func readSilver(ctx context.Context, cfg config.Config, table string, log *slog.Logger) *frame.Frame {
	path := filepath.Join(cfg.Paths.Silver, table, ingestor.SnapshotFile)
	f, err := frame.ReadParquet(ctx, path)
	if err != nil {
		log.Warn("Silver table unavailable.", slog.String("table", table), "error", err)
		return nil
	}
	return f
}
