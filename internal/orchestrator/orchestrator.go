// Package orchestrator sequences the pipeline stages. Stages communicate
// only through the filesystem, so the readiness gate for each stage is the
// existence of its predecessor's output root.
package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lcharvet/energiedw/internal/cleaner"
	"github.com/lcharvet/energiedw/internal/config"
	"github.com/lcharvet/energiedw/internal/db"
	"github.com/lcharvet/energiedw/internal/etl"
	"github.com/lcharvet/energiedw/internal/gold"
	"github.com/lcharvet/energiedw/internal/ingestor"
	"github.com/lcharvet/energiedw/internal/loader"
)

// stageOrder is the full pipeline, in execution order.
var stageOrder = []string{etl.StageIngest, etl.StageClean, etl.StageBuild, etl.StageLoad}

// Options control one pipeline run.
type Options struct {
	From     string      // first stage to run; "" means ingest
	Until    string      // last stage to run; "" means load
	LoadMode loader.Mode // load semantics; defaults to replace
	Clean    bool        // remove stage output roots before running
}

// Pipeline runs stages against one configuration, logging unit outcomes to
// the event log when a database handle is present.
type Pipeline struct {
	cfg    config.Config
	logger *slog.Logger
	conn   *sql.DB // nil disables event logging

	// OnUnit, when set, observes every unit outcome as it happens. The TUI
	// hangs its progress feed off this.
	OnUnit func(stage string, r etl.UnitResult)
}

// New builds a pipeline. conn may be nil, in which case no events are
// recorded and the load stage is unavailable.
func New(cfg config.Config, logger *slog.Logger, conn *sql.DB) *Pipeline {
	return &Pipeline{cfg: cfg, logger: logger.With(slog.String("component", "orchestrator")), conn: conn}
}

// StageRange resolves from/until names into the ordered slice of stages to
// run.
func StageRange(from, until string) ([]string, error) {
	if from == "" {
		from = stageOrder[0]
	}
	if until == "" {
		until = stageOrder[len(stageOrder)-1]
	}
	fromIdx, untilIdx := -1, -1
	for i, s := range stageOrder {
		if s == from {
			fromIdx = i
		}
		if s == until {
			untilIdx = i
		}
	}
	if fromIdx < 0 {
		return nil, fmt.Errorf("unknown stage %q", from)
	}
	if untilIdx < 0 {
		return nil, fmt.Errorf("unknown stage %q", until)
	}
	if untilIdx < fromIdx {
		return nil, fmt.Errorf("stage %q precedes %q", until, from)
	}
	return stageOrder[fromIdx : untilIdx+1], nil
}

// gate returns an error when the stage's input root does not exist yet.
// Ingest has no predecessor stage; its gate is the landing directory.
func (p *Pipeline) gate(stage string) error {
	var dir, predecessor string
	switch stage {
	case etl.StageIngest:
		dir, predecessor = p.cfg.Paths.Landing, ""
	case etl.StageClean:
		dir, predecessor = p.cfg.Paths.Bronze, etl.StageIngest
	case etl.StageBuild:
		dir, predecessor = p.cfg.Paths.Silver, etl.StageClean
	case etl.StageLoad:
		dir, predecessor = p.cfg.Paths.Gold, etl.StageBuild
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if predecessor == "" {
			return fmt.Errorf("landing directory %s does not exist", dir)
		}
		return fmt.Errorf("%s not found: run %s first", dir, predecessor)
	}
	return nil
}

// CleanOutputs removes every stage output root (bronze, silver, dq, gold).
// The landing directory and the warehouse database are left alone.
func (p *Pipeline) CleanOutputs() error {
	for _, dir := range []string{p.cfg.Paths.Bronze, p.cfg.Paths.Silver, p.cfg.Paths.DQ, p.cfg.Paths.Gold} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
		p.logger.Info("Removed stage output root.", slog.String("dir", dir))
	}
	return nil
}

// RunStage executes one stage, prints its summary, and records unit events.
// err is non-nil when the gate failed or the stage verdict is failure.
func (p *Pipeline) RunStage(ctx context.Context, stage string, mode loader.Mode) ([]etl.UnitResult, error) {
	if err := p.gate(stage); err != nil {
		p.logger.Error("Stage gate failed.", slog.String("stage", stage), "error", err)
		return nil, err
	}

	p.logger.Info("Stage starting.", slog.String("stage", stage))
	p.logEvent(ctx, stage, "-", db.EventStart, "", 0, nil)

	progress := func(r etl.UnitResult) {
		elapsed := r.Elapsed
		p.logEvent(ctx, stage, r.Unit, unitEvent(r), unitMessage(r), r.Rows, &elapsed)
		if p.OnUnit != nil {
			p.OnUnit(stage, r)
		}
	}

	var results []etl.UnitResult
	switch stage {
	case etl.StageIngest:
		results = ingestor.IngestSources(ctx, p.cfg, p.logger, progress)
	case etl.StageClean:
		results = cleaner.CleanSources(ctx, p.cfg, p.logger, progress)
	case etl.StageBuild:
		results = gold.Build(ctx, p.cfg, p.logger, progress)
	case etl.StageLoad:
		if p.conn == nil {
			return nil, fmt.Errorf("load stage requires a warehouse connection")
		}
		if mode == "" {
			mode = loader.ModeReplace
		}
		results = loader.LoadWarehouse(ctx, p.cfg, p.conn, mode, p.logger, progress)
	default:
		return nil, fmt.Errorf("unknown stage %q", stage)
	}

	etl.RenderSummary(os.Stdout, stage, results)

	succeeded := etl.AllSucceeded(results)
	if stage == etl.StageLoad {
		succeeded = loader.Succeeded(results)
	}
	if !succeeded {
		err := fmt.Errorf("stage %s failed", stage)
		if joined := etl.JoinErrors(results); joined != nil {
			err = fmt.Errorf("stage %s failed: %w", stage, joined)
		}
		return results, err
	}
	p.logger.Info("Stage complete.", slog.String("stage", stage), slog.Int("units", len(results)))
	return results, nil
}

// Run executes the selected stage range, stopping at the first failure.
func (p *Pipeline) Run(ctx context.Context, opts Options) error {
	stages, err := StageRange(opts.From, opts.Until)
	if err != nil {
		return err
	}
	if opts.Clean {
		if err := p.CleanOutputs(); err != nil {
			return err
		}
	}
	for _, stage := range stages {
		if _, err := p.RunStage(ctx, stage, opts.LoadMode); err != nil {
			return err
		}
	}
	p.logger.Info("Pipeline complete.", slog.Int("stages", len(stages)))
	return nil
}

func (p *Pipeline) logEvent(ctx context.Context, stage, unit, event, message string, rows int64, duration *time.Duration) {
	if p.conn == nil {
		return
	}
	if err := db.LogStageEvent(ctx, p.conn, stage, unit, event, message, rows, duration); err != nil {
		p.logger.Warn("Failed to record pipeline event.", slog.String("stage", stage), slog.String("unit", unit), "error", err)
	}
}

// UnitCount returns how many units the stage will process, for progress
// reporting.
func (p *Pipeline) UnitCount(stage string) int {
	switch stage {
	case etl.StageIngest, etl.StageClean:
		return len(p.cfg.Sources)
	case etl.StageBuild, etl.StageLoad:
		return len(gold.Tables)
	default:
		return 0
	}
}

func unitEvent(r etl.UnitResult) string {
	switch r.Status {
	case etl.StatusSuccess:
		return db.EventSuccess
	case etl.StatusMissing:
		return db.EventMissing
	case etl.StatusSkipped:
		return db.EventSkipped
	default:
		return db.EventFailed
	}
}

func unitMessage(r etl.UnitResult) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Message
}
