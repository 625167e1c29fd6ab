package cmd

import (
	"github.com/lcharvet/energiedw/internal/etl"
	"github.com/lcharvet/energiedw/internal/loader"
	"github.com/lcharvet/energiedw/internal/orchestrator"

	"github.com/spf13/cobra"
)

var loadModeFlag string

// runSingleStage executes one stage through the orchestrator so the gate
// checks, summary table, and event logging behave identically to 'run'.
func runSingleStage(cmd *cobra.Command, stage string, mode loader.Mode) error {
	pipeline := orchestrator.New(getConfig(), getLogger(), getDB())
	_, err := pipeline.RunStage(cmd.Context(), stage, mode)
	return err
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Bronze stage: snapshot raw source CSVs to parquet.",
	Long: `Reads every declared source CSV from the landing directory and writes a
raw parquet snapshot per source, every business field as nullable text plus
provenance columns. Missing landing files are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSingleStage(cmd, etl.StageIngest, "")
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Silver stage: validate and clean bronze snapshots.",
	Long: `Applies each source's transform to its bronze snapshot: typed columns,
validation rules in fixed order, and dedup. Accepted rows land in the silver
directory; rejected rows are quarantined with a reject_reason.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSingleStage(cmd, etl.StageClean, "")
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Gold stage: derive the star-schema tables.",
	Long: `Builds the calendar, energy type, location, and plant dimensions plus the
production, capacity, and monthly summary facts from the silver tables, and
snapshots each to parquet. Broken inputs degrade to placeholder rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSingleStage(cmd, etl.StageBuild, "")
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load gold parquet tables into the DuckDB warehouse schema.",
	Long: `Loads every gold table into the warehouse schema. Mode 'replace' (the
default) recreates each table and is idempotent; 'append' inserts on top of
previous loads. The load succeeds only when every table holds rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := loader.ParseMode(loadModeFlag)
		if err != nil {
			return err
		}
		return runSingleStage(cmd, etl.StageLoad, mode)
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadModeFlag, "mode", string(loader.ModeReplace), "Load semantics (append or replace)")
}
