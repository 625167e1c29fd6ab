package cmd

import (
	"github.com/lcharvet/energiedw/internal/inspector"

	"github.com/spf13/cobra"
)

var inspectStageFlag string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the parquet snapshots of one pipeline stage.",
	Long: `Prints per-table schema, row counts, and the event timestamp range (when
the table carries event_ts) for every snapshot under a stage directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspector.Inspect(cmd.Context(), getConfig(), inspectStageFlag, getLogger())
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectStageFlag, "stage", inspector.StageGold, "Stage to inspect (bronze, silver, gold, or dq)")
}
