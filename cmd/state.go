package cmd

import (
	"github.com/lcharvet/energiedw/internal/db"

	"github.com/spf13/cobra"
)

var (
	stateLimitFlag int
	stateStageFlag string
	stateEventFlag string
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show recent pipeline event-log entries.",
	Long: `Displays the most recent rows of the pipeline event log kept in the
warehouse database, optionally filtered by stage or event type.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return db.DisplayEventHistory(cmd.Context(), getDB(), stateStageFlag, stateEventFlag, stateLimitFlag)
	},
}

func init() {
	stateCmd.Flags().IntVar(&stateLimitFlag, "limit", 50, "Maximum number of event rows to display")
	stateCmd.Flags().StringVar(&stateStageFlag, "stage", "", "Filter by stage (ingest, clean, build, load)")
	stateCmd.Flags().StringVar(&stateEventFlag, "event", "", "Filter by event (start, success, missing, failed, skipped)")
}
