package cmd

import (
	"github.com/lcharvet/energiedw/internal/loader"
	"github.com/lcharvet/energiedw/internal/orchestrator"

	"github.com/spf13/cobra"
)

var (
	runFromFlag  string
	runUntilFlag string
	runModeFlag  string
	runCleanFlag bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: ingest -> clean -> build -> load.",
	Long: `Executes the pipeline stages in order, stopping at the first stage whose
units did not all succeed. Before each stage only the existence of the
predecessor's output directory is checked; everything else is discovered per
unit. --from and --until narrow the range; --clean wipes the stage output
directories first (the landing directory and warehouse are untouched).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := loader.ParseMode(runModeFlag)
		if err != nil {
			return err
		}
		pipeline := orchestrator.New(getConfig(), getLogger(), getDB())
		return pipeline.Run(cmd.Context(), orchestrator.Options{
			From:     runFromFlag,
			Until:    runUntilFlag,
			LoadMode: mode,
			Clean:    runCleanFlag,
		})
	},
}

func init() {
	runCmd.Flags().StringVar(&runFromFlag, "from", "", "First stage to run (ingest, clean, build, load)")
	runCmd.Flags().StringVar(&runUntilFlag, "until", "", "Last stage to run (ingest, clean, build, load)")
	runCmd.Flags().StringVar(&runModeFlag, "mode", string(loader.ModeReplace), "Load semantics (append or replace)")
	runCmd.Flags().BoolVar(&runCleanFlag, "clean", false, "Remove bronze/silver/dq/gold directories before running")
}
