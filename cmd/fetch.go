package cmd

import (
	"fmt"
	"os"

	"github.com/lcharvet/energiedw/internal/downloader"
	"github.com/lcharvet/energiedw/internal/etl"

	"github.com/spf13/cobra"
)

var fetchForceFlag bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download declared source CSVs into the landing directory.",
	Long: `Downloads each configured source into the landing directory. Sources with
a direct url are fetched as-is; sources with an indexUrl get their .csv links
discovered from the index page and the latest one downloaded. Files already
present are skipped unless --force is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		results := downloader.FetchSources(cmd.Context(), getConfig(), getLogger(), fetchForceFlag, nil)
		etl.RenderSummary(os.Stdout, "fetch", results)
		if err := etl.JoinErrors(results); err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchForceFlag, "force", false, "Re-download sources even when already present")
}
