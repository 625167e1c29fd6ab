package cmd

import (
	"fmt"
	"net/http"

	"github.com/lcharvet/energiedw/internal/api"

	"github.com/spf13/cobra"
)

var serveAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only HTTP query API over the warehouse.",
	Long: `Starts an HTTP server exposing JSON endpoints over the warehouse schema:
daily production, energy mix, capacity by region, monthly summaries, and the
largest plants. The server only reads; run the pipeline separately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		router := api.NewRouter(getDB(), cfg.Warehouse.Schema, getLogger())
		getLogger().Info("Query API listening.", "addr", serveAddrFlag, "schema", cfg.Warehouse.Schema)
		srv := &http.Server{Addr: serveAddrFlag, Handler: router}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", ":8080", "Listen address for the query API")
}
