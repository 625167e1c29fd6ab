package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lcharvet/energiedw/internal/config"
	"github.com/lcharvet/energiedw/internal/db"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
	"github.com/spf13/cobra"
)

var (
	// Persistent flags - bound in init()
	cfgFile   string
	logFormat string
	logLevel  string
	logOutput string

	// Global instances populated in PersistentPreRunE
	rootLogger *slog.Logger
	dbConn     *sql.DB
	appConfig  config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "energiedw",
	Short: "Batch ETL pipeline for French energy-market data into a DuckDB warehouse.",
	Long: `energiedw ingests raw energy-market CSV feeds, cleans and validates them
with a data-quality quarantine, derives a star-schema warehouse model, and
loads it into an embedded DuckDB database. A pipeline event log tracks every
stage unit outcome.

The primary command is 'run', which executes ingest -> clean -> build -> load.
Other commands run single stages, serve the query API, inspect stage
snapshots, or view the event log.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// --- 1. Initialize Logger ---
		var level slog.Level
		switch strings.ToLower(logLevel) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var logWriter io.Writer = os.Stderr
		if logOutput != "" && strings.ToLower(logOutput) != "stderr" {
			if strings.ToLower(logOutput) == "stdout" {
				logWriter = os.Stdout
			} else {
				f, err := os.OpenFile(logOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err != nil {
					return fmt.Errorf("failed to open log file %s: %w", logOutput, err)
				}
				// The OS reclaims the handle on exit; fine for a CLI.
				logWriter = f
			}
		}

		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		if logFormat == "json" {
			handler = slog.NewJSONHandler(logWriter, opts)
		} else {
			handler = slog.NewTextHandler(logWriter, opts)
		}
		rootLogger = slog.New(handler)
		slog.SetDefault(rootLogger)
		rootLogger.Debug("Logger initialized", "level", level.String(), "format", logFormat, "output", logOutput)

		// --- 2. Load Config ---
		var err error
		appConfig, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		rootLogger.Debug("Configuration loaded", slog.String("file", cfgFile), slog.Int("sources", len(appConfig.Sources)))

		// --- 3. Initialize DuckDB Connection & Event Log ---
		if dbDir := filepath.Dir(appConfig.Warehouse.Path); dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o755); err != nil {
				return fmt.Errorf("failed to create warehouse directory %s: %w", dbDir, err)
			}
		}
		rootLogger.Debug("Opening warehouse database", "path", appConfig.Warehouse.Path)
		dbConn, err = sql.Open("duckdb", appConfig.Warehouse.Path)
		if err != nil {
			return fmt.Errorf("failed to open duckdb database (%s): %w", appConfig.Warehouse.Path, err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err = dbConn.PingContext(pingCtx); err != nil {
			dbConn.Close()
			return fmt.Errorf("failed to ping duckdb database (%s): %w", appConfig.Warehouse.Path, err)
		}

		if err := db.InitializeSchema(dbConn); err != nil {
			dbConn.Close()
			return fmt.Errorf("failed to initialize event log schema: %w", err)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if dbConn != nil {
			if err := dbConn.Close(); err != nil {
				rootLogger.Error("Failed to close DuckDB connection cleanly", "error", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main().
func Execute() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(tuiCmd)

	err := rootCmd.Execute()
	if err != nil {
		if rootLogger != nil {
			rootLogger.Error("Command execution failed", "error", err)
		} else {
			fmt.Fprintf(os.Stderr, "Command execution failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "energiedw.yaml", "Path to the pipeline configuration file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log output format (text or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "stderr", "Log output destination (stderr, stdout, or file path)")

	rootCmd.Version = "0.2.0"
}

// Helper to get logger (could use context propagation instead)
func getLogger() *slog.Logger {
	if rootLogger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return rootLogger
}

// Helper to get DB connection
func getDB() *sql.DB {
	return dbConn
}

// Helper to get Config
func getConfig() config.Config {
	return appConfig
}
