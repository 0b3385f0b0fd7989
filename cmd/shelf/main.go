// Package main provides the shelf CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/papershelf/internal/config"
	"github.com/matsen/papershelf/internal/kv"
	"github.com/matsen/papershelf/internal/library"
	"github.com/matsen/papershelf/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// Process-wide state set up lazily by the must* helpers.
var (
	activeConfig  *config.Config
	activeLogger  *zap.Logger
	activeMetrics *library.Metrics
)

func main() {
	err := rootCmd.Execute()
	flushMetrics()
	if err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Paper library with schema migration and validation",
	Long: `shelf keeps a personal library of research papers.

Saved papers of any earlier shape are migrated to the current schema,
validated, and exported as JSON, JSONL or BibTeX.

All commands output JSON by default for scripting; use --human for text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	if activeConfig != nil {
		return activeConfig
	}
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	activeConfig = cfg
	return cfg
}

// mustLogger builds the logger described by the config, exits on error.
func mustLogger(cfg *config.Config) *zap.Logger {
	if activeLogger != nil {
		return activeLogger
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		exitWithError(ExitConfigError, "configuring logging: %v", err)
	}
	activeLogger = logger
	return logger
}

// mustOpenStore opens the SQLite store, exits on error.
// The caller is responsible for calling Close() on the returned store.
func mustOpenStore() *kv.SQLite {
	cfg := mustLoadConfig()
	store, err := kv.OpenSQLite(cfg.DBPath())
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return store
}

// openLibrary returns a library over store wired to the shared logger and
// metrics.
func openLibrary(store kv.Store) *library.Library {
	cfg := mustLoadConfig()
	if activeMetrics == nil {
		activeMetrics = library.NewMetrics()
	}
	return library.Open(store,
		library.WithLogger(mustLogger(cfg)),
		library.WithMetrics(activeMetrics),
	)
}

// flushMetrics writes the run's counters to the configured textfile.
func flushMetrics() {
	if activeLogger != nil {
		defer activeLogger.Sync()
	}
	if activeConfig == nil || activeMetrics == nil || activeConfig.MetricsFile == "" {
		return
	}
	if err := activeMetrics.WriteTextfile(activeConfig.MetricsFile); err != nil {
		fmt.Fprintf(os.Stderr, "warning: writing metrics: %v\n", err)
	}
}
