package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/kv"
	"github.com/matsen/papershelf/internal/library"
)

var migrateDryRun bool

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Report what would change without saving")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate stored papers to the current schema",
	Long: `Rewrite every stored paper in the current schema, in one atomic write.

Papers that cannot be migrated are kept unchanged and reported; they never
stop the rest of the migration.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

// MigrateResponse is the response for the migrate command.
type MigrateResponse struct {
	library.Outcome
	DryRun bool `json:"dry_run"`
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store := mustOpenStore()
	defer store.Close()

	var target kv.Store = store
	if migrateDryRun {
		snap, err := kv.Snapshot(ctx, store, kv.KeyPapers, kv.KeySchemaVersion)
		if err != nil {
			exitWithErr(err, "reading library")
		}
		target = snap
	}

	outcome, err := openLibrary(target).Migrate(ctx)
	if err != nil {
		exitWithErr(err, "migrating")
	}

	if humanOutput {
		verb := "Migrated"
		if migrateDryRun {
			verb = "Would migrate"
		}
		r := outcome.Report
		outputHuman("%s %d paper(s) to schema %s: %d rewritten, %d already current, %d failed\n",
			verb, outcome.Count, outcome.Version, r.Migrated, r.Current, r.Failed)
		for _, f := range r.Failures {
			outputHuman("  #%d kept unchanged: %s\n", f.Index, f.Cause)
		}
		for _, w := range r.Warnings {
			outputHuman("  %s\n", w)
		}
		return nil
	}
	return outputJSON(MigrateResponse{Outcome: outcome, DryRun: migrateDryRun})
}
