package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/migrate"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the library needs migrating",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

// StatusResult is the response for the status command.
type StatusResult struct {
	migrate.Status
	DBPath string `json:"db_path"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	store := mustOpenStore()
	defer store.Close()

	status, err := openLibrary(store).Status(context.Background())
	if err != nil {
		exitWithErr(err, "checking status")
	}

	if humanOutput {
		outputHuman("Library: %s\n", store.Path())
		outputHuman("Papers:  %d\n", status.Count)
		if status.Needed {
			outputHuman("Migration needed: %s -> %s (run 'shelf migrate')\n", status.From, status.To)
		} else {
			outputHuman("Schema:  %s (up to date)\n", status.To)
		}
		return nil
	}
	return outputJSON(StatusResult{Status: status, DBPath: store.Path()})
}
