package main

import (
	"context"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a single paper by ID",
	Long: `Get a single paper by its ID, migrated to the current schema.

Example:
  shelf get 3f2c9a4e-8d1b-4c55-9d0e-6f1f0c2d7a11`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	store := mustOpenStore()
	defer store.Close()

	rec, err := openLibrary(store).Get(context.Background(), args[0])
	if err != nil {
		exitWithErr(err, "getting paper")
	}

	if humanOutput {
		printRecordDetail(rec)
		return nil
	}
	return outputJSON(rec)
}
