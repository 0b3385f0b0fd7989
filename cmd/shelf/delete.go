package main

import (
	"context"

	"github.com/spf13/cobra"
)

var clearConfirm bool

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVar(&clearConfirm, "yes", false, "Confirm removing every paper")
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a paper",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved paper",
	Long: `Delete every saved paper. The schema version marker is kept.

Requires --yes.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func runDelete(cmd *cobra.Command, args []string) error {
	store := mustOpenStore()
	defer store.Close()

	if err := openLibrary(store).Delete(context.Background(), args[0]); err != nil {
		exitWithErr(err, "deleting paper")
	}

	if humanOutput {
		outputHuman("Deleted %s\n", args[0])
		return nil
	}
	return outputJSON(StatusResponse{Status: "deleted", ID: args[0]})
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearConfirm {
		exitWithError(ExitError, "refusing to clear the library without --yes")
	}

	store := mustOpenStore()
	defer store.Close()

	if err := openLibrary(store).Clear(context.Background()); err != nil {
		exitWithErr(err, "clearing library")
	}

	if humanOutput {
		outputHuman("Library cleared\n")
		return nil
	}
	return outputJSON(StatusResponse{Status: "cleared"})
}
