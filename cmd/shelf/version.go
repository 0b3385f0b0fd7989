package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/paper"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the shelf and schema versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if humanOutput {
			outputHuman("shelf %s (schema %s)\n", Version, paper.CurrentSchemaVersion)
			return nil
		}
		return outputJSON(map[string]string{
			"version": Version,
			"schema":  paper.CurrentSchemaVersion,
		})
	},
}
