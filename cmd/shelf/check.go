package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/feedback"
	"github.com/matsen/papershelf/internal/library"
	"github.com/matsen/papershelf/internal/paper"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [id]",
	Short: "Validate stored papers against the current schema",
	Long: `Validate stored papers as they are persisted, before any migration.

Legacy papers report the problems 'shelf migrate' would fix. Exits with
status 3 when any paper has errors.

Examples:
  shelf check
  shelf check 12 --human`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status   string          `json:"status"`
	Papers   int             `json:"papers"`
	Invalid  int             `json:"invalid"`
	Warnings int             `json:"warnings"`
	Checks   []library.Check `json:"checks"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	store := mustOpenStore()
	defer store.Close()

	checks, err := openLibrary(store).ValidateAll(context.Background())
	if err != nil {
		exitWithErr(err, "validating papers")
	}

	if len(args) == 1 {
		checks = filterChecks(checks, args[0])
		if len(checks) == 0 {
			exitWithError(ExitError, "paper not found: %s", args[0])
		}
	}

	result := summarizeChecks(checks)

	if humanOutput {
		for _, c := range checks {
			if !c.Result.HasIssues() {
				continue
			}
			summary := feedback.Summarize(c.Result)
			outputHuman("#%d %v: %s\n", c.Index, c.ID, summary.Message)
			printIssues(c.Result.Errors)
			printIssues(c.Result.Warnings)
		}
		outputHuman("%d paper(s), %d invalid, %d warning(s)\n", result.Papers, result.Invalid, result.Warnings)
	} else {
		outputJSON(result)
	}

	if result.Invalid > 0 {
		flushMetrics()
		store.Close()
		os.Exit(ExitDataError)
	}
	return nil
}

func filterChecks(checks []library.Check, id string) []library.Check {
	var out []library.Check
	for _, c := range checks {
		if c.ID != nil && (paper.Record{paper.FieldID: c.ID}).IDString() == id {
			out = append(out, c)
		}
	}
	return out
}

func summarizeChecks(checks []library.Check) CheckResult {
	result := CheckResult{Status: feedback.StatusSuccess, Papers: len(checks), Checks: checks}
	for _, c := range checks {
		if !c.Result.Valid {
			result.Invalid++
		}
		result.Warnings += len(c.Result.Warnings)
	}
	switch {
	case result.Invalid > 0:
		result.Status = feedback.StatusError
	case result.Warnings > 0:
		result.Status = feedback.StatusWarning
	}
	return result
}
