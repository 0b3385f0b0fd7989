package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/feedback"
	"github.com/matsen/papershelf/internal/paper"
	"github.com/matsen/papershelf/internal/validate"
)

func init() {
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add [file|-]",
	Short: "Save one paper from a JSON object",
	Long: `Save one paper given as a JSON object, read from a file or stdin.

The paper may use any earlier record shape; it is migrated and validated
before it is saved. Papers with the same title or URL as a saved paper are
refused.

Examples:
  shelf add paper.json
  echo '{"title":"Attention","authors":"Vaswani, Ashish"}' | shelf add`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

// AddResponse is the response for the add command.
type AddResponse struct {
	Record   paper.Record     `json:"record"`
	Summary  feedback.Summary `json:"summary"`
	Warnings []validate.Issue `json:"warnings"`
}

func runAdd(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}

	raw, err := readRecordInput(path)
	if err != nil {
		exitWithError(ExitDataError, "reading input: %v", err)
	}

	store := mustOpenStore()
	defer store.Close()
	lib := openLibrary(store)

	rec, result, err := lib.Add(context.Background(), raw)
	if err != nil {
		if humanOutput && len(result.Errors) > 0 {
			outputHuman("Paper not saved:\n")
			printIssues(result.Errors)
		}
		exitWithErr(err, "saving paper")
	}

	summary := feedback.Summarize(result)
	if humanOutput {
		outputHuman("Saved %s: %s\n", rec.IDString(), truncateString(rec.TitleKey(), ListTitleMaxLen))
		if summary.Status != feedback.StatusSuccess {
			outputHuman("%s\n", summary.Message)
			printIssues(result.Warnings)
		}
		return nil
	}
	return outputJSON(AddResponse{Record: rec, Summary: summary, Warnings: result.Warnings})
}

// readRecordInput reads a single JSON object from path, or stdin for "-".
func readRecordInput(path string) (map[string]any, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return decodeRecord(r)
}

func decodeRecord(r io.Reader) (map[string]any, error) {
	var v any
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	rec, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T (use 'shelf import' for collections)", v)
	}
	return rec, nil
}
