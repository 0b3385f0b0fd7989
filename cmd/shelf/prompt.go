package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/clipboard"
	"github.com/matsen/papershelf/internal/feedback"
)

var promptCopy bool

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().BoolVarP(&promptCopy, "copy", "c", false, "Also copy the prompt to the clipboard")
}

var promptCmd = &cobra.Command{
	Use:   "prompt <id>",
	Short: "Print an AI prompt for repairing a paper",
	Long: `Validate a stored paper and print a prompt that can be pasted into an
AI assistant to get a corrected record back.

With --human only the prompt text is printed. With --copy the prompt is
also placed on the clipboard.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrompt,
}

func runPrompt(cmd *cobra.Command, args []string) error {
	store := mustOpenStore()
	defer store.Close()

	lib := openLibrary(store)
	raw, err := lib.Stored(context.Background(), args[0])
	if err != nil {
		exitWithErr(err, "getting paper")
	}

	fb := feedback.WithFeedback(lib.Validator(), raw)

	if promptCopy && fb.Prompt != "" {
		if err := clipboard.Copy(fb.Prompt); err != nil {
			exitWithError(ExitError, "copying prompt: %v", err)
		}
	}

	if humanOutput {
		if fb.Prompt == "" {
			outputHuman("%s\n", fb.Summary.Message)
			return nil
		}
		outputHuman("%s\n", fb.Prompt)
		return nil
	}
	return outputJSON(fb)
}
