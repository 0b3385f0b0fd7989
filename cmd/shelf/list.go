package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/paper"
)

var (
	listStatus string
	listLimit  int
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only papers with this reading status")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum number of papers (0 for all)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved papers",
	Long: `List saved papers, migrated to the current schema on the fly.

Examples:
  shelf list
  shelf list --status to-read --human`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	if listStatus != "" && !paper.Contains(paper.Statuses, listStatus) {
		exitWithError(ExitError, "invalid status %q (valid: %v)", listStatus, paper.Statuses)
	}

	store := mustOpenStore()
	defer store.Close()

	papers, err := openLibrary(store).Papers(context.Background())
	if err != nil {
		exitWithErr(err, "reading papers")
	}
	papers = filterPapers(papers, listStatus, listLimit)

	if humanOutput {
		if len(papers) == 0 {
			outputHuman("No papers saved.\n")
			return nil
		}
		for _, p := range papers {
			outputHuman("%-12s %-4s  %s\n", truncateString(p.IDString(), 12), p.String(paper.FieldYear),
				truncateString(p.TitleKey(), ListTitleMaxLen))
			if authors := formatAuthorsShort(p, 3); authors != "" {
				outputHuman("%-12s        %s\n", "", authors)
			}
		}
		return nil
	}
	return outputJSON(papers)
}

// filterPapers keeps papers with the given status (any when empty), up to
// limit papers (all when zero).
func filterPapers(papers []paper.Record, status string, limit int) []paper.Record {
	out := make([]paper.Record, 0, len(papers))
	for _, p := range papers {
		if status != "" && p.String(paper.FieldStatus) != status {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
