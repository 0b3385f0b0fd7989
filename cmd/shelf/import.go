package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/importer"
	"github.com/matsen/papershelf/internal/kv"
	"github.com/matsen/papershelf/internal/library"
	"github.com/matsen/papershelf/internal/storage"
)

var (
	importDryRun bool
	importFrom   string
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Report what would be imported without saving")
	importCmd.Flags().StringVar(&importFrom, "from", "shelf", "Input format: shelf (JSON array or JSONL) or paperpile")
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import papers from a JSON array or JSONL file",
	Long: `Import papers from a JSON array or JSONL file, such as an export from
an earlier version.

Every paper is migrated and validated. Papers already saved (same title or
URL) are skipped; invalid papers are rejected without stopping the import.

Examples:
  shelf import papers-export.json
  shelf import papers.jsonl --dry-run
  shelf import paperpile.json --from paperpile`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// ImportResponse is the response for the import command.
type ImportResponse struct {
	library.ImportResult
	DryRun      bool     `json:"dry_run"`
	Unconverted []string `json:"unconverted,omitempty"`
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	records, unconverted, err := readImport(args[0], importFrom)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", args[0], err)
	}

	store := mustOpenStore()
	defer store.Close()

	var target kv.Store = store
	if importDryRun {
		snap, err := kv.Snapshot(ctx, store, kv.KeyPapers, kv.KeySchemaVersion)
		if err != nil {
			exitWithErr(err, "reading library")
		}
		target = snap
	}

	result, err := openLibrary(target).Import(ctx, records)
	if err != nil {
		exitWithErr(err, "importing")
	}

	if humanOutput {
		verb := "Imported"
		if importDryRun {
			verb = "Would import"
		}
		outputHuman("%s %d paper(s), skipped %d duplicate(s), rejected %d\n",
			verb, result.Added, result.Skipped, len(result.Rejected))
		for _, r := range result.Rejected {
			outputHuman("  #%d: %s\n", r.Index, r.Reason)
		}
		for _, u := range unconverted {
			outputHuman("  not converted: %s\n", u)
		}
		return nil
	}
	return outputJSON(ImportResponse{ImportResult: result, DryRun: importDryRun, Unconverted: unconverted})
}

// readImport reads raw records from path in the given format. Entries a
// converter could not handle are returned as messages, not errors.
func readImport(path, format string) ([]any, []string, error) {
	switch format {
	case "shelf":
		records, err := storage.ReadRecords(path)
		return records, nil, err
	case "paperpile":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		records, errs := importer.ParsePaperpile(data)
		if len(errs) == 1 && errors.Is(errs[0], importer.ErrMalformed) {
			return nil, nil, errs[0]
		}
		var unconverted []string
		for _, e := range errs {
			unconverted = append(unconverted, e.Error())
		}
		return records, unconverted, nil
	default:
		return nil, nil, fmt.Errorf("unknown format %q (valid: shelf, paperpile)", format)
	}
}
