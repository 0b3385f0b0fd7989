package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/export"
	"github.com/matsen/papershelf/internal/paper"
	"github.com/matsen/papershelf/internal/storage"
)

var (
	exportFormat string
	exportOut    string
	exportAppend bool
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json, jsonl or bibtex")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to this file instead of stdout")
	exportCmd.Flags().BoolVar(&exportAppend, "append", false, "BibTeX only: append papers the --out file does not already cite")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export papers as JSON, JSONL or BibTeX",
	Long: `Export every saved paper, migrated to the current schema.

Examples:
  shelf export > papers.json
  shelf export --format jsonl --out papers.jsonl
  shelf export --format bibtex --out refs.bib --append`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// ExportResponse is the response for an export written to a file.
type ExportResponse struct {
	Status string `json:"status"`
	Format string `json:"format"`
	Path   string `json:"path"`
	Count  int    `json:"count"`
}

func runExport(cmd *cobra.Command, args []string) error {
	switch exportFormat {
	case "json", "jsonl", "bibtex":
	default:
		exitWithError(ExitError, "unknown format %q (valid: json, jsonl, bibtex)", exportFormat)
	}
	if exportAppend && (exportFormat != "bibtex" || exportOut == "") {
		exitWithError(ExitError, "--append requires --format bibtex and --out")
	}

	store := mustOpenStore()
	defer store.Close()

	papers, err := openLibrary(store).Papers(context.Background())
	if err != nil {
		exitWithErr(err, "reading papers")
	}

	if exportOut == "" {
		if err := writeExport(os.Stdout, exportFormat, papers); err != nil {
			exitWithError(ExitError, "exporting: %v", err)
		}
		return nil
	}

	count, err := exportToFile(exportOut, exportFormat, papers, exportAppend)
	if err != nil {
		exitWithError(ExitError, "exporting to %s: %v", exportOut, err)
	}

	if humanOutput {
		outputHuman("Exported %d paper(s) to %s\n", count, exportOut)
		return nil
	}
	return outputJSON(ExportResponse{Status: "exported", Format: exportFormat, Path: exportOut, Count: count})
}

func writeExport(w io.Writer, format string, papers []paper.Record) error {
	switch format {
	case "jsonl":
		return storage.EncodeJSONL(w, papers)
	case "bibtex":
		_, err := fmt.Fprint(w, export.ToBibTeXList(papers))
		return err
	default:
		return storage.EncodeJSON(w, papers)
	}
}

// exportToFile writes papers to path and returns how many were written.
func exportToFile(path, format string, papers []paper.Record, appendOnly bool) (int, error) {
	switch format {
	case "jsonl":
		return len(papers), storage.WriteJSONL(path, papers)
	case "bibtex":
		if appendOnly {
			idx, err := export.ParseBibTeXFile(path)
			if err != nil {
				return 0, fmt.Errorf("reading existing entries: %w", err)
			}
			missing := idx.Missing(papers)
			if len(missing) == 0 {
				return 0, nil
			}
			return len(missing), export.AppendToBibFile(path, export.ToBibTeXList(missing))
		}
		return len(papers), os.WriteFile(path, []byte(export.ToBibTeXList(papers)), 0644)
	default:
		return len(papers), storage.WriteJSON(path, papers)
	}
}
