package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/paper"
	"github.com/matsen/papershelf/internal/pdf"
)

func init() {
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open a paper's attached PDF",
	Long: `Open the PDF attached with 'shelf attach' in the configured viewer.

The viewer is set by pdf_reader in the config file (system, skim, preview,
zathura, evince or okular).`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func runOpen(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	store := mustOpenStore()
	defer store.Close()

	rec, err := openLibrary(store).Get(context.Background(), args[0])
	if err != nil {
		exitWithErr(err, "getting paper")
	}

	path := rec.String(paper.FieldPDFPath)
	if path == "" {
		exitWithError(ExitError, "paper %s has no attached PDF (use 'shelf attach')", args[0])
	}

	if err := pdf.NewOpener(cfg.PDFReader).Open(path); err != nil {
		exitWithError(ExitError, "opening PDF: %v", err)
	}

	if humanOutput {
		outputHuman("Opened %s\n", path)
		return nil
	}
	return outputJSON(StatusResponse{Status: "opened", ID: rec.IDString(), Path: path})
}
