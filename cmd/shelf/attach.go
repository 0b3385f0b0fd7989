package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/normalize"
	"github.com/matsen/papershelf/internal/paper"
	"github.com/matsen/papershelf/internal/pdf"
)

func init() {
	rootCmd.AddCommand(attachCmd)
}

var attachCmd = &cobra.Command{
	Use:   "attach <id> <pdf>",
	Short: "Link a local PDF to a paper",
	Long: `Link a local PDF file to a saved paper.

The PDF is inspected for a DOI, which fills the paper's DOI when it has none.

Example:
  shelf attach 12 ~/Downloads/attention.pdf`,
	Args: cobra.ExactArgs(2),
	RunE: runAttach,
}

// AttachResponse is the response for the attach command.
type AttachResponse struct {
	Record paper.Record `json:"record"`
	PDF    pdf.Info     `json:"pdf"`
}

func runAttach(cmd *cobra.Command, args []string) error {
	id := args[0]
	path, err := filepath.Abs(args[1])
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}

	info, err := pdf.Inspect(path)
	if err != nil {
		exitWithError(ExitDataError, "inspecting %s: %v", path, err)
	}

	store := mustOpenStore()
	defer store.Close()

	rec, err := openLibrary(store).Update(context.Background(), id, func(r paper.Record) error {
		applyPDF(r, path, info)
		return nil
	})
	if err != nil {
		exitWithErr(err, "attaching pdf")
	}

	if humanOutput {
		outputHuman("Attached %s (%d pages) to %s\n", filepath.Base(path), info.Pages, rec.IDString())
		if info.DOI != "" {
			outputHuman("DOI found: %s\n", info.DOI)
		}
		return nil
	}
	return outputJSON(AttachResponse{Record: rec, PDF: info})
}

// applyPDF records a local PDF on r, filling a missing DOI from the file.
func applyPDF(r paper.Record, path string, info pdf.Info) {
	r[paper.FieldPDFPath] = path
	r[paper.FieldPDFFilename] = filepath.Base(path)
	r[paper.FieldPDFSource] = "local"
	r[paper.FieldHasPDF] = true
	if !r.Truthy(paper.FieldDOI) && info.DOI != "" {
		r[paper.FieldDOI] = normalize.DOI(info.DOI)
	}
}
