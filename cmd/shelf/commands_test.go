package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/papershelf/internal/feedback"
	"github.com/matsen/papershelf/internal/library"
	"github.com/matsen/papershelf/internal/paper"
	"github.com/matsen/papershelf/internal/pdf"
	"github.com/matsen/papershelf/internal/validate"
)

func TestSummarizeChecks(t *testing.T) {
	ok := validate.Result{Valid: true}
	warned := validate.Result{Valid: true, Warnings: []validate.Issue{{Field: "doi"}}}
	bad := validate.Result{Valid: false, Errors: []validate.Issue{{Field: "title"}}}

	tests := []struct {
		name    string
		checks  []library.Check
		status  string
		invalid int
	}{
		{"empty", nil, feedback.StatusSuccess, 0},
		{"clean", []library.Check{{Result: ok}}, feedback.StatusSuccess, 0},
		{"warnings", []library.Check{{Result: ok}, {Result: warned}}, feedback.StatusWarning, 0},
		{"errors win", []library.Check{{Result: warned}, {Result: bad}}, feedback.StatusError, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarizeChecks(tt.checks)
			if got.Status != tt.status {
				t.Errorf("Status = %q, want %q", got.Status, tt.status)
			}
			if got.Invalid != tt.invalid {
				t.Errorf("Invalid = %d, want %d", got.Invalid, tt.invalid)
			}
			if got.Papers != len(tt.checks) {
				t.Errorf("Papers = %d, want %d", got.Papers, len(tt.checks))
			}
		})
	}
}

func TestFilterChecks(t *testing.T) {
	checks := []library.Check{
		{Index: 0, ID: "abc"},
		{Index: 1, ID: float64(12)},
		{Index: 2},
	}

	if got := filterChecks(checks, "12"); len(got) != 1 || got[0].Index != 1 {
		t.Errorf("filterChecks(12) = %v", got)
	}
	if got := filterChecks(checks, "abc"); len(got) != 1 || got[0].Index != 0 {
		t.Errorf("filterChecks(abc) = %v", got)
	}
	if got := filterChecks(checks, ""); len(got) != 0 {
		t.Errorf("filterChecks(\"\") should not match records without an id, got %v", got)
	}
}

func TestApplyPDF(t *testing.T) {
	rec := paper.Record{paper.FieldID: "1", paper.FieldTitle: "T"}
	applyPDF(rec, "/papers/t.pdf", pdf.Info{Pages: 3, DOI: "10.1234/ABC"})

	if rec[paper.FieldPDFPath] != "/papers/t.pdf" || rec[paper.FieldPDFFilename] != "t.pdf" {
		t.Errorf("pdf reference not recorded: %v", rec)
	}
	if rec[paper.FieldHasPDF] != true || rec[paper.FieldPDFSource] != "local" {
		t.Errorf("pdf flags not set: %v", rec)
	}
	if want := paper.DOIPrefix + "10.1234/ABC"; rec[paper.FieldDOI] != want {
		t.Errorf("doi = %v, want %s", rec[paper.FieldDOI], want)
	}

	existing := paper.Record{paper.FieldDOI: "10.9999/keep"}
	applyPDF(existing, "/papers/x.pdf", pdf.Info{DOI: "10.1234/other"})
	if existing[paper.FieldDOI] != "10.9999/keep" {
		t.Errorf("existing doi overwritten: %v", existing[paper.FieldDOI])
	}
}

func exportFixture() []paper.Record {
	return []paper.Record{
		{
			paper.FieldID:       "1",
			paper.FieldTitle:    "Attention Is All You Need",
			paper.FieldAuthors:  []any{map[string]any{"firstName": "Ashish", "lastName": "Vaswani"}},
			paper.FieldYear:     "2017",
			paper.FieldItemType: "inproceedings",
			paper.FieldDOI:      "10.5555/3295222",
		},
		{
			paper.FieldID:       "2",
			paper.FieldTitle:    "Deep Residual Learning",
			paper.FieldAuthors:  []any{map[string]any{"firstName": "Kaiming", "lastName": "He"}},
			paper.FieldYear:     "2016",
			paper.FieldItemType: "article",
		},
	}
}

func TestWriteExport(t *testing.T) {
	papers := exportFixture()

	var buf bytes.Buffer
	if err := writeExport(&buf, "jsonl", papers); err != nil {
		t.Fatalf("writeExport(jsonl) error = %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 2 {
		t.Errorf("jsonl export has %d lines, want 2", len(lines))
	}

	buf.Reset()
	if err := writeExport(&buf, "json", papers); err != nil {
		t.Fatalf("writeExport(json) error = %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json export is not an array: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("json export has %d papers, want 2", len(decoded))
	}

	buf.Reset()
	if err := writeExport(&buf, "bibtex", papers); err != nil {
		t.Fatalf("writeExport(bibtex) error = %v", err)
	}
	if !strings.Contains(buf.String(), "@inproceedings{Vaswani2017,") {
		t.Errorf("bibtex export missing entry:\n%s", buf.String())
	}
}

func TestExportToFileAppend(t *testing.T) {
	papers := exportFixture()
	path := filepath.Join(t.TempDir(), "refs.bib")

	n, err := exportToFile(path, "bibtex", papers[:1], false)
	if err != nil || n != 1 {
		t.Fatalf("exportToFile() = %d, %v", n, err)
	}

	n, err = exportToFile(path, "bibtex", papers, true)
	if err != nil {
		t.Fatalf("exportToFile(append) error = %v", err)
	}
	if n != 1 {
		t.Errorf("append wrote %d entries, want 1", n)
	}

	n, err = exportToFile(path, "bibtex", papers, true)
	if err != nil || n != 0 {
		t.Errorf("second append = %d, %v; want nothing new", n, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if c := strings.Count(string(data), "@"); c != 2 {
		t.Errorf("bib file has %d entries, want 2", c)
	}
}

func TestReadImport(t *testing.T) {
	dir := t.TempDir()

	jsonl := filepath.Join(dir, "papers.jsonl")
	if err := os.WriteFile(jsonl, []byte("{\"title\":\"A\"}\n{\"title\":\"B\"}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	records, unconverted, err := readImport(jsonl, "shelf")
	if err != nil || len(records) != 2 || len(unconverted) != 0 {
		t.Errorf("readImport(shelf) = %d records, %v, %v", len(records), unconverted, err)
	}

	pp := filepath.Join(dir, "paperpile.json")
	if err := os.WriteFile(pp, []byte(`[{"citekey":"A1","title":"A"},{"citekey":"NoTitle"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	records, unconverted, err = readImport(pp, "paperpile")
	if err != nil {
		t.Fatalf("readImport(paperpile) error = %v", err)
	}
	if len(records) != 1 || len(unconverted) != 1 {
		t.Errorf("readImport(paperpile) = %d records, %v", len(records), unconverted)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"not": "an array"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := readImport(bad, "paperpile"); err == nil {
		t.Error("readImport() should fail on a malformed Paperpile export")
	}

	if _, _, err := readImport(jsonl, "zotero"); err == nil {
		t.Error("readImport() should reject unknown formats")
	}
}
