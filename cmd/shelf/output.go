package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/papershelf/internal/normalize"
	"github.com/matsen/papershelf/internal/paper"
	"github.com/matsen/papershelf/internal/validate"
)

// Constants for output formatting.
const (
	ListTitleMaxLen   = 60 // Used in list command output
	DetailTitleMaxLen = 70 // Used in get command detail view
	TextWrapWidth     = 60 // Standard text wrap width
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	flushMetrics()
	os.Exit(code)
}

// exitWithErr is exitWithError with the exit code derived from err.
func exitWithErr(err error, format string, args ...any) {
	exitWithError(exitCodeFor(err), "%s: %v", fmt.Sprintf(format, args...), err)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
}

// truncateString shortens s to maxLen runes, marking the cut with "...".
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatAuthorsShort lists up to limit author names, then "et al.".
func formatAuthorsShort(rec paper.Record, limit int) string {
	authors := normalize.Authors(rec[paper.FieldAuthors])
	if len(authors) == 0 {
		return ""
	}

	names := make([]string, 0, limit)
	for i, a := range authors {
		if i == limit {
			break
		}
		name := a.LastName
		if name == "" {
			name = a.FullName
		}
		names = append(names, name)
	}

	out := strings.Join(names, ", ")
	if len(authors) > limit {
		out += " et al."
	}
	return out
}

// wrapText wraps text at width, prefixing continuation lines with indent.
func wrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	lineLen := 0
	for i, w := range words {
		if i > 0 {
			if lineLen+1+len(w) > width {
				b.WriteString("\n" + indent)
				lineLen = 0
			} else {
				b.WriteString(" ")
				lineLen++
			}
		}
		b.WriteString(w)
		lineLen += len(w)
	}
	return b.String()
}

// printRecordDetail prints one record for people.
func printRecordDetail(rec paper.Record) {
	fmt.Println(rec.IDString())
	fmt.Println(strings.Repeat("=", DetailTitleMaxLen))
	fmt.Println()

	fmt.Printf("Title:    %s\n", wrapText(rec.String(paper.FieldTitle), TextWrapWidth, "          "))
	if authors := formatAuthorsShort(rec, 10); authors != "" {
		fmt.Printf("Authors:  %s\n", wrapText(authors, TextWrapWidth, "          "))
	}
	for _, f := range []struct{ label, field string }{
		{"Year", paper.FieldYear},
		{"Journal", "journal"},
		{"Type", paper.FieldItemType},
		{"DOI", paper.FieldDOI},
		{"URL", paper.FieldURL},
		{"Status", paper.FieldStatus},
		{"Priority", paper.FieldPriority},
		{"Added", paper.FieldDateAdded},
		{"PDF", paper.FieldPDFPath},
	} {
		if v := rec.String(f.field); v != "" {
			fmt.Printf("%-9s %s\n", f.label+":", v)
		}
	}

	if kw := normalize.Keywords(rec[paper.FieldKeywords]); len(kw) > 0 {
		fmt.Printf("Keywords: %s\n", strings.Join(kw, ", "))
	}
	if abstract := rec.String(paper.FieldAbstract); abstract != "" {
		fmt.Println()
		fmt.Printf("Abstract: %s\n", wrapText(abstract, TextWrapWidth, "          "))
	}
}

// printIssues prints validation issues, one per line.
func printIssues(issues []validate.Issue) {
	for _, issue := range issues {
		fmt.Printf("  %-7s %s: %s\n", issue.Severity, issue.Field, issue.Message)
		if issue.Suggestion != "" {
			fmt.Printf("          suggested: %s\n", issue.Suggestion)
		}
	}
}
