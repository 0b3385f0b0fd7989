// Package feedback turns validation results into user-facing summaries and
// into a repair prompt that can be pasted into an AI assistant.
package feedback

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matsen/papershelf/internal/paper"
	"github.com/matsen/papershelf/internal/validate"
)

// Status values of a Summary.
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Summary is a one-line verdict plus optional per-field details.
type Summary struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Feedback bundles a validation result with its summary and repair prompt.
type Feedback struct {
	validate.Result
	Summary Summary `json:"summary"`
	Prompt  string  `json:"aiPrompt,omitempty"`
}

// Summarize condenses a validation result for display.
func Summarize(result validate.Result) Summary {
	switch {
	case result.Valid && len(result.Warnings) == 0:
		return Summary{
			Status:  StatusSuccess,
			Message: "Paper data is valid and complete",
		}
	case result.Valid:
		return Summary{
			Status: StatusWarning,
			Message: fmt.Sprintf("Paper saved with %d warning(s). Data is valid but some recommended fields are missing.",
				len(result.Warnings)),
			Details: details(result.Warnings),
		}
	default:
		return Summary{
			Status:  StatusError,
			Message: fmt.Sprintf("Paper has %d error(s) that should be fixed.", len(result.Errors)),
			Details: details(result.Errors),
		}
	}
}

func details(issues []validate.Issue) string {
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = issue.String()
	}
	return strings.Join(lines, "\n")
}

// RepairPrompt builds instructions for fixing record. It returns false when
// the result has no errors and no warnings.
func RepairPrompt(record any, result validate.Result, version string) (string, bool) {
	if !result.HasIssues() {
		return "", false
	}

	var b strings.Builder
	b.WriteString("I have a research paper metadata object that needs to be fixed to match the required schema. ")
	b.WriteString("Please help me correct the following issues:\n\n")

	b.WriteString("**Current Paper Data:**\n```json\n")
	b.WriteString(indentJSON(record))
	b.WriteString("\n```\n\n")

	if len(result.Errors) > 0 {
		b.WriteString("**Errors (must fix):**\n")
		for i, issue := range result.Errors {
			fmt.Fprintf(&b, "%d. Field %q: %s\n", i+1, issue.Field, issue.Message)
			if issue.Value != nil {
				fmt.Fprintf(&b, "   Current value: %s\n", compactJSON(issue.Value))
			}
			if issue.Suggestion != "" {
				fmt.Fprintf(&b, "   Suggested fix: %s\n", compactJSON(issue.Suggestion))
			}
		}
		b.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		b.WriteString("**Warnings (recommended to fix):**\n")
		for i, issue := range result.Warnings {
			fmt.Fprintf(&b, "%d. Field %q: %s\n", i+1, issue.Field, issue.Message)
			if issue.Value != nil {
				fmt.Fprintf(&b, "   Current value: %s\n", compactJSON(issue.Value))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("**Requirements:**\n")
	fmt.Fprintf(&b, "- _schemaVersion must be %q\n", version)
	b.WriteString(`- authors must be an array of objects like [{"fullName": "John Doe", "firstName": "John", "lastName": "Doe"}]` + "\n")
	b.WriteString(`- doi must be full URL format: "https://doi.org/10.xxxx/xxxxx"` + "\n")
	b.WriteString(`- dateAdded must be ISO 8601 format: "2024-11-14T10:30:00.000Z"` + "\n")
	b.WriteString(`- year must be 4-digit string: "2024"` + "\n")
	fmt.Fprintf(&b, "- itemType must be one of: %s\n", strings.Join(paper.ItemTypes, ", "))
	b.WriteString(`- keywords should be an array of strings: ["machine learning", "neural networks"]` + "\n\n")
	b.WriteString("Please return the corrected JSON object that passes all validation requirements.")

	return b.String(), true
}

// WithFeedback validates record and attaches the summary and, when there is
// anything to fix, the repair prompt.
func WithFeedback(v *validate.Validator, record any) Feedback {
	result := v.Validate(record)
	prompt, _ := RepairPrompt(record, result, v.Version())
	return Feedback{
		Result:  result,
		Summary: Summarize(result),
		Prompt:  prompt,
	}
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
