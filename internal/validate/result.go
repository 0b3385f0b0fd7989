package validate

import "fmt"

// Severity classifies an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found on a record.
type Issue struct {
	Field      string   `json:"field"`
	Message    string   `json:"message"`
	Value      any      `json:"value,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	Severity   Severity `json:"severity"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// Result is the outcome of validating one record. Valid is true iff Errors
// is empty; warnings never make a record invalid.
type Result struct {
	Valid         bool    `json:"valid"`
	Errors        []Issue `json:"errors"`
	Warnings      []Issue `json:"warnings"`
	SchemaVersion string  `json:"schemaVersion"`
}

// HasIssues reports whether the result carries any error or warning.
func (r Result) HasIssues() bool {
	return len(r.Errors) > 0 || len(r.Warnings) > 0
}
