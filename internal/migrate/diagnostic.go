package migrate

import (
	"errors"
	"fmt"
)

// ErrNotARecord is returned when a collection element is not a JSON object.
var ErrNotARecord = errors.New("not a paper record")

// Level is the severity of a migration diagnostic.
type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Diagnostic describes a non-fatal problem found while migrating.
// Index is the position in the collection, or -1 for a single record.
type Diagnostic struct {
	Level   Level  `json:"level"`
	Index   int    `json:"index"`
	ID      any    `json:"id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (d Diagnostic) String() string {
	loc := "record"
	if d.Index >= 0 {
		loc = fmt.Sprintf("record %d", d.Index)
	}
	if d.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", d.Level, loc, d.Message, d.Err)
	}
	return fmt.Sprintf("%s: %s: %s", d.Level, loc, d.Message)
}

// Failure records a collection element that could not be migrated and was
// passed through unchanged.
type Failure struct {
	Index int    `json:"index"`
	Err   error  `json:"-"`
	Cause string `json:"cause"`
}

// Report summarizes a collection migration.
type Report struct {
	Total    int          `json:"total"`
	Migrated int          `json:"migrated"`
	Current  int          `json:"current"`
	Failed   int          `json:"failed"`
	Failures []Failure    `json:"failures"`
	Warnings []Diagnostic `json:"warnings"`
}
