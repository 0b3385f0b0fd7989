package library

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/papershelf/internal/validate"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("paper not found")

	// ErrDuplicate is returned when a record with the same title or URL is
	// already saved.
	ErrDuplicate = errors.New("paper already saved")
)

// InvalidRecordError is returned when a record still has hard validation
// errors after migration.
type InvalidRecordError struct {
	Result validate.Result
}

func (e *InvalidRecordError) Error() string {
	msgs := make([]string, len(e.Result.Errors))
	for i, issue := range e.Result.Errors {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("invalid record: %s", strings.Join(msgs, "; "))
}
