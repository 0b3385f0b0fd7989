package main

import (
	"errors"

	"github.com/matsen/papershelf/internal/config"
	"github.com/matsen/papershelf/internal/library"
	"github.com/matsen/papershelf/internal/migrate"
)

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (bad config file or environment)
	ExitDataError   = 3 // Data error (malformed input, validation failure, duplicate)
)

// exitCodeFor maps an error to the exit code the CLI reports for it.
func exitCodeFor(err error) int {
	var invalid *library.InvalidRecordError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	case errors.As(err, &invalid),
		errors.Is(err, library.ErrDuplicate),
		errors.Is(err, migrate.ErrNotARecord):
		return ExitDataError
	default:
		return ExitError
	}
}
