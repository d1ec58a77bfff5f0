package config

import (
	"errors"
	"fmt"
)

// Validation errors returned by Config.Validate. Sentinels so callers
// can branch with errors.Is while the messages stay human-readable.
var (
	// ErrNoStartURL is returned when no start URL was given.
	ErrNoStartURL = errors.New("no start URL specified: provide one or more URLs as arguments")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the inter-request delay is
	// negative. Use 0 for no delay.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidConcurrency is returned when the worker count is not
	// positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the site batch size is not
	// positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when more than one of
	// --json, --markdown, --csv is given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json, --markdown and --csv are mutually exclusive")

	// ErrInvalidIgnorePattern tags pattern compilation failures; the
	// wrapped PatternError names the offending pattern.
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern")
)

// PatternError reports an ignore pattern that failed to compile.
type PatternError struct {
	// Pattern is the offending expression as given on the command line.
	Pattern string

	// Err is the regexp compilation error.
	Err error
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid ignore pattern %q: %v", e.Pattern, e.Err)
}

// Is lets errors.Is match PatternError against ErrInvalidIgnorePattern.
func (e *PatternError) Is(target error) bool {
	return target == ErrInvalidIgnorePattern
}

// Unwrap returns the regexp compilation error.
func (e *PatternError) Unwrap() error {
	return e.Err
}
