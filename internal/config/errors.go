package config

import "errors"

// Settings validation errors.
// Package-level sentinel errors so callers can use errors.Is while the
// messages stay human-readable.
var (
	// ErrNoTarget is returned when no HTML file or URL was given to scan.
	ErrNoTarget = errors.New("no target specified: provide an HTML file or URL")

	// ErrInvalidBatchSize is returned when the classification group size is
	// not positive. Zero would mean nothing is ever classified.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidYieldInterval is returned when the pause between
	// classification groups is negative.
	ErrInvalidYieldInterval = errors.New("invalid yield interval: must be non-negative")

	// ErrInvalidDebounceWindow is returned when the notification coalescing
	// window is negative.
	ErrInvalidDebounceWindow = errors.New("invalid debounce window: must be non-negative")

	// ErrInvalidMinTextLength is returned when the minimum fragment length
	// is negative. Use 0 to classify every fragment.
	ErrInvalidMinTextLength = errors.New("invalid minimum text length: must be non-negative")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCacheMaxAge is returned when the cache retention window is
	// negative. Use 0 to keep cached verdicts forever.
	ErrInvalidCacheMaxAge = errors.New("invalid cache max age: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are requested. Only one report format can be produced.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
