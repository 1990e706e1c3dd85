package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() for programmatic handling.
var (
	// ErrNoDirectory is returned when no source directory is specified.
	ErrNoDirectory = errors.New("no directory specified")

	// ErrInvalidWorkers is returned when the worker count is out of range.
	ErrInvalidWorkers = errors.New("invalid workers: must be between 1 and 64")

	// ErrInvalidPattern is returned when an exclude pattern is malformed.
	ErrInvalidPattern = errors.New("invalid exclude pattern")

	// ErrNoDBDir is returned when the cache or history is enabled without a store location.
	ErrNoDBDir = errors.New("cache or history enabled but no database directory set")
)
