package source

import (
	"errors"
	"fmt"
)

// Enumeration errors. All of them are fatal to a run.
var (
	// ErrPathNotFound is returned when the directory does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrAccessDenied is returned when the directory cannot be read.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotDirectory is returned when the path exists but is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// ListError records a failed directory listing and the path involved.
type ListError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *ListError) Error() string {
	return fmt.Sprintf("list %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ListError) Unwrap() error {
	return e.Err
}
