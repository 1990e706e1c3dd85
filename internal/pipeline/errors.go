package pipeline

import "errors"

var (
	// ErrArgumentMissing is returned when no directory was given. The driver
	// treats it as benign.
	ErrArgumentMissing = errors.New("folder path argument missing")

	// ErrLocked is returned when another run holds the directory lock.
	ErrLocked = errors.New("another run is already processing this directory")

	// ErrPartialFailure is returned in keep-going mode when the manifest was
	// written but at least one file could not be processed.
	ErrPartialFailure = errors.New("some files could not be processed")
)
