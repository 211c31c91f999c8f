package discovery

import "errors"

// Common errors returned by the discovery package.
var (
	// ErrNoTranscriptsFound is returned when no transcript files are discovered.
	ErrNoTranscriptsFound = errors.New("no transcript files found")

	// ErrInvalidPath is returned when a path is invalid or inaccessible.
	ErrInvalidPath = errors.New("invalid or inaccessible path")
)
