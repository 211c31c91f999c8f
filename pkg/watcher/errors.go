package watcher

import "errors"

// Watcher errors.
var (
	// ErrNothingToWatch indicates none of the requested directories
	// exist.
	ErrNothingToWatch = errors.New("no watchable directories")
)
