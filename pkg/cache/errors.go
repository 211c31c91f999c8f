package cache

import "errors"

// Common errors returned by the cache package.
var (
	// ErrCacheMiss is returned when an entry is absent, corrupt, or
	// otherwise unusable. Callers treat all of these identically.
	ErrCacheMiss = errors.New("cache miss")

	// ErrEmptyCacheDir is returned when a store is created without a directory.
	ErrEmptyCacheDir = errors.New("cache directory not specified")
)
