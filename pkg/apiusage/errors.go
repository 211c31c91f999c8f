package apiusage

import "errors"

// API usage errors.
var (
	// ErrNotConfigured indicates the client lacks the org ID or
	// session key needed to call the usage endpoint.
	ErrNotConfigured = errors.New("usage API credentials not configured")

	// ErrFetchFailed indicates the usage endpoint could not be reached
	// or its response could not be decoded.
	ErrFetchFailed = errors.New("failed to fetch usage snapshot")
)
