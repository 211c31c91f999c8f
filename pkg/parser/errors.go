package parser

import "errors"

// Common errors returned by the parser package.
var (
	// ErrMalformedJSON is returned when a line is not valid JSON.
	ErrMalformedJSON = errors.New("malformed JSON line")

	// ErrInvalidTimestamp is returned when an entry has a zero timestamp.
	ErrInvalidTimestamp = errors.New("invalid timestamp: must not be zero")

	// ErrMissingUsage is returned when an entry has no usage payload.
	// Transcript lines without usage (tool results, user turns) are
	// expected and skipped, not counted as data errors.
	ErrMissingUsage = errors.New("entry has no usage payload")

	// ErrNegativeTokenCount is returned when a token count is negative.
	ErrNegativeTokenCount = errors.New("negative token count")

	// ErrFileTooLarge is returned when a JSONL file exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum size")
)
