package pricing

import "errors"

// Pricing errors.
var (
	// ErrFetchFailed indicates the upstream pricing JSON could not be
	// retrieved or decoded.
	ErrFetchFailed = errors.New("failed to fetch pricing table")

	// ErrNoCachedTable indicates the durable cache holds no table.
	ErrNoCachedTable = errors.New("no cached pricing table")

	// ErrEmptyTable indicates a fetched or cached table contained no
	// usable model entries.
	ErrEmptyTable = errors.New("pricing table is empty")
)
