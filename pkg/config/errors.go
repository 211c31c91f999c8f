package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrNoClaudeDirs is returned when no Claude config directories are specified.
	ErrNoClaudeDirs = errors.New("no Claude config directories specified")

	// ErrInvalidOutputTTL is returned when the output cache TTL is <= 0.
	ErrInvalidOutputTTL = errors.New("invalid output cache TTL: must be > 0")

	// ErrInvalidAPIUsageTTL is returned when a usage snapshot TTL is <= 0.
	ErrInvalidAPIUsageTTL = errors.New("invalid API usage TTL: must be > 0")

	// ErrStaleBelowFresh is returned when the hard-stale ceiling is below the fresh window.
	ErrStaleBelowFresh = errors.New("invalid API usage TTL: stale ceiling below fresh window")

	// ErrInvalidLockWait is returned when the lock wait bound is <= 0.
	ErrInvalidLockWait = errors.New("invalid lock wait: must be > 0")

	// ErrInvalidPricingTTL is returned when the pricing table TTL is <= 0.
	ErrInvalidPricingTTL = errors.New("invalid pricing TTL: must be > 0")

	// ErrInvalidFetchTimeout is returned when a network fetch timeout is <= 0.
	ErrInvalidFetchTimeout = errors.New("invalid fetch timeout: must be > 0")

	// ErrInvalidElement is returned when a display element is not recognized.
	ErrInvalidElement = errors.New("invalid display element")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
