// Package config provides configuration management for ccstatusline.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file
// 3. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Claude dirs: %v\n", cfg.ClaudeConfigDirs)
package config

import (
	"time"
)

// Config represents the complete application configuration.
//
// Invariants:
// - ClaudeConfigDirs must have at least one directory
// - All TTLs must be > 0
// - Cache.APIUsageStaleTTL must be >= Cache.APIUsageFreshTTL
// - All network timeouts must be > 0.
type Config struct {
	// Claude data directories holding project transcript logs
	ClaudeConfigDirs []string `yaml:"claude_config_dirs"`

	// Cache settings (runtime-dir caches and their TTLs)
	Cache CacheConfig `yaml:"cache"`

	// Pricing settings (durable pricing table cache and fetch)
	Pricing PricingConfig `yaml:"pricing"`

	// API settings (remote usage snapshot fetch)
	API APIConfig `yaml:"api"`

	// Display settings
	Display DisplayConfig `yaml:"display"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig contains settings for the runtime-directory caches.
//
// The rendered-output cache and the API usage cache live here. Both are
// ephemeral: they survive process exit but not a reboot.
type CacheConfig struct {
	// Directory for cache entry and lock files.
	// Empty means $XDG_RUNTIME_DIR/ccstatusline with a temp-dir fallback.
	RuntimeDir string `yaml:"runtime_dir"`

	// OutputTTL is the freshness window for rendered statusline output.
	OutputTTL time.Duration `yaml:"output_ttl"`

	// APIUsageFreshTTL is the age below which a usage snapshot is served
	// without any network activity.
	APIUsageFreshTTL time.Duration `yaml:"api_usage_fresh_ttl"`

	// APIUsageStaleTTL is the hard ceiling: snapshots older than this are
	// discarded and refetched synchronously.
	APIUsageStaleTTL time.Duration `yaml:"api_usage_stale_ttl"`

	// LockWait bounds how long a process waits for a lock held by a
	// concurrent invocation before degrading to uncached computation.
	LockWait time.Duration `yaml:"lock_wait"`
}

// PricingConfig contains settings for the pricing table.
type PricingConfig struct {
	// Path to the durable BoltDB pricing cache.
	// Durable (not the runtime dir) so the 24h TTL survives reboots.
	DBPath string `yaml:"db_path"`

	// TTL is the pricing table freshness window.
	TTL time.Duration `yaml:"ttl"`

	// FetchTimeout bounds the pricing table network fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// URL of the pricing table. Empty means the LiteLLM default.
	URL string `yaml:"url"`
}

// APIConfig contains settings for the remote usage API.
type APIConfig struct {
	// Enabled toggles remote usage fetching entirely.
	Enabled bool `yaml:"enabled"`

	// BaseURL of the usage API. Empty means the claude.ai default.
	BaseURL string `yaml:"base_url"`

	// OrgID is the organization whose quota windows are queried.
	OrgID string `yaml:"org_id"`

	// SessionKey authenticates the usage request. Usually supplied via
	// the CCSTATUSLINE_SESSION_KEY environment variable instead.
	SessionKey string `yaml:"session_key"`

	// FetchTimeout bounds the usage snapshot network fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// DisplayConfig contains display-related settings.
type DisplayConfig struct {
	// Elements lists the statusline elements to render, in order.
	// Valid: model, block_cost, time_remaining, burn_rate, context,
	// api_usage_5h, api_usage_7d.
	Elements []string `yaml:"elements"`

	// Separator between rendered elements.
	Separator string `yaml:"separator"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stderr or a file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// validElements enumerates the recognized statusline elements.
var validElements = map[string]bool{
	"model":          true,
	"block_cost":     true,
	"time_remaining": true,
	"burn_rate":      true,
	"context":        true,
	"api_usage_5h":   true,
	"api_usage_7d":   true,
}

// Validate checks if the configuration satisfies all invariants.
//
// Returns an error if any invariant is violated:
//   - No Claude config directories specified
//   - Non-positive TTLs or timeouts
//   - Stale ceiling below the fresh window
//   - Unrecognized display element
//   - Invalid log level or format
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if len(c.ClaudeConfigDirs) == 0 {
		return ErrNoClaudeDirs
	}

	// Validate cache config
	if c.Cache.OutputTTL <= 0 {
		return ErrInvalidOutputTTL
	}
	if c.Cache.APIUsageFreshTTL <= 0 || c.Cache.APIUsageStaleTTL <= 0 {
		return ErrInvalidAPIUsageTTL
	}
	if c.Cache.APIUsageStaleTTL < c.Cache.APIUsageFreshTTL {
		return ErrStaleBelowFresh
	}
	if c.Cache.LockWait <= 0 {
		return ErrInvalidLockWait
	}

	// Validate pricing config
	if c.Pricing.TTL <= 0 {
		return ErrInvalidPricingTTL
	}
	if c.Pricing.FetchTimeout <= 0 {
		return ErrInvalidFetchTimeout
	}

	// Validate API config
	if c.API.Enabled && c.API.FetchTimeout <= 0 {
		return ErrInvalidFetchTimeout
	}

	// Validate display config
	for _, el := range c.Display.Elements {
		if !validElements[el] {
			return ErrInvalidElement
		}
	}

	// Validate logging config
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with sensible default values.
//
// TTL defaults mirror the cache coordination design: 30s output cache,
// 30s fresh / 5min hard-stale usage snapshot, 24h pricing table.
func Default() *Config {
	return &Config{
		ClaudeConfigDirs: defaultClaudeDirs(),
		Cache: CacheConfig{
			RuntimeDir:       defaultRuntimeDir(),
			OutputTTL:        30 * time.Second,
			APIUsageFreshTTL: 30 * time.Second,
			APIUsageStaleTTL: 5 * time.Minute,
			LockWait:         2 * time.Second,
		},
		Pricing: PricingConfig{
			DBPath:       defaultPricingDBPath(),
			TTL:          24 * time.Hour,
			FetchTimeout: 10 * time.Second,
		},
		API: APIConfig{
			Enabled:      true,
			FetchTimeout: 5 * time.Second,
		},
		Display: DisplayConfig{
			Elements: []string{
				"model",
				"block_cost",
				"time_remaining",
				"burn_rate",
				"context",
				"api_usage_5h",
				"api_usage_7d",
			},
			Separator: " │ ",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Output: "stderr",
			Format: "text",
		},
	}
}
