package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for config file in:
// 1. ./config.yaml (current directory)
// 2. ~/.config/ccstatusline/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	// Start with default configuration
	cfg := Default()

	// Find config file path
	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	// Load from file if it exists
	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// If file is specified but can't be loaded, return error
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
			// Otherwise, just use defaults
		} else {
			cfg = l.mergeConfigs(cfg, fileCfg)
		}
	}

	// Apply environment variable overrides
	cfg = l.applyEnvVars(cfg)

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile searches for a config file in standard locations.
//
// Returns empty string if no config file is found.
func (l *loader) findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		defaultConfigPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only if they are non-zero.
func (l *loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	// Merge Claude directories
	if len(override.ClaudeConfigDirs) > 0 {
		result.ClaudeConfigDirs = override.ClaudeConfigDirs
	}

	// Merge cache config
	if override.Cache.RuntimeDir != "" {
		result.Cache.RuntimeDir = override.Cache.RuntimeDir
	}
	if override.Cache.OutputTTL > 0 {
		result.Cache.OutputTTL = override.Cache.OutputTTL
	}
	if override.Cache.APIUsageFreshTTL > 0 {
		result.Cache.APIUsageFreshTTL = override.Cache.APIUsageFreshTTL
	}
	if override.Cache.APIUsageStaleTTL > 0 {
		result.Cache.APIUsageStaleTTL = override.Cache.APIUsageStaleTTL
	}
	if override.Cache.LockWait > 0 {
		result.Cache.LockWait = override.Cache.LockWait
	}

	// Merge pricing config
	if override.Pricing.DBPath != "" {
		result.Pricing.DBPath = override.Pricing.DBPath
	}
	if override.Pricing.TTL > 0 {
		result.Pricing.TTL = override.Pricing.TTL
	}
	if override.Pricing.FetchTimeout > 0 {
		result.Pricing.FetchTimeout = override.Pricing.FetchTimeout
	}
	if override.Pricing.URL != "" {
		result.Pricing.URL = override.Pricing.URL
	}

	// Merge API config
	// Enabled is a bool, so we always take the override value
	result.API.Enabled = override.API.Enabled
	if override.API.BaseURL != "" {
		result.API.BaseURL = override.API.BaseURL
	}
	if override.API.OrgID != "" {
		result.API.OrgID = override.API.OrgID
	}
	if override.API.SessionKey != "" {
		result.API.SessionKey = override.API.SessionKey
	}
	if override.API.FetchTimeout > 0 {
		result.API.FetchTimeout = override.API.FetchTimeout
	}

	// Merge display config
	if len(override.Display.Elements) > 0 {
		result.Display.Elements = override.Display.Elements
	}
	if override.Display.Separator != "" {
		result.Display.Separator = override.Display.Separator
	}

	// Merge logging config
	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - CLAUDE_CONFIG_DIR: Comma-separated list of Claude directories
//   - CCSTATUSLINE_CACHE_DIR: Runtime cache directory
//   - CCSTATUSLINE_SESSION_KEY: Usage API session key
//   - CCSTATUSLINE_ORG_ID: Usage API organization ID
//   - CCSTATUSLINE_LOG_LEVEL: Log level
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := *cfg

	// CLAUDE_CONFIG_DIR: comma-separated paths
	if envDirs := os.Getenv("CLAUDE_CONFIG_DIR"); envDirs != "" {
		dirs := strings.Split(envDirs, ",")
		for i := range dirs {
			dirs[i] = strings.TrimSpace(dirs[i])
		}
		result.ClaudeConfigDirs = dirs
	}

	// CCSTATUSLINE_CACHE_DIR: runtime cache directory
	if cacheDir := os.Getenv("CCSTATUSLINE_CACHE_DIR"); cacheDir != "" {
		result.Cache.RuntimeDir = cacheDir
	}

	// CCSTATUSLINE_SESSION_KEY: usage API credential
	if key := os.Getenv("CCSTATUSLINE_SESSION_KEY"); key != "" {
		result.API.SessionKey = key
	}

	// CCSTATUSLINE_ORG_ID: usage API organization
	if org := os.Getenv("CCSTATUSLINE_ORG_ID"); org != "" {
		result.API.OrgID = org
	}

	// CCSTATUSLINE_LOG_LEVEL: log level
	if logLevel := os.Getenv("CCSTATUSLINE_LOG_LEVEL"); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	return &result
}

// Load is a convenience function that creates a loader and loads configuration.
//
// Equivalent to:
//
//	loader := NewLoader("")
//	return loader.Load()
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration from a file.
//
// Equivalent to:
//
//	loader := NewLoader(path)
//	return loader.Load()
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
