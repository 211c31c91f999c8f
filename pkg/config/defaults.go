package config

import (
	"os"
	"path/filepath"
)

// defaultClaudeDirs returns the default Claude Code data directories.
//
// Searches in order:
// 1. ~/.config/claude/projects/ (new default)
// 2. ~/.claude/projects/ (legacy)
//
// Returns all directories that exist on the filesystem.
func defaultClaudeDirs() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir not available
		return []string{"."}
	}

	candidates := []string{
		filepath.Join(homeDir, ".config", "claude", "projects"),
		filepath.Join(homeDir, ".claude", "projects"),
	}

	var dirs []string
	for _, dir := range candidates {
		if _, err := os.Stat(dir); err == nil {
			dirs = append(dirs, dir)
		}
	}

	// If no directories found, return the new default path
	if len(dirs) == 0 {
		return []string{filepath.Join(homeDir, ".config", "claude", "projects")}
	}

	return dirs
}

// defaultRuntimeDir returns the per-user runtime cache directory.
//
// Prefers $XDG_RUNTIME_DIR/ccstatusline (cleared on reboot, which is the
// desired lifetime for output and usage-snapshot caches). Falls back to a
// per-user subdirectory of the system temp dir.
func defaultRuntimeDir() string {
	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		return filepath.Join(runtime, "ccstatusline")
	}

	return filepath.Join(os.TempDir(), "ccstatusline")
}

// defaultPricingDBPath returns the default pricing cache database path.
//
// Lives under ~/.config (not the runtime dir) so the 24h pricing TTL
// survives reboots.
//
// Returns: ~/.config/ccstatusline/pricing.db.
func defaultPricingDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./pricing.db"
	}

	return filepath.Join(homeDir, ".config", "ccstatusline", "pricing.db")
}

// defaultConfigPath returns the default configuration file path.
//
// Returns: ~/.config/ccstatusline/config.yaml.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "ccstatusline", "config.yaml")
}
