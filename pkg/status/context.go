package status

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/avidel/ccstatusline/pkg/parser"
)

// Context limits. Claude Code compacts the context before the nominal
// 200k limit unless auto-compaction is disabled.
const (
	compactedContextLimit = 155_000
	fullContextLimit      = 200_000
)

// claudeSettings is the slice of ~/.claude.json this package reads.
type claudeSettings struct {
	AutoCompactEnabled *bool `json:"autoCompactEnabled"`
}

// contextLimit returns the effective context-window limit, reading the
// auto-compaction setting from settingsPath. Any read or decode
// trouble falls back to the compacted limit.
func contextLimit(settingsPath string) int {
	raw, err := os.ReadFile(settingsPath)
	if err != nil {
		return compactedContextLimit
	}

	var settings claudeSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return compactedContextLimit
	}

	if settings.AutoCompactEnabled != nil && !*settings.AutoCompactEnabled {
		return fullContextLimit
	}
	return compactedContextLimit
}

// defaultSettingsPath locates ~/.claude.json.
func defaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude.json")
}

// contextFromEntries derives context-window occupancy from the last
// transcript entry: its input plus cache tokens are what occupies the
// window right now.
func contextFromEntries(entries []parser.UsageEntry, limit int) *ContextInfo {
	if len(entries) == 0 || limit <= 0 {
		return nil
	}

	tokens := entries[len(entries)-1].Message.Usage.ContextTokens()

	percentage := tokens * 100 / limit
	if percentage > 100 {
		percentage = 100
	}

	return &ContextInfo{
		Tokens:     tokens,
		Limit:      limit,
		Percentage: percentage,
	}
}
