// Package discovery locates Claude Code transcript files across the
// configured data directories.
//
// It scans each base directory for project subdirectories and collects
// the session JSONL files inside them. Discovery runs in full on every
// invocation: nothing is persisted between processes.
//
// Example usage:
//
//	d := discovery.New([]string{"~/.config/claude/projects"}, logger.Default())
//	transcripts, err := d.Discover()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, tf := range transcripts {
//	    fmt.Printf("Session: %s, Project: %s\n", tf.SessionID, tf.ProjectPath)
//	}
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/avidel/ccstatusline/pkg/logger"
)

// TranscriptFile represents a discovered transcript JSONL file.
type TranscriptFile struct {
	// SessionID is the UUID extracted from the filename.
	SessionID string

	// FilePath is the absolute path to the JSONL file.
	FilePath string

	// ProjectPath is the directory containing the transcript file.
	ProjectPath string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the last modification time (Unix seconds).
	ModTime int64
}

// Discoverer provides methods for discovering Claude Code transcripts.
type Discoverer interface {
	// Discover scans configured directories and returns all transcript
	// files found.
	//
	// Returns:
	//   - Slice of discovered transcript files
	//   - Error if directories cannot be accessed
	//
	// Skips files that don't match the expected pattern (UUID.jsonl).
	// A missing base directory is skipped with a diagnostic, not an error.
	Discover() ([]TranscriptFile, error)

	// MostRecent returns the most recently modified transcript file.
	//
	// Returns:
	//   - The transcript with the newest modification time
	//   - ErrNoTranscriptsFound if discovery yields nothing
	MostRecent() (*TranscriptFile, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	baseDirs []string // Claude data directories to scan
	logger   logger.Logger
}

// New creates a new Discoverer instance.
//
// Parameters:
//   - baseDirs: List of base directories to scan (e.g., ~/.config/claude/projects)
//   - log: Logger instance for diagnostic messages
//
// Returns a configured Discoverer.
func New(baseDirs []string, log logger.Logger) Discoverer {
	return &discoverer{
		baseDirs: baseDirs,
		logger:   log,
	}
}

// Discover implements Discoverer.Discover.
func (d *discoverer) Discover() ([]TranscriptFile, error) {
	var all []TranscriptFile

	for _, baseDir := range d.baseDirs {
		// Expand home directory if present
		expandedDir := expandHome(baseDir)

		// Check if directory exists
		if _, err := os.Stat(expandedDir); err != nil {
			if os.IsNotExist(err) {
				d.logger.Debug("directory not found, skipping", "path", expandedDir)
				continue
			}
			return nil, fmt.Errorf("failed to stat directory %s: %w", expandedDir, err)
		}

		// Scan directory for projects
		transcripts, err := d.scanBaseDirectory(expandedDir)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", expandedDir, err)
		}

		all = append(all, transcripts...)
	}

	d.logger.Debug("discovery complete", "total_transcripts", len(all))
	return all, nil
}

// MostRecent implements Discoverer.MostRecent.
func (d *discoverer) MostRecent() (*TranscriptFile, error) {
	transcripts, err := d.Discover()
	if err != nil {
		return nil, err
	}

	if len(transcripts) == 0 {
		return nil, ErrNoTranscriptsFound
	}

	newest := transcripts[0]
	for _, tf := range transcripts[1:] {
		if tf.ModTime > newest.ModTime {
			newest = tf
		}
	}

	return &newest, nil
}

// scanBaseDirectory scans a base directory for project subdirectories.
//
// Claude Code structure: basedir/project-hash/session-uuid.jsonl.
func (d *discoverer) scanBaseDirectory(baseDir string) ([]TranscriptFile, error) {
	var transcripts []TranscriptFile

	// Read all entries in base directory
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		projectPath := filepath.Join(baseDir, entry.Name())
		projectTranscripts, err := d.scanProjectDirectory(projectPath)
		if err != nil {
			d.logger.Warn("failed to scan project directory",
				"path", projectPath,
				"error", err)
			continue
		}

		transcripts = append(transcripts, projectTranscripts...)
	}

	return transcripts, nil
}

// scanProjectDirectory scans a project directory for transcript JSONL files.
func (d *discoverer) scanProjectDirectory(projectDir string) ([]TranscriptFile, error) {
	transcripts := make([]TranscriptFile, 0, 10)

	// Read all files in project directory
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Check if file matches transcript pattern (UUID.jsonl)
		if !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}

		// Extract session ID from filename (remove .jsonl extension)
		sessionID := strings.TrimSuffix(entry.Name(), ".jsonl")

		// Validate session ID format (basic UUID check)
		if !isValidSessionID(sessionID) {
			d.logger.Debug("skipping non-transcript file",
				"file", entry.Name(),
				"reason", "invalid session ID format")
			continue
		}

		// Get file info
		filePath := filepath.Join(projectDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			d.logger.Warn("failed to get file info",
				"path", filePath,
				"error", err)
			continue
		}

		transcripts = append(transcripts, TranscriptFile{
			SessionID:   sessionID,
			FilePath:    filePath,
			ProjectPath: projectDir,
			Size:        info.Size(),
			ModTime:     info.ModTime().Unix(),
		})
	}

	d.logger.Debug("scanned project directory",
		"path", projectDir,
		"transcripts_found", len(transcripts))

	return transcripts, nil
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}

// isValidSessionID performs basic validation on session ID format.
//
// Expected format: UUID v4 (8-4-4-4-12 hex digits with dashes)
// Example: a1b2c3d4-e5f6-7890-abcd-ef1234567890.
func isValidSessionID(id string) bool {
	// Basic length check (UUID v4 is 36 characters)
	if len(id) != 36 {
		return false
	}

	// Check for dashes at correct positions
	if id[8] != '-' || id[13] != '-' || id[18] != '-' || id[23] != '-' {
		return false
	}

	// Check remaining characters are hex digits
	for i, c := range id {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			continue
		}
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return false
		}
	}

	return true
}
