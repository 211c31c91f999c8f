package parser

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/avidel/ccstatusline/pkg/logger"
)

const (
	// MaxFileSize is the maximum allowed JSONL file size (100MB).
	// Files larger than this will be rejected to prevent memory exhaustion.
	MaxFileSize = 100 * 1024 * 1024

	// MaxLineLength is the maximum allowed line length (1MB).
	MaxLineLength = 1024 * 1024
)

// Parser provides methods for parsing Claude Code transcript files.
type Parser interface {
	// ParseFile reads a JSONL file in full and returns the parsed usage
	// entries in delivery order.
	//
	// Parameters:
	//   - path: Path to the JSONL file
	//
	// Returns:
	//   - Slice of successfully parsed entries
	//   - Error if file cannot be read or is too large
	//
	// Each invocation re-reads the file from the start: no read offsets
	// are persisted across processes. Malformed lines are logged to the
	// diagnostic channel and skipped rather than causing failure.
	//
	// Thread-safety: This method is safe to call concurrently with
	// different files.
	ParseFile(path string) ([]UsageEntry, error)

	// ParseLine parses a single JSONL line into a UsageEntry.
	//
	// Parameters:
	//   - line: A single line of JSONL (without newline character)
	//
	// Returns:
	//   - Parsed UsageEntry
	//   - Error if line is not valid JSON or fails validation
	//
	// Thread-safety: This method is thread-safe.
	ParseLine(line string) (*UsageEntry, error)
}

// jsonlParser implements the Parser interface.
type jsonlParser struct {
	logger logger.Logger
}

// New creates a new Parser instance.
//
// Parameters:
//   - log: Logger for reporting skipped lines
//
// Returns a configured Parser.
func New(log logger.Logger) Parser {
	return &jsonlParser{
		logger: log,
	}
}

// ParseFile implements Parser.ParseFile.
func (p *jsonlParser) ParseFile(path string) ([]UsageEntry, error) {
	// Check file size
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: size=%d, max=%d",
			ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	// Open file - #nosec G304: path comes from discovery over trusted dirs
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			p.logger.Warn("failed to close transcript file",
				"path", path,
				"error", closeErr)
		}
	}()

	// Pre-allocate slice with reasonable capacity
	entries := make([]UsageEntry, 0, 100)
	scanner := bufio.NewScanner(f)

	// Set maximum line size
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, MaxLineLength)

	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		entry, parseErr := p.ParseLine(line)
		if parseErr != nil {
			// Non-usage lines (tool results, user turns) are routine;
			// only genuine data errors are worth a diagnostic.
			if !errors.Is(parseErr, ErrMissingUsage) {
				p.logger.Debug("skipping malformed line",
					"path", path,
					"line", lineNum,
					"error", parseErr)
			}
			continue
		}

		entries = append(entries, *entry)
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return entries, fmt.Errorf("scanner error at line %d: %w", lineNum, scanErr)
	}

	return entries, nil
}

// ParseLine implements Parser.ParseLine.
func (p *jsonlParser) ParseLine(line string) (*UsageEntry, error) {
	if line == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedJSON)
	}

	var entry UsageEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	// Validate the parsed entry
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &entry, nil
}
