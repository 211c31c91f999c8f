package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avidel/ccstatusline/pkg/logger"
)

const validLine = `{"timestamp":"2025-06-01T10:00:00Z","requestId":"req_1","message":{"id":"msg_1","model":"claude-sonnet-4-20250514","usage":{"input_tokens":100,"output_tokens":50,"cache_creation_input_tokens":20,"cache_read_input_tokens":800}}}`

func TestParseLine_Valid(t *testing.T) {
	t.Parallel()

	p := New(logger.Noop())

	entry, err := p.ParseLine(validLine)
	if err != nil {
		t.Fatalf("ParseLine() error: %v", err)
	}

	want := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if !entry.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", entry.Timestamp, want)
	}
	if entry.RequestID != "req_1" {
		t.Errorf("RequestID = %s, want req_1", entry.RequestID)
	}
	if entry.Message.ID != "msg_1" {
		t.Errorf("Message.ID = %s, want msg_1", entry.Message.ID)
	}
	if entry.Message.Model != "claude-sonnet-4-20250514" {
		t.Errorf("Model = %s", entry.Message.Model)
	}
	if got := entry.Message.Usage.TotalTokens(); got != 970 {
		t.Errorf("TotalTokens() = %d, want 970", got)
	}
	if got := entry.Message.Usage.ContextTokens(); got != 920 {
		t.Errorf("ContextTokens() = %d, want 920", got)
	}
}

func TestParseLine_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{
			name:    "empty line",
			line:    "",
			wantErr: ErrMalformedJSON,
		},
		{
			name:    "not json",
			line:    "not json at all",
			wantErr: ErrMalformedJSON,
		},
		{
			name:    "missing timestamp",
			line:    `{"message":{"usage":{"input_tokens":1,"output_tokens":1}}}`,
			wantErr: ErrInvalidTimestamp,
		},
		{
			name:    "missing usage",
			line:    `{"timestamp":"2025-06-01T10:00:00Z","message":{"id":"msg_1"}}`,
			wantErr: ErrMissingUsage,
		},
		{
			name:    "negative tokens",
			line:    `{"timestamp":"2025-06-01T10:00:00Z","message":{"usage":{"input_tokens":-5,"output_tokens":1}}}`,
			wantErr: ErrNegativeTokenCount,
		},
	}

	p := New(logger.Noop())

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := p.ParseLine(tt.line)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseLine() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseFile_SkipsMalformed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "session.jsonl")

	content := validLine + "\n" +
		"garbage line\n" +
		`{"timestamp":"2025-06-01T10:05:00Z","type":"user"}` + "\n" +
		`{"timestamp":"2025-06-01T10:10:00Z","requestId":"req_2","message":{"id":"msg_2","model":"claude-sonnet-4-20250514","usage":{"input_tokens":10,"output_tokens":5}}}` + "\n"

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	p := New(logger.Noop())

	entries, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].RequestID != "req_1" || entries[1].RequestID != "req_2" {
		t.Errorf("entries out of order: %s, %s", entries[0].RequestID, entries[1].RequestID)
	}
}

func TestParseFile_Empty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "empty.jsonl")

	if err := os.WriteFile(path, []byte(""), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	p := New(logger.Noop())

	entries, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}

func TestParseFile_NotFound(t *testing.T) {
	t.Parallel()

	p := New(logger.Noop())

	_, err := p.ParseFile("/nonexistent/file.jsonl")
	if err == nil {
		t.Error("ParseFile() expected error for missing file")
	}
}

func TestDedupKey(t *testing.T) {
	t.Parallel()

	entry := UsageEntry{
		Message:   Message{ID: "msg_1"},
		RequestID: "req_1",
	}
	key, ok := entry.DedupKey()
	if !ok || key != "msg_1:req_1" {
		t.Errorf("DedupKey() = %q, %v; want msg_1:req_1, true", key, ok)
	}

	// Missing either identifier means the entry cannot be deduplicated.
	noReq := UsageEntry{Message: Message{ID: "msg_1"}}
	if _, ok := noReq.DedupKey(); ok {
		t.Error("DedupKey() ok = true for entry without request ID")
	}

	noMsg := UsageEntry{RequestID: "req_1"}
	if _, ok := noMsg.DedupKey(); ok {
		t.Error("DedupKey() ok = true for entry without message ID")
	}
}
