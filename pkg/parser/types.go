// Package parser provides JSONL parsing for Claude Code transcript logs.
// It extracts per-request token usage events and validates them for
// correctness.
//
// The parser handles malformed lines gracefully by logging to the
// diagnostic channel and skipping invalid entries rather than failing:
// one bad record must never abort aggregation.
//
// Example usage:
//
//	p := parser.New(logger.Default())
//	entries, err := p.ParseFile("/path/to/session.jsonl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, entry := range entries {
//	    fmt.Printf("Tokens: %d\n", entry.Message.Usage.InputTokens)
//	}
package parser

import (
	"time"
)

// UsageEntry represents a single usage event from a Claude Code
// transcript. Each entry corresponds to one API call.
//
// Entries are immutable once read. The uniqueness key for deduplication
// is (Message.ID, RequestID); entries missing either identifier cannot
// be deduplicated and are admitted as-is.
//
// Invariant: Timestamp must not be zero value.
// Invariant: Message.Usage must be present with non-negative counts.
type UsageEntry struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"requestId,omitempty"`
	Message   Message   `json:"message"`
}

// Message contains the API response details including token usage.
//
// Model and ID may be absent in the raw log; an absent model is priced
// against the default pricing entry downstream.
type Message struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	Usage *Usage `json:"usage,omitempty"`
}

// Usage contains token consumption for a single API call.
//
// Token types:
// - InputTokens: Regular input tokens
// - OutputTokens: Generated output tokens (tiered above 200k per block)
// - CacheCreationInputTokens: Tokens written to prompt cache
// - CacheReadInputTokens: Tokens read from prompt cache
//
// Invariant: All token counts must be >= 0.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

// TotalTokens returns the sum of all token types.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens +
		u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// ContextTokens returns the tokens that occupy the context window:
// input plus both cache token kinds, excluding output.
func (u Usage) ContextTokens() int {
	return u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// DedupKey returns the uniqueness key and whether the entry carries
// both identifiers. Entries without both a message ID and a request ID
// report ok=false and must not be deduplicated.
func (e *UsageEntry) DedupKey() (string, bool) {
	if e.Message.ID == "" || e.RequestID == "" {
		return "", false
	}
	return e.Message.ID + ":" + e.RequestID, true
}

// Validate checks if the usage entry satisfies all invariants.
//
// Returns an error if:
//   - Timestamp is zero value
//   - Message.Usage is absent
//   - Any token count is negative
//
// Thread-safety: This method is read-only and thread-safe.
func (e *UsageEntry) Validate() error {
	if e.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}

	if e.Message.Usage == nil {
		return ErrMissingUsage
	}

	if err := e.Message.Usage.Validate(); err != nil {
		return err
	}

	return nil
}

// Validate checks if all token counts are non-negative.
func (u Usage) Validate() error {
	if u.InputTokens < 0 {
		return ErrNegativeTokenCount
	}
	if u.OutputTokens < 0 {
		return ErrNegativeTokenCount
	}
	if u.CacheCreationInputTokens < 0 {
		return ErrNegativeTokenCount
	}
	if u.CacheReadInputTokens < 0 {
		return ErrNegativeTokenCount
	}
	return nil
}
