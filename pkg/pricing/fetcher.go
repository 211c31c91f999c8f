package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultURL is the upstream LiteLLM pricing JSON.
const DefaultURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"

// Fetcher retrieves the pricing table from the upstream JSON.
type Fetcher struct {
	url    string
	client *http.Client
}

// NewFetcher creates a fetcher for the given URL. An empty url selects
// DefaultURL. The timeout bounds the whole request including body read.
func NewFetcher(url string, timeout time.Duration) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// liteLLMEntry is one model record in the upstream JSON. Only Claude
// models with both base rates present are kept.
type liteLLMEntry struct {
	InputCostPerToken  *float64 `json:"input_cost_per_token"`
	OutputCostPerToken *float64 `json:"output_cost_per_token"`
	OutputAbove200K    *float64 `json:"output_cost_per_token_above_200k_tokens"`
	CacheCreationCost  *float64 `json:"cache_creation_input_token_cost"`
	CacheReadCost      *float64 `json:"cache_read_input_token_cost"`
}

// Fetch downloads and filters the upstream pricing table.
//
// Returns:
//   - Table containing only claude- model entries
//   - ErrFetchFailed (wrapped) on any transport or decode problem
func (f *Fetcher) Fetch(ctx context.Context) (Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, resp.StatusCode)
	}

	var raw map[string]liteLLMEntry
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	table := filterClaudeModels(raw)
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, ErrEmptyTable)
	}

	return table, nil
}

// filterClaudeModels keeps bare claude- entries and drops
// provider-prefixed duplicates (anthropic.claude-, vertex_ai/claude-).
func filterClaudeModels(raw map[string]liteLLMEntry) Table {
	table := make(Table)
	for key, entry := range raw {
		if !strings.HasPrefix(key, "claude-") {
			continue
		}
		if entry.InputCostPerToken == nil || entry.OutputCostPerToken == nil {
			continue
		}

		mp := ModelPricing{
			Input:  *entry.InputCostPerToken,
			Output: *entry.OutputCostPerToken,
		}
		if entry.OutputAbove200K != nil {
			mp.OutputAbove200K = *entry.OutputAbove200K
		}
		if entry.CacheCreationCost != nil {
			mp.CacheCreation = *entry.CacheCreationCost
		}
		if entry.CacheReadCost != nil {
			mp.CacheRead = *entry.CacheReadCost
		}

		table[key] = mp
	}
	return table
}
