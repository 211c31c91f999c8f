// Package pricing resolves model identifiers and token counts to USD
// costs using a tiered pricing table.
//
// The table is sourced from the LiteLLM community pricing JSON, cached
// durably for 24 hours, and backed by an embedded fallback so that cost
// calculation never hard-fails on network trouble.
//
// Example usage:
//
//	r, err := pricing.NewResolver(cfg, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	cost := r.CostFor("claude-sonnet-4-20250514", usage, priorOutput)
package pricing

import (
	"strings"
)

// TierThreshold is the cumulative output-token count within a billing
// block above which the higher output rate applies.
const TierThreshold = 200_000

// DefaultModel is the table entry used when a model identifier cannot
// be resolved at all.
const DefaultModel = "claude-sonnet-4-20250514"

// ModelPricing holds per-token USD rates for one model.
//
// Rates are per single token, matching the upstream LiteLLM format.
// OutputAbove200K is the output rate applied to tokens past
// TierThreshold; zero means the model has no tiered output pricing and
// Output applies throughout.
type ModelPricing struct {
	Input           float64 `json:"input_cost_per_token"`
	Output          float64 `json:"output_cost_per_token"`
	OutputAbove200K float64 `json:"output_cost_per_token_above_200k_tokens,omitempty"`
	CacheCreation   float64 `json:"cache_creation_input_token_cost,omitempty"`
	CacheRead       float64 `json:"cache_read_input_token_cost,omitempty"`
}

// outputRateAbove returns the rate for output tokens past the tier
// threshold.
func (p ModelPricing) outputRateAbove() float64 {
	if p.OutputAbove200K > 0 {
		return p.OutputAbove200K
	}
	return p.Output
}

// Table maps model identifiers to their pricing.
type Table map[string]ModelPricing

// Lookup resolves a model identifier to its pricing entry.
//
// Resolution order:
//  1. Exact match
//  2. Provider-prefixed match (anthropic/<model>, claude-<model>)
//  3. Case-insensitive match
//  4. The default entry
//
// The second return value is false only when even the default entry is
// missing from the table.
func (t Table) Lookup(model string) (ModelPricing, bool) {
	if p, ok := t[model]; ok {
		return p, true
	}

	for _, prefix := range []string{"anthropic/", "claude-"} {
		if p, ok := t[prefix+model]; ok {
			return p, true
		}
	}

	lower := strings.ToLower(model)
	for key, p := range t {
		if strings.ToLower(key) == lower {
			return p, true
		}
	}

	p, ok := t[DefaultModel]
	return p, ok
}
