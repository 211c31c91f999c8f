package pricing

import (
	"context"
	"time"

	"github.com/avidel/ccstatusline/pkg/config"
	"github.com/avidel/ccstatusline/pkg/logger"
	"github.com/avidel/ccstatusline/pkg/parser"
)

// Resolver maps model identifiers and token counts to USD costs.
type Resolver interface {
	// CostFor prices one usage event. priorBlockOutputTokens is the
	// cumulative output-token count of the event's billing block before
	// this event; output tokens past TierThreshold are priced at the
	// higher tier rate, with events straddling the threshold split pro
	// rata. Input and cache tokens use their fixed rates.
	//
	// Unknown models price against the default entry. Never fails.
	CostFor(model string, usage parser.Usage, priorBlockOutputTokens int) float64

	// Close releases the durable cache.
	Close() error
}

// resolver implements Resolver over a table loaded at construction.
type resolver struct {
	table  Table
	store  *Store
	logger logger.Logger
}

// NewResolver builds a resolver, loading its table in order of
// preference:
//
//  1. Durable cache, if younger than cfg.TTL
//  2. Network fetch (bounded by cfg.FetchTimeout), cached on success
//  3. Durable cache regardless of age
//  4. Embedded fallback table
//
// Failures along the chain are logged and the next source is tried;
// only a broken embedded table (a build defect) returns an error.
func NewResolver(cfg config.PricingConfig, log logger.Logger) (Resolver, error) {
	r := &resolver{logger: log}

	store, err := NewStore(cfg.DBPath, log)
	if err != nil {
		log.Warn("pricing cache unavailable", "path", cfg.DBPath, "error", err)
	} else {
		r.store = store
	}

	if r.store != nil {
		table, fetchedAt, err := r.store.Load()
		if err == nil && time.Since(fetchedAt) < cfg.TTL {
			r.table = table
			return r, nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout)
	defer cancel()

	table, err := NewFetcher(cfg.URL, cfg.FetchTimeout).Fetch(ctx)
	if err == nil {
		r.table = table
		if r.store != nil {
			if saveErr := r.store.Save(table, time.Now()); saveErr != nil {
				log.Warn("failed to cache pricing table", "error", saveErr)
			}
		}
		return r, nil
	}
	log.Debug("pricing fetch failed", "error", err)

	// Stale cache beats the embedded snapshot: it was at least fetched
	// from upstream at some point.
	if r.store != nil {
		table, fetchedAt, loadErr := r.store.Load()
		if loadErr == nil {
			log.Debug("using stale pricing table", "fetched_at", fetchedAt)
			r.table = table
			return r, nil
		}
	}

	fallback, err := FallbackTable()
	if err != nil {
		r.Close()
		return nil, err
	}

	log.Debug("using embedded pricing table")
	r.table = fallback
	return r, nil
}

// NewStaticResolver wraps a fixed table. Used by tests and callers
// that manage table lifecycle themselves.
func NewStaticResolver(table Table, log logger.Logger) Resolver {
	return &resolver{table: table, logger: log}
}

// CostFor implements Resolver.CostFor.
func (r *resolver) CostFor(model string, usage parser.Usage, priorBlockOutputTokens int) float64 {
	if model == "" {
		model = DefaultModel
	}

	p, ok := r.table.Lookup(model)
	if !ok {
		r.logger.Warn("no pricing entry resolvable", "model", model)
		return 0
	}

	cost := float64(usage.InputTokens) * p.Input
	cost += float64(usage.CacheCreationInputTokens) * p.CacheCreation
	cost += float64(usage.CacheReadInputTokens) * p.CacheRead
	cost += tieredOutputCost(usage.OutputTokens, priorBlockOutputTokens, p)

	return cost
}

// Close implements Resolver.Close.
func (r *resolver) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// tieredOutputCost prices output tokens against the block-cumulative
// count. With prior tokens already past the threshold everything is at
// the tier rate; a straddling event splits at the threshold.
func tieredOutputCost(outputTokens, prior int, p ModelPricing) float64 {
	if outputTokens <= 0 {
		return 0
	}

	above := p.outputRateAbove()

	switch {
	case prior >= TierThreshold:
		return float64(outputTokens) * above
	case prior+outputTokens <= TierThreshold:
		return float64(outputTokens) * p.Output
	default:
		base := TierThreshold - prior
		tiered := outputTokens - base
		return float64(base)*p.Output + float64(tiered)*above
	}
}
