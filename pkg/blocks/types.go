// Package blocks segments usage events into 5-hour billing blocks
// and derives burn rates from the active block.
//
// Blocks are recomputed from the raw event stream on every invocation;
// they are never persisted. An event stream is deduplicated by the
// (message ID, request ID) key, segmented at 5-hour boundaries with
// block starts floored to the hour, and costed with block-cumulative
// tiered output pricing.
//
// Example usage:
//
//	seg := blocks.NewSegmenter(resolver, logger.Default())
//	all, active := seg.Segment(entries, time.Now())
//	if rate, ok := blocks.Rate(active, time.Now()); ok {
//	    fmt.Printf("$%.2f/h\n", rate.CostPerHour)
//	}
package blocks

import (
	"time"

	"github.com/avidel/ccstatusline/pkg/parser"
)

// BlockDuration is the billing block length.
const BlockDuration = 5 * time.Hour

// Block is one 5-hour billing window derived from the event stream.
//
// StartTime is floored to the hour of the block's first event; EndTime
// is StartTime + BlockDuration. LastEntryTime is the timestamp of the
// last event admitted, which drives the activity check.
type Block struct {
	StartTime     time.Time
	EndTime       time.Time
	LastEntryTime time.Time

	EntryCount int
	Tokens     parser.Usage
	CostUSD    float64

	// ModelCost breaks CostUSD down per model identifier.
	ModelCost map[string]float64
}

// Active reports whether the block is the live billing window at now:
// the last event is within BlockDuration and the window itself has not
// ended.
func (b *Block) Active(now time.Time) bool {
	return now.Sub(b.LastEntryTime) < BlockDuration && now.Before(b.EndTime)
}

// Remaining returns the time left in the block's window, floored at
// zero.
func (b *Block) Remaining(now time.Time) time.Duration {
	if !now.Before(b.EndTime) {
		return 0
	}
	return b.EndTime.Sub(now)
}

// Models returns the model identifiers that contributed to the block.
func (b *Block) Models() []string {
	models := make([]string, 0, len(b.ModelCost))
	for m := range b.ModelCost {
		models = append(models, m)
	}
	return models
}

// BurnRate is the active block's spend velocity.
type BurnRate struct {
	CostPerHour     float64
	TokensPerMinute float64
}
