package blocks

import (
	"time"

	"github.com/avidel/ccstatusline/pkg/logger"
	"github.com/avidel/ccstatusline/pkg/parser"
	"github.com/avidel/ccstatusline/pkg/pricing"
)

// Segmenter groups usage events into billing blocks.
type Segmenter interface {
	// Segment deduplicates and groups entries into 5-hour blocks,
	// returning all blocks in order plus the active one (nil when
	// idle).
	//
	// Entries are processed in delivery order; the event source is
	// trusted to be chronological. Out-of-order timestamps may produce
	// a spurious block split and are not corrected.
	Segment(entries []parser.UsageEntry, now time.Time) ([]Block, *Block)
}

// segmenter implements Segmenter.
type segmenter struct {
	resolver pricing.Resolver
	logger   logger.Logger
}

// NewSegmenter creates a segmenter that prices admitted events through
// the given resolver.
func NewSegmenter(resolver pricing.Resolver, log logger.Logger) Segmenter {
	return &segmenter{
		resolver: resolver,
		logger:   log,
	}
}

// Segment implements Segmenter.Segment.
func (s *segmenter) Segment(entries []parser.UsageEntry, now time.Time) ([]Block, *Block) {
	if len(entries) == 0 {
		return nil, nil
	}

	// Per-run dedup set. Entries without both identifiers cannot be
	// deduplicated and are admitted as-is.
	seen := make(map[string]struct{}, len(entries))

	var (
		result  []Block
		current *blockBuilder
		skipped int
	)

	for i := range entries {
		entry := &entries[i]

		if key, ok := entry.DedupKey(); ok {
			if _, dup := seen[key]; dup {
				skipped++
				continue
			}
			seen[key] = struct{}{}
		}

		if entry.Message.Usage == nil {
			continue
		}

		if current != nil && s.shouldClose(current, entry.Timestamp) {
			result = append(result, current.build())
			current = nil
		}

		if current == nil {
			current = newBlockBuilder(floorToHour(entry.Timestamp))
		}

		current.add(entry, s.resolver)
	}

	if current != nil {
		result = append(result, current.build())
	}

	if skipped > 0 {
		s.logger.Debug("deduplicated usage entries", "count", skipped)
	}

	var active *Block
	if len(result) > 0 {
		last := &result[len(result)-1]
		if last.Active(now) {
			active = last
		}
	}

	return result, active
}

// shouldClose reports whether the next entry falls outside the current
// block: more than BlockDuration past the block start, or more than
// BlockDuration since the previous entry.
func (s *segmenter) shouldClose(b *blockBuilder, ts time.Time) bool {
	return ts.Sub(b.start) > BlockDuration || ts.Sub(b.lastEntry) > BlockDuration
}

// blockBuilder accumulates one block's entries. outputTokens tracks
// the block-cumulative output count used for tiered pricing.
type blockBuilder struct {
	start        time.Time
	lastEntry    time.Time
	entryCount   int
	tokens       parser.Usage
	costUSD      float64
	modelCost    map[string]float64
	outputTokens int
}

func newBlockBuilder(start time.Time) *blockBuilder {
	return &blockBuilder{
		start:     start,
		modelCost: make(map[string]float64),
	}
}

func (b *blockBuilder) add(entry *parser.UsageEntry, resolver pricing.Resolver) {
	usage := *entry.Message.Usage

	cost := resolver.CostFor(entry.Message.Model, usage, b.outputTokens)
	b.outputTokens += usage.OutputTokens

	b.lastEntry = entry.Timestamp
	b.entryCount++
	b.costUSD += cost

	model := entry.Message.Model
	if model == "" {
		model = pricing.DefaultModel
	}
	b.modelCost[model] += cost

	b.tokens.InputTokens += usage.InputTokens
	b.tokens.OutputTokens += usage.OutputTokens
	b.tokens.CacheCreationInputTokens += usage.CacheCreationInputTokens
	b.tokens.CacheReadInputTokens += usage.CacheReadInputTokens
}

func (b *blockBuilder) build() Block {
	return Block{
		StartTime:     b.start,
		EndTime:       b.start.Add(BlockDuration),
		LastEntryTime: b.lastEntry,
		EntryCount:    b.entryCount,
		Tokens:        b.tokens,
		CostUSD:       b.costUSD,
		ModelCost:     b.modelCost,
	}
}

// floorToHour truncates a timestamp to the start of its UTC hour.
func floorToHour(ts time.Time) time.Time {
	return ts.UTC().Truncate(time.Hour)
}
