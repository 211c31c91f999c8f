package status

import (
	"context"
	"sort"
	"time"

	"github.com/avidel/ccstatusline/pkg/apiusage"
	"github.com/avidel/ccstatusline/pkg/blocks"
	"github.com/avidel/ccstatusline/pkg/cache"
	"github.com/avidel/ccstatusline/pkg/config"
	"github.com/avidel/ccstatusline/pkg/discovery"
	"github.com/avidel/ccstatusline/pkg/logger"
	"github.com/avidel/ccstatusline/pkg/parser"
)

// Deps are the pipeline collaborators a Producer orchestrates.
type Deps struct {
	Coordinator *cache.Coordinator
	Discoverer  discovery.Discoverer
	Parser      parser.Parser
	Segmenter   blocks.Segmenter

	// Usage may be nil when the remote usage API is disabled.
	Usage *apiusage.Cache

	// SettingsPath overrides the ~/.claude.json location. Empty means
	// the default.
	SettingsPath string

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Producer runs the aggregation pipeline behind the output cache.
type Producer struct {
	cfg          *config.Config
	coordinator  *cache.Coordinator
	discoverer   discovery.Discoverer
	parser       parser.Parser
	segmenter    blocks.Segmenter
	usage        *apiusage.Cache
	settingsPath string
	now          func() time.Time
	logger       logger.Logger
}

// NewProducer wires a Producer from its collaborators.
func NewProducer(deps Deps, cfg *config.Config, log logger.Logger) *Producer {
	settingsPath := deps.SettingsPath
	if settingsPath == "" {
		settingsPath = defaultSettingsPath()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Producer{
		cfg:          cfg,
		coordinator:  deps.Coordinator,
		discoverer:   deps.Discoverer,
		parser:       deps.Parser,
		segmenter:    deps.Segmenter,
		usage:        deps.Usage,
		settingsPath: settingsPath,
		now:          now,
		logger:       log,
	}
}

// Produce returns the rendered statusline for the given hook input,
// serving from the output cache when a fresh entry exists. The cache
// key derives from the session identity so concurrent sessions do not
// share lines.
func (p *Producer) Produce(ctx context.Context, in HookInput) (string, error) {
	key := "status-" + in.SessionID
	if in.SessionID == "" {
		key = "status-interactive"
	}

	return p.coordinator.GetOrCompute(key, p.cfg.Cache.OutputTTL, func() (string, error) {
		return p.render(ctx, in)
	})
}

// render runs the full pipeline once: discover and parse all usage
// logs, segment into blocks, derive the burn rate, merge the remote
// snapshot, and format.
func (p *Producer) render(ctx context.Context, in HookInput) (string, error) {
	now := p.now()

	entries := p.collectEntries()
	_, active := p.segmenter.Segment(entries, now)
	rate, hasRate := blocks.Rate(active, now)

	var snap *apiusage.Snapshot
	if p.usage != nil {
		if s, ok := p.usage.Snapshot(ctx); ok {
			snap = s
		}
	}

	var ctxInfo *ContextInfo
	if in.TranscriptPath != "" {
		transcript, err := p.parser.ParseFile(in.TranscriptPath)
		if err != nil {
			p.logger.Debug("transcript unreadable", "path", in.TranscriptPath, "error", err)
		} else {
			ctxInfo = contextFromEntries(transcript, contextLimit(p.settingsPath))
		}
	}

	label := in.Model.DisplayName
	if label == "" {
		label = in.Model.ID
	}

	st := &Status{
		ModelLabel: label,
		Block:      active,
		Rate:       rate,
		HasRate:    hasRate,
		Usage:      snap,
		Context:    ctxInfo,
		Now:        now,
	}

	return Render(st, p.cfg.Display.Elements, p.cfg.Display.Separator), nil
}

// collectEntries reads every discovered transcript and returns the
// combined entries in timestamp order. Unreadable files are skipped;
// aggregation proceeds with whatever could be read.
func (p *Producer) collectEntries() []parser.UsageEntry {
	files, err := p.discoverer.Discover()
	if err != nil {
		p.logger.Debug("transcript discovery failed", "error", err)
		return nil
	}

	var entries []parser.UsageEntry
	for _, file := range files {
		parsed, err := p.parser.ParseFile(file.FilePath)
		if err != nil {
			p.logger.Debug("skipping unreadable transcript",
				"path", file.FilePath,
				"error", err)
			continue
		}
		entries = append(entries, parsed...)
	}

	// Files come in discovery order; segmentation expects chronology.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	return entries
}
