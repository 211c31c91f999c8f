package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/avidel/ccstatusline/pkg/apiusage"
	"github.com/avidel/ccstatusline/pkg/blocks"
	"github.com/avidel/ccstatusline/pkg/cache"
	"github.com/avidel/ccstatusline/pkg/config"
	"github.com/avidel/ccstatusline/pkg/discovery"
	"github.com/avidel/ccstatusline/pkg/logger"
	"github.com/avidel/ccstatusline/pkg/parser"
	"github.com/avidel/ccstatusline/pkg/pricing"
	"github.com/avidel/ccstatusline/pkg/status"
	"github.com/avidel/ccstatusline/pkg/watcher"
)

// pipeline bundles the wired components and their cleanup.
type pipeline struct {
	cfg      *config.Config
	log      logger.Logger
	producer *status.Producer
	resolver pricing.Resolver
	usage    *apiusage.Cache
}

func (p *pipeline) close() {
	// Let a stale-tier usage refresh land before the process dies, so
	// the next invocation sees the refreshed snapshot.
	if p.usage != nil {
		p.usage.Flush()
	}
	if err := p.resolver.Close(); err != nil {
		p.log.Warn("failed to close pricing resolver", "error", err)
	}
}

// buildPipeline loads configuration and wires the full aggregation
// pipeline.
func buildPipeline(configPath string) (*pipeline, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	store, err := cache.NewStore(cfg.Cache.RuntimeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache directory: %w", err)
	}

	coordinator := cache.NewCoordinator(store, cache.CoordinatorConfig{
		LockWait: cfg.Cache.LockWait,
	}, log)

	resolver, err := pricing.NewResolver(cfg.Pricing, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pricing: %w", err)
	}

	var usage *apiusage.Cache
	if cfg.API.Enabled {
		usage = apiusage.NewCache(store, apiusage.NewClient(cfg.API), apiusage.CacheConfig{
			FreshTTL: cfg.Cache.APIUsageFreshTTL,
			StaleTTL: cfg.Cache.APIUsageStaleTTL,
		}, log)
	}

	producer := status.NewProducer(status.Deps{
		Coordinator: coordinator,
		Discoverer:  discovery.New(cfg.ClaudeConfigDirs, log),
		Parser:      parser.New(log),
		Segmenter:   blocks.NewSegmenter(resolver, log),
		Usage:       usage,
	}, cfg, log)

	return &pipeline{
		cfg:      cfg,
		log:      log,
		producer: producer,
		resolver: resolver,
		usage:    usage,
	}, nil
}

// sessionIDFromPath derives the session identity from a transcript
// filename.
func sessionIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readHookInput decodes the statusline hook payload.
func readHookInput(r io.Reader) (status.HookInput, error) {
	var in status.HookInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return status.HookInput{}, fmt.Errorf("failed to decode hook input: %w", err)
	}
	return in, nil
}

// runStatusline renders one status line. When stdin is piped the hook
// payload is read from it; on a terminal the line renders without
// session context.
func runStatusline(configPath string) error {
	p, err := buildPipeline(configPath)
	if err != nil {
		return err
	}
	defer p.close()

	var in status.HookInput
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		in, err = readHookInput(os.Stdin)
		if err != nil {
			// A malformed payload still deserves a status line.
			p.log.Warn("unreadable hook input", "error", err)
		}
	}

	line, err := p.producer.Produce(context.Background(), in)
	if err != nil {
		return err
	}

	fmt.Println(line)
	return nil
}

// runTest renders once against the most recently modified transcript,
// without hook input.
func runTest(configPath string) error {
	p, err := buildPipeline(configPath)
	if err != nil {
		return err
	}
	defer p.close()

	in := status.HookInput{}

	d := discovery.New(p.cfg.ClaudeConfigDirs, p.log)
	if recent, err := d.MostRecent(); err == nil {
		in.SessionID = recent.SessionID
		in.TranscriptPath = recent.FilePath
	} else {
		p.log.Debug("no transcripts found for test render", "error", err)
	}

	line, err := p.producer.Produce(context.Background(), in)
	if err != nil {
		return err
	}

	fmt.Println(line)
	return nil
}

// runWatch re-renders the status line whenever a transcript changes,
// until interrupted.
func runWatch(configPath string) error {
	p, err := buildPipeline(configPath)
	if err != nil {
		return err
	}
	defer p.close()

	w, err := watcher.New(watcher.Config{}, p.log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			p.log.Warn("failed to close watcher", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx, p.cfg.ClaudeConfigDirs); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	render := func(in status.HookInput) {
		line, renderErr := p.producer.Produce(ctx, in)
		if renderErr != nil {
			p.log.Warn("render failed", "error", renderErr)
			return
		}
		fmt.Println(line)
	}

	render(status.HookInput{})

	for {
		select {
		case sig := <-sigChan:
			p.log.Info("shutting down", "signal", sig.String())
			return nil

		case event, ok := <-w.Events():
			if !ok {
				return nil
			}
			render(status.HookInput{
				SessionID:      sessionIDFromPath(event.Path),
				TranscriptPath: event.Path,
			})
		}
	}
}
