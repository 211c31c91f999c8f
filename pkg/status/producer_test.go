package status

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avidel/ccstatusline/pkg/blocks"
	"github.com/avidel/ccstatusline/pkg/cache"
	"github.com/avidel/ccstatusline/pkg/config"
	"github.com/avidel/ccstatusline/pkg/discovery"
	"github.com/avidel/ccstatusline/pkg/logger"
	"github.com/avidel/ccstatusline/pkg/parser"
	"github.com/avidel/ccstatusline/pkg/pricing"
)

const testSessionID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"

// countingParser wraps a Parser and counts ParseFile calls so tests
// can observe whether the pipeline actually ran.
type countingParser struct {
	parser.Parser
	calls int32
}

func (p *countingParser) ParseFile(path string) ([]parser.UsageEntry, error) {
	atomic.AddInt32(&p.calls, 1)
	return p.Parser.ParseFile(path)
}

func transcriptLine(ts time.Time, n, inputTokens, outputTokens int) string {
	return fmt.Sprintf(
		`{"timestamp":%q,"requestId":"req_%d","message":{"id":"msg_%d","model":"claude-sonnet-4-20250514","usage":{"input_tokens":%d,"output_tokens":%d,"cache_creation_input_tokens":0,"cache_read_input_tokens":0}}}`,
		ts.UTC().Format(time.RFC3339), n, n, inputTokens, outputTokens)
}

func writeTranscript(t *testing.T, claudeDir string, lines ...string) string {
	t.Helper()

	projectDir := filepath.Join(claudeDir, "-home-user-project")
	require.NoError(t, os.MkdirAll(projectDir, 0755))

	path := filepath.Join(projectDir, testSessionID+".jsonl")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestProducer(t *testing.T, claudeDir string) (*Producer, *countingParser) {
	t.Helper()

	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)

	coord := cache.NewCoordinator(store, cache.CoordinatorConfig{
		LockWait: 200 * time.Millisecond,
	}, logger.Noop())

	resolver := pricing.NewStaticResolver(pricing.Table{
		"claude-sonnet-4-20250514": {Input: 3e-6, Output: 15e-6},
	}, logger.Noop())

	counting := &countingParser{Parser: parser.New(logger.Noop())}

	cfg := config.Default()
	cfg.ClaudeConfigDirs = []string{claudeDir}

	p := NewProducer(Deps{
		Coordinator:  coord,
		Discoverer:   discovery.New([]string{claudeDir}, logger.Noop()),
		Parser:       counting,
		Segmenter:    blocks.NewSegmenter(resolver, logger.Noop()),
		SettingsPath: filepath.Join(t.TempDir(), "absent.json"),
	}, cfg, logger.Noop())

	return p, counting
}

func TestProduce_RendersPipeline(t *testing.T) {
	t.Parallel()

	claudeDir := t.TempDir()
	now := time.Now()
	transcriptPath := writeTranscript(t, claudeDir,
		transcriptLine(now.Add(-40*time.Minute), 1, 100_000, 20_000),
		transcriptLine(now.Add(-10*time.Minute), 2, 50_000, 10_000),
	)

	p, _ := newTestProducer(t, claudeDir)

	got, err := p.Produce(context.Background(), HookInput{
		SessionID:      testSessionID,
		TranscriptPath: transcriptPath,
		Model:          ModelInfo{ID: "claude-sonnet-4-20250514", DisplayName: "Sonnet 4"},
	})
	require.NoError(t, err)

	assert.Contains(t, got, "Sonnet 4")
	// 150k input and 30k output across the block.
	assert.Contains(t, got, "$0.90")
	assert.Contains(t, got, "/h")
	assert.Contains(t, got, "left")
	// Context: last entry's input tokens against the compacted limit.
	assert.Contains(t, got, "50,000 (32%)")
}

func TestProduce_SecondCallServedFromCache(t *testing.T) {
	t.Parallel()

	claudeDir := t.TempDir()
	now := time.Now()
	writeTranscript(t, claudeDir,
		transcriptLine(now.Add(-10*time.Minute), 1, 1000, 500),
	)

	p, counting := newTestProducer(t, claudeDir)

	in := HookInput{SessionID: testSessionID}

	first, err := p.Produce(context.Background(), in)
	require.NoError(t, err)
	callsAfterFirst := atomic.LoadInt32(&counting.calls)
	require.Positive(t, callsAfterFirst)

	second, err := p.Produce(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, atomic.LoadInt32(&counting.calls),
		"a fresh output cache entry must skip the pipeline")
}

func TestProduce_NoTranscriptsRendersIdle(t *testing.T) {
	t.Parallel()

	p, _ := newTestProducer(t, t.TempDir())

	got, err := p.Produce(context.Background(), HookInput{
		SessionID: testSessionID,
		Model:     ModelInfo{DisplayName: "Sonnet 4"},
	})
	require.NoError(t, err)

	assert.Contains(t, got, "no block")
}

func TestProduce_DistinctSessionsDistinctCacheKeys(t *testing.T) {
	t.Parallel()

	claudeDir := t.TempDir()
	now := time.Now()
	writeTranscript(t, claudeDir,
		transcriptLine(now.Add(-10*time.Minute), 1, 1000, 500),
	)

	p, _ := newTestProducer(t, claudeDir)

	withModel, err := p.Produce(context.Background(), HookInput{
		SessionID: testSessionID,
		Model:     ModelInfo{DisplayName: "Sonnet 4"},
	})
	require.NoError(t, err)

	other, err := p.Produce(context.Background(), HookInput{
		SessionID: "bbbbbbbb-bbbb-cccc-dddd-eeeeeeeeeeee",
		Model:     ModelInfo{DisplayName: "Opus 4.1"},
	})
	require.NoError(t, err)

	assert.Contains(t, withModel, "Sonnet 4")
	assert.Contains(t, other, "Opus 4.1")
}
