// Package status assembles the statusline: it runs the aggregation
// pipeline behind the output cache and renders the result as a single
// line of text.
//
// Example usage:
//
//	p := status.NewProducer(deps, cfg, logger.Default())
//	line, err := p.Produce(ctx, input)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(line)
package status

import (
	"time"

	"github.com/avidel/ccstatusline/pkg/apiusage"
	"github.com/avidel/ccstatusline/pkg/blocks"
)

// HookInput is the JSON payload Claude Code pipes to a statusline
// command on each refresh.
type HookInput struct {
	SessionID      string    `json:"session_id"`
	TranscriptPath string    `json:"transcript_path"`
	Model          ModelInfo `json:"model"`
	Workspace      Workspace `json:"workspace"`
}

// ModelInfo identifies the session's model.
type ModelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Workspace locates the session on disk.
type Workspace struct {
	CurrentDir string `json:"current_dir"`
	ProjectDir string `json:"project_dir"`
}

// ContextInfo is the current context-window occupancy, derived from
// the last transcript entry.
type ContextInfo struct {
	Tokens     int
	Limit      int
	Percentage int
}

// Status is the assembled pipeline result, ready for rendering.
type Status struct {
	ModelLabel string

	// Active billing block. Nil when idle.
	Block *blocks.Block

	// Burn rate; HasRate is false for idle or just-started blocks.
	Rate    blocks.BurnRate
	HasRate bool

	// Remote quota snapshot. Nil when unavailable.
	Usage *apiusage.Snapshot

	// Context window occupancy. Nil when the transcript is unreadable.
	Context *ContextInfo

	// Now is the evaluation instant all durations are relative to.
	Now time.Time
}

// TimeRemaining returns the time until the active window resets, or
// ok=false when idle. The remote reset instant supersedes the locally
// derived one when present, but only an active block has a window to
// report on.
func (s *Status) TimeRemaining() (time.Duration, bool) {
	if s.Block == nil {
		return 0, false
	}
	if s.Usage != nil && s.Usage.FiveHourResetsAt != nil {
		d := s.Usage.FiveHourResetsAt.Sub(s.Now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return s.Block.Remaining(s.Now), true
}
