package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avidel/ccstatusline/pkg/apiusage"
	"github.com/avidel/ccstatusline/pkg/blocks"
	"github.com/avidel/ccstatusline/pkg/parser"
)

var renderNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func fullStatus() *Status {
	start := renderNow.Add(-90 * time.Minute).Truncate(time.Hour)
	reset := renderNow.Add(3*time.Hour + 25*time.Minute)
	weekReset := renderNow.Add(49 * time.Hour)

	return &Status{
		ModelLabel: "Sonnet 4",
		Block: &blocks.Block{
			StartTime:     start,
			EndTime:       start.Add(blocks.BlockDuration),
			LastEntryTime: renderNow.Add(-time.Minute),
			CostUSD:       3.417,
			Tokens:        parser.Usage{OutputTokens: 45000},
		},
		Rate:    blocks.BurnRate{CostPerHour: 1.5, TokensPerMinute: 500},
		HasRate: true,
		Usage: &apiusage.Snapshot{
			FiveHourPercent:  37.6,
			FiveHourResetsAt: &reset,
			SevenDayPercent:  62.0,
			SevenDayResetsAt: &weekReset,
		},
		Context: &ContextInfo{Tokens: 45_123, Limit: 155_000, Percentage: 29},
		Now:     renderNow,
	}
}

func TestRender_AllElements(t *testing.T) {
	t.Parallel()

	elements := []string{
		"model", "block_cost", "time_remaining", "burn_rate",
		"context", "api_usage_5h", "api_usage_7d",
	}

	got := Render(fullStatus(), elements, " │ ")
	want := "Sonnet 4 │ $3.42 │ 3h25m left │ $1.50/h │ 45,123 (29%) │ 5h 38% │ 7d 62% resets 2d1h"
	assert.Equal(t, want, got)
}

func TestRender_RemoteResetSupersedesLocal(t *testing.T) {
	t.Parallel()

	s := fullStatus()

	// Without the remote reset the local window drives the figure.
	s.Usage = nil
	got := Render(s, []string{"time_remaining"}, " │ ")

	remaining := s.Block.EndTime.Sub(renderNow)
	assert.Equal(t, formatHoursMinutes(remaining)+" left", got)
}

func TestRender_IdleSuppressesTimeRemaining(t *testing.T) {
	t.Parallel()

	// A remote reset instant without an active block reports no window.
	reset := renderNow.Add(2 * time.Hour)
	s := &Status{
		ModelLabel: "Sonnet 4",
		Usage:      &apiusage.Snapshot{FiveHourResetsAt: &reset},
		Now:        renderNow,
	}

	got := Render(s, []string{"model", "time_remaining"}, " │ ")
	assert.Equal(t, "Sonnet 4", got)
}

func TestRender_MissingDataDropsElements(t *testing.T) {
	t.Parallel()

	s := &Status{Now: renderNow}
	got := Render(s, []string{"model", "burn_rate", "context", "api_usage_5h"}, " │ ")
	assert.Equal(t, "no cost data", got)
}

func TestRender_IdleBlock(t *testing.T) {
	t.Parallel()

	s := &Status{ModelLabel: "Sonnet 4", Now: renderNow}
	got := Render(s, []string{"model", "block_cost"}, " │ ")
	assert.Equal(t, "Sonnet 4 │ no block", got)
}

func TestFormatHoursMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m"},
		{-5 * time.Minute, "0m"},
		{45 * time.Minute, "45m"},
		{2 * time.Hour, "2h"},
		{3*time.Hour + 25*time.Minute, "3h25m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatHoursMinutes(tt.d), tt.d.String())
	}
}

func TestFormatDaysHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0d"},
		{5 * time.Hour, "5h"},
		{48 * time.Hour, "2d"},
		{49 * time.Hour, "2d1h"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDaysHours(tt.d), tt.d.String())
	}
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{45123, "45,123"},
		{1234567, "1,234,567"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.n))
	}
}
