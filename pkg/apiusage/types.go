// Package apiusage caches the remote quota-utilization snapshot from
// the claude.ai usage endpoint.
//
// The snapshot is advisory display data, so the cache trades staleness
// for bounded latency: a fresh entry is served without network I/O, a
// stale-but-usable entry is served immediately while a best-effort
// refresh runs for the next invocation, and an expired entry triggers
// one bounded synchronous fetch whose failure yields "absent" rather
// than an error.
package apiusage

import "time"

// Snapshot is one observation of remote quota utilization.
//
// Percentages are 0-100. Reset instants may be absent when the
// upstream omits them.
type Snapshot struct {
	FiveHourPercent  float64    `json:"five_hour_percent"`
	FiveHourResetsAt *time.Time `json:"five_hour_resets_at,omitempty"`
	SevenDayPercent  float64    `json:"seven_day_percent"`
	SevenDayResetsAt *time.Time `json:"seven_day_resets_at,omitempty"`
	FetchedAt        time.Time  `json:"fetched_at"`
}
