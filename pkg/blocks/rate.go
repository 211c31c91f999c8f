package blocks

import "time"

// MinRateElapsed is the minimum time a block must have been running
// before a burn rate is reported. A just-started block divides by a
// tiny elapsed window and produces a misleadingly large figure.
const MinRateElapsed = 30 * time.Second

// Rate derives the spend velocity of the active block.
//
// Returns ok=false when there is no active block, the block is no
// longer active at now, or less than MinRateElapsed has passed since
// the block started.
func Rate(active *Block, now time.Time) (BurnRate, bool) {
	if active == nil || !active.Active(now) {
		return BurnRate{}, false
	}

	elapsed := now.Sub(active.StartTime)
	if elapsed < MinRateElapsed {
		return BurnRate{}, false
	}

	return BurnRate{
		CostPerHour:     active.CostUSD / elapsed.Hours(),
		TokensPerMinute: float64(active.Tokens.TotalTokens()) / elapsed.Minutes(),
	}, true
}
