package bruteforce

import (
	"time"
)

// Progress is one aggregated progress snapshot, emitted by the
// coordinator. Workers report count deltas; they never build these.
// Display math lives with the consumer so rate and ETA are derived from
// one quantity.
type Progress struct {
	Attempts uint64
	Cursor   uint64
	Total    uint64
	Elapsed  time.Duration
	Current  string // latest candidate, only when requested
}

// ProgressFunc receives coordinator progress snapshots.
type ProgressFunc func(p Progress)
