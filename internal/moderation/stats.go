package moderation

import "sync/atomic"

// Stats holds process-wide moderation counters exposed by the web API
type Stats struct {
	WarningsRecorded  atomic.Int64
	MutesApplied      atomic.Int64
	SpamKnownFlags    atomic.Int64
	SpamRepeatFlags   atomic.Int64
	TempBansScheduled atomic.Int64
	BansExpired       atomic.Int64
	BansLifted        atomic.Int64
}

// Snapshot returns the counters as a plain map for serialization
func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"warningsRecorded":  s.WarningsRecorded.Load(),
		"mutesApplied":      s.MutesApplied.Load(),
		"spamKnownFlags":    s.SpamKnownFlags.Load(),
		"spamRepeatFlags":   s.SpamRepeatFlags.Load(),
		"tempBansScheduled": s.TempBansScheduled.Load(),
		"bansExpired":       s.BansExpired.Load(),
		"bansLifted":        s.BansLifted.Load(),
	}
}
