package moderation

import (
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// Escalation policy. A new NORMAL or SERIOUS warning triggers an automatic
// mute when the weighted sum over the user's prior warnings inside the
// 30-day window reaches the threshold. Weights decay with age in buckets;
// bucket bounds are inclusive, so a warning aged exactly 7 days still earns
// the freshest weight.
const (
	scoreWindow   = 30 * 24 * time.Hour
	muteThreshold = 4.0
)

// ageBucket maps a maximum age to the weight a warning of that age earns
type ageBucket struct {
	maxAge time.Duration
	weight float64
}

// levelPolicy describes how one warning level participates in escalation
type levelPolicy struct {
	triggers    bool // a NEW warning of this level runs the scorer
	accumulates bool // an EXISTING warning of this level adds weight
	buckets     []ageBucket
}

// scoringTable is the whole escalation policy in one place. NOTE, MINOR and
// AUTO are stored in history but never add weight; BAN is a pure audit
// marker and stays out of scoring entirely.
var scoringTable = map[models.WarnLevel]levelPolicy{
	models.LevelNormal: {
		triggers:    true,
		accumulates: true,
		buckets: []ageBucket{
			{maxAge: 7 * 24 * time.Hour, weight: 1.5},
			{maxAge: 14 * 24 * time.Hour, weight: 1.0},
			{maxAge: scoreWindow, weight: 0.75},
		},
	},
	models.LevelSerious: {
		triggers:    true,
		accumulates: true,
		buckets: []ageBucket{
			{maxAge: 7 * 24 * time.Hour, weight: 2.0},
			{maxAge: 14 * 24 * time.Hour, weight: 1.5},
			{maxAge: scoreWindow, weight: 1.0},
		},
	},
	models.LevelInstantMute: {
		triggers:    false, // handled before scoring
		accumulates: true,
		buckets: []ageBucket{
			{maxAge: 7 * 24 * time.Hour, weight: 2.0},
			{maxAge: 14 * 24 * time.Hour, weight: 1.5},
			{maxAge: scoreWindow, weight: 1.0},
		},
	},
}

// Decision is the outcome of scoring one new warning against a history
type Decision struct {
	Mute         bool
	Instant      bool
	Score        float64
	NormalCount  int
	SeriousCount int
}

// weightFor returns the weight an existing warning contributes at the given
// age, or 0 when the level does not accumulate or the warning left the window.
func weightFor(level models.WarnLevel, age time.Duration) float64 {
	policy, ok := scoringTable[level]
	if !ok || !policy.accumulates {
		return 0
	}
	for _, b := range policy.buckets {
		if age <= b.maxAge {
			return b.weight
		}
	}
	return 0
}

// Decide computes the mute decision for a newly added warning given the
// user's existing warnings. It is pure: same inputs and clock, same output.
// The new warning itself contributes no weight; only prior history counts.
func Decide(existing []models.Warning, newLevel models.WarnLevel, now time.Time) Decision {
	if newLevel == models.LevelInstantMute {
		return Decision{Mute: true, Instant: true}
	}

	policy, ok := scoringTable[newLevel]
	if !ok || !policy.triggers {
		return Decision{}
	}

	d := Decision{}
	for _, w := range existing {
		// Tombstoned warnings stay in the history but carry no weight
		if w.Removed {
			continue
		}
		age := w.Age(now)
		if age > scoreWindow {
			continue
		}
		weight := weightFor(w.Level, age)
		if weight == 0 {
			continue
		}
		d.Score += weight
		switch w.Level {
		case models.LevelNormal:
			d.NormalCount++
		case models.LevelSerious, models.LevelInstantMute:
			d.SeriousCount++
		}
	}

	d.Mute = d.Score >= muteThreshold
	return d
}
