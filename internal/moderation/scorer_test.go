package moderation

import (
	"testing"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

func warningAged(level models.WarnLevel, age time.Duration, now time.Time) models.Warning {
	return models.Warning{
		ID:        "w",
		Level:     level,
		TimeGiven: now.Add(-age),
	}
}

const day = 24 * time.Hour

func TestDecideInstantMute(t *testing.T) {
	now := time.Now()
	d := Decide(nil, models.LevelInstantMute, now)

	if !d.Mute || !d.Instant {
		t.Errorf("Decide(INSTANT_MUTE) = %+v, want Mute and Instant", d)
	}
}

func TestDecideNonTriggeringLevels(t *testing.T) {
	now := time.Now()
	existing := []models.Warning{
		warningAged(models.LevelSerious, day, now),
		warningAged(models.LevelSerious, day, now),
		warningAged(models.LevelSerious, day, now),
	}

	for _, level := range []models.WarnLevel{models.LevelNote, models.LevelMinor, models.LevelAuto, models.LevelBan} {
		d := Decide(existing, level, now)
		if d.Mute {
			t.Errorf("Decide(%s) muted, but the level must never trigger the scorer", level)
		}
	}
}

func TestDecideThreshold(t *testing.T) {
	now := time.Now()

	// Three NORMAL warnings within 7 days: 3 x 1.5 = 4.5 >= 4.0
	three := []models.Warning{
		warningAged(models.LevelNormal, day, now),
		warningAged(models.LevelNormal, 2*day, now),
		warningAged(models.LevelNormal, 3*day, now),
	}
	if d := Decide(three, models.LevelNormal, now); !d.Mute {
		t.Errorf("three fresh NORMAL warnings (score %.2f) should mute", d.Score)
	}

	// Two such warnings: 3.0 < 4.0
	two := three[:2]
	if d := Decide(two, models.LevelNormal, now); d.Mute {
		t.Errorf("two fresh NORMAL warnings (score %.2f) should not mute", d.Score)
	}
}

func TestDecayBoundaryExactness(t *testing.T) {
	cases := []struct {
		name   string
		age    time.Duration
		weight float64
	}{
		{"exactly 7 days", 7 * day, 1.5},
		{"just past 7 days", 7*day + time.Second, 1.0},
		{"exactly 14 days", 14 * day, 1.0},
		{"just past 14 days", 14*day + time.Second, 0.75},
		{"exactly 30 days", 30 * day, 0.75},
		{"past 30 days", 30*day + 9*time.Second, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := weightFor(models.LevelNormal, tc.age); got != tc.weight {
				t.Errorf("weightFor(NORMAL, %v) = %v, want %v", tc.age, got, tc.weight)
			}
		})
	}
}

func TestSeriousWeightsHigherThanNormal(t *testing.T) {
	now := time.Now()

	existing := []models.Warning{
		warningAged(models.LevelNormal, day, now),
		warningAged(models.LevelNormal, 2*day, now),
	}
	normal := Decide(append(existing, warningAged(models.LevelNormal, 3*day, now)), models.LevelNormal, now)
	serious := Decide(append(existing, warningAged(models.LevelSerious, 3*day, now)), models.LevelNormal, now)

	if serious.Score <= normal.Score {
		t.Errorf("serious history score %.2f should exceed normal history score %.2f", serious.Score, normal.Score)
	}
	if normal.Mute && !serious.Mute {
		t.Error("a SERIOUS warning must never yield a lower mute decision than a NORMAL one")
	}
}

func TestInstantMuteHistoryAccumulates(t *testing.T) {
	now := time.Now()
	existing := []models.Warning{
		warningAged(models.LevelInstantMute, 3*day, now),
		warningAged(models.LevelSerious, 5*day, now),
	}

	d := Decide(existing, models.LevelNormal, now)
	if d.Score != 4.0 {
		t.Errorf("Score = %.2f, want 4.0 (2.0 + 2.0)", d.Score)
	}
	if !d.Mute {
		t.Error("score of exactly 4.0 must mute")
	}
	if d.SeriousCount != 2 {
		t.Errorf("SeriousCount = %d, want 2", d.SeriousCount)
	}
}

func TestBanLevelExcludedFromScore(t *testing.T) {
	now := time.Now()
	existing := []models.Warning{
		warningAged(models.LevelBan, day, now),
		warningAged(models.LevelNormal, day, now),
	}

	d := Decide(existing, models.LevelNormal, now)
	if d.Score != 1.5 {
		t.Errorf("Score = %.2f, want 1.5 (BAN entries carry no weight)", d.Score)
	}
}

func TestEndToEndScenario(t *testing.T) {
	now := time.Now()

	// User with SERIOUS warnings at 3 and 10 days: 2.0 + 1.5 = 3.5
	history := []models.Warning{
		warningAged(models.LevelSerious, 3*day, now),
		warningAged(models.LevelSerious, 10*day, now),
	}

	first := Decide(history, models.LevelNormal, now)
	if first.Mute {
		t.Errorf("score %.2f should not mute yet", first.Score)
	}

	// The NORMAL warning is recorded; two days later another one arrives.
	later := now.Add(2 * day)
	history = append([]models.Warning{warningAged(models.LevelNormal, 0, now)}, history...)

	second := Decide(history, models.LevelNormal, later)
	if second.Score != 5.0 {
		t.Errorf("Score = %.2f, want 5.0 (2.0 + 1.5 + 1.5)", second.Score)
	}
	if !second.Mute {
		t.Error("score of 5.0 must mute")
	}
}
