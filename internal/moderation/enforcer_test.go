package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

func newTestEnforcer() (*Enforcer, *fakeLedger, *fakePlatform, *eventRecorder) {
	ledger := newFakeLedger()
	platform := newFakePlatform()
	rec := &eventRecorder{}
	e := NewEnforcer(platform, ledger, &Stats{}, rec.notify)
	return e, ledger, platform, rec
}

func enforcerSettings() *models.GuildSettings {
	return &models.GuildSettings{
		GuildID:          "g1",
		MuteRoleID:       "mute-role",
		ModLogChannelIDs: []string{"modlog-1"},
	}
}

func TestMuteAppliesRoleAndFlag(t *testing.T) {
	e, ledger, platform, rec := newTestEnforcer()
	cfg := enforcerSettings()

	applied, err := e.Mute(context.Background(), cfg, "u1", "mod1", "acumulación", Decision{Mute: true, Score: 4.5})
	if err != nil {
		t.Fatalf("Mute: %v", err)
	}
	if !applied {
		t.Fatal("Mute reported no-op for an unmuted user")
	}

	if len(platform.granted) != 1 || platform.granted[0] != "g1:u1:mute-role" {
		t.Errorf("granted = %v", platform.granted)
	}
	entry, _ := ledger.GetOrCreate("g1", "u1")
	if !entry.IsMuted {
		t.Error("mute flag not persisted")
	}
	if len(platform.messages["modlog-1"]) != 1 {
		t.Errorf("mod-log messages = %v", platform.messages["modlog-1"])
	}
	if kinds := rec.kinds(); len(kinds) != 1 || kinds[0] != EventMute {
		t.Errorf("events = %v", kinds)
	}
}

func TestMuteIdempotence(t *testing.T) {
	e, _, platform, _ := newTestEnforcer()
	cfg := enforcerSettings()
	ctx := context.Background()

	first, err := e.Mute(ctx, cfg, "u1", "mod1", "razón", Decision{Mute: true, Instant: true})
	if err != nil || !first {
		t.Fatalf("first Mute = (%v, %v)", first, err)
	}

	second, err := e.Mute(ctx, cfg, "u1", "mod1", "razón", Decision{Mute: true, Instant: true})
	if err != nil {
		t.Fatalf("second Mute: %v", err)
	}
	if second {
		t.Error("second Mute must be a no-op for an already muted user")
	}
	if len(platform.granted) != 1 {
		t.Errorf("role granted %d times, want once", len(platform.granted))
	}
}

func TestMuteWithoutMuteRoleIsNoop(t *testing.T) {
	e, ledger, platform, _ := newTestEnforcer()
	cfg := enforcerSettings()
	cfg.MuteRoleID = ""

	applied, err := e.Mute(context.Background(), cfg, "u1", "mod1", "razón", Decision{Mute: true})
	if err != nil {
		t.Fatalf("Mute: %v", err)
	}
	if applied {
		t.Error("Mute applied without a configured mute role")
	}
	if len(platform.granted) != 0 {
		t.Errorf("granted = %v", platform.granted)
	}
	entry, _ := ledger.GetOrCreate("g1", "u1")
	if entry.IsMuted {
		t.Error("flag set without a mute mechanism")
	}
}

func TestMuteFailsOpenOnRoleGrantError(t *testing.T) {
	e, ledger, platform, _ := newTestEnforcer()
	cfg := enforcerSettings()
	platform.grantErr = errors.New("missing permissions")

	applied, err := e.Mute(context.Background(), cfg, "u1", "mod1", "razón", Decision{Mute: true})
	if err != nil {
		t.Fatalf("Mute: %v", err)
	}
	if !applied {
		t.Error("the decision must stand even when the role grant fails")
	}
	entry, _ := ledger.GetOrCreate("g1", "u1")
	if !entry.IsMuted {
		t.Error("mute flag must persist for a later retry")
	}
}

func TestIncidentThreadCreatedAndReused(t *testing.T) {
	e, ledger, platform, _ := newTestEnforcer()
	cfg := enforcerSettings()
	cfg.IncidentChannelIDs = []string{"incidents"}
	cfg.ThreadAutoAddUserIDs = []string{"lead-mod"}
	ctx := context.Background()

	if _, err := e.Mute(ctx, cfg, "u1", "mod1", "primera", Decision{Mute: true}); err != nil {
		t.Fatalf("Mute: %v", err)
	}

	entry, _ := ledger.GetOrCreate("g1", "u1")
	threadID := entry.IncidentThreadID
	if threadID == "" {
		t.Fatal("no incident thread recorded")
	}
	if len(platform.messages[threadID]) == 0 {
		t.Error("notice not posted to the thread")
	}
	members := platform.members[threadID]
	if len(members) != 2 || members[0] != "u1" || members[1] != "lead-mod" {
		t.Errorf("thread members = %v", members)
	}

	// Unmute and mute again: the stored thread is revived, not recreated
	if err := e.Unmute(ctx, cfg, "u1", "mod1"); err != nil {
		t.Fatalf("Unmute: %v", err)
	}
	if _, err := e.Mute(ctx, cfg, "u1", "mod1", "segunda", Decision{Mute: true}); err != nil {
		t.Fatalf("second Mute: %v", err)
	}

	entry, _ = ledger.GetOrCreate("g1", "u1")
	if entry.IncidentThreadID != threadID {
		t.Errorf("thread recreated: %s -> %s", threadID, entry.IncidentThreadID)
	}
	if len(platform.reopened) != 1 || platform.reopened[0] != threadID {
		t.Errorf("reopened = %v", platform.reopened)
	}
}

func TestIncidentThreadRecreatedWhenGone(t *testing.T) {
	e, ledger, platform, _ := newTestEnforcer()
	cfg := enforcerSettings()
	cfg.IncidentChannelIDs = []string{"incidents"}
	ctx := context.Background()

	e.Mute(ctx, cfg, "u1", "mod1", "primera", Decision{Mute: true})
	entry, _ := ledger.GetOrCreate("g1", "u1")
	oldThread := entry.IncidentThreadID

	// The thread is deleted on the platform side
	platform.mu.Lock()
	delete(platform.liveThreads, oldThread)
	platform.mu.Unlock()

	e.Unmute(ctx, cfg, "u1", "mod1")
	e.Mute(ctx, cfg, "u1", "mod1", "segunda", Decision{Mute: true})

	entry, _ = ledger.GetOrCreate("g1", "u1")
	if entry.IncidentThreadID == oldThread || entry.IncidentThreadID == "" {
		t.Errorf("stale thread reference kept: %q", entry.IncidentThreadID)
	}
}

func TestMultipleIncidentChannelsUseFirstAsGeneral(t *testing.T) {
	e, ledger, platform, _ := newTestEnforcer()
	cfg := enforcerSettings()
	cfg.IncidentChannelIDs = []string{"inc-a", "inc-b"}

	e.Mute(context.Background(), cfg, "u1", "mod1", "razón", Decision{Mute: true})

	if len(platform.messages["inc-a"]) != 1 {
		t.Errorf("general incident channel messages = %v", platform.messages["inc-a"])
	}
	if len(platform.messages["inc-b"]) != 0 {
		t.Errorf("second channel should stay silent, got %v", platform.messages["inc-b"])
	}
	entry, _ := ledger.GetOrCreate("g1", "u1")
	if entry.IncidentThreadID != "" {
		t.Error("thread machinery must not run with several incident channels")
	}
}

func TestWarnListPostedToThread(t *testing.T) {
	e, ledger, platform, _ := newTestEnforcer()
	cfg := enforcerSettings()
	cfg.IncidentChannelIDs = []string{"incidents"}
	cfg.WarnListToThread = true

	ledger.AppendWarning("g1", "u1", models.Warning{ID: "w1", Level: models.LevelNormal, Reason: "spam", TimeGiven: time.Now()})

	e.Mute(context.Background(), cfg, "u1", "mod1", "razón", Decision{Mute: true})

	entry, _ := ledger.GetOrCreate("g1", "u1")
	msgs := platform.messages[entry.IncidentThreadID]
	if len(msgs) != 2 {
		t.Fatalf("thread messages = %v, want notice plus history", msgs)
	}
	if !strings.Contains(msgs[1], "Historial") {
		t.Errorf("history message = %q", msgs[1])
	}
}

func TestUnmute(t *testing.T) {
	e, ledger, platform, rec := newTestEnforcer()
	cfg := enforcerSettings()
	ctx := context.Background()

	e.Mute(ctx, cfg, "u1", "mod1", "razón", Decision{Mute: true})
	if err := e.Unmute(ctx, cfg, "u1", "mod2"); err != nil {
		t.Fatalf("Unmute: %v", err)
	}

	if len(platform.revoked) != 1 || platform.revoked[0] != "g1:u1:mute-role" {
		t.Errorf("revoked = %v", platform.revoked)
	}
	entry, _ := ledger.GetOrCreate("g1", "u1")
	if entry.IsMuted {
		t.Error("mute flag still set")
	}
	if kinds := rec.kinds(); kinds[len(kinds)-1] != EventUnmute {
		t.Errorf("events = %v", kinds)
	}

	// A second unmute is a silent no-op
	if err := e.Unmute(ctx, cfg, "u1", "mod2"); err != nil {
		t.Fatalf("second Unmute: %v", err)
	}
	if len(platform.revoked) != 1 {
		t.Errorf("role revoked %d times, want once", len(platform.revoked))
	}
}

func TestReapplyMuteOnRejoin(t *testing.T) {
	e, ledger, platform, _ := newTestEnforcer()
	cfg := enforcerSettings()
	ctx := context.Background()

	// Not muted: nothing happens
	e.ReapplyMute(ctx, cfg, "u1")
	if len(platform.granted) != 0 {
		t.Errorf("granted = %v", platform.granted)
	}

	ledger.SetMuted("g1", "u1", true)
	e.ReapplyMute(ctx, cfg, "u1")
	if len(platform.granted) != 1 || platform.granted[0] != "g1:u1:mute-role" {
		t.Errorf("granted = %v", platform.granted)
	}
}
