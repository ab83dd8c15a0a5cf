package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

type serviceFixture struct {
	svc      *Service
	ledger   *fakeLedger
	platform *fakePlatform
	store    *fakeBanStore
	rec      *eventRecorder
	cfg      *fakeConfig
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		ledger:   newFakeLedger(),
		platform: newFakePlatform(),
		store:    newFakeBanStore(),
		rec:      &eventRecorder{},
		cfg: &fakeConfig{settings: map[string]*models.GuildSettings{
			"g1": {
				GuildID:          "g1",
				MuteRoleID:       "mute-role",
				ModLogChannelIDs: []string{"modlog"},
			},
		}},
	}
	f.svc = NewService(ServiceOptions{
		Platform:     f.platform,
		Ledger:       f.ledger,
		Config:       f.cfg,
		BanStore:     f.store,
		Notify:       f.rec.notify,
		ScanInterval: time.Hour,
		SpamTimeout:  5 * time.Minute,
	})
	return f
}

func TestRecordWarningValidation(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	if _, err := f.svc.RecordWarning(ctx, "g1", "u1", "mod1", "", "", models.LevelNormal); err == nil {
		t.Error("empty reason accepted")
	}
	if _, err := f.svc.RecordWarning(ctx, "g1", "", "mod1", "razón", "", models.LevelNormal); err == nil {
		t.Error("empty user accepted")
	}
	if _, err := f.svc.RecordWarning(ctx, "g1", "u1", "mod1", "razón", "", models.WarnLevel(99)); err == nil {
		t.Error("unknown level accepted")
	}
}

func TestRecordWarningEscalatesOverTime(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	// The first three NORMAL warnings accumulate without muting: each
	// decision only weighs the history recorded before it.
	for i := 0; i < 3; i++ {
		r, err := f.svc.RecordWarning(ctx, "g1", "u1", "mod1", "razón", "", models.LevelNormal)
		if err != nil {
			t.Fatalf("RecordWarning %d: %v", i, err)
		}
		if r.Decision.Mute {
			t.Fatalf("warning %d muted with score %.2f", i, r.Decision.Score)
		}
	}

	// The fourth sees 3 x 1.5 = 4.5 and mutes
	r, err := f.svc.RecordWarning(ctx, "g1", "u1", "mod1", "razón", "", models.LevelNormal)
	if err != nil {
		t.Fatalf("fourth RecordWarning: %v", err)
	}
	if !r.Decision.Mute || !r.Muted {
		t.Fatalf("fourth warning = %+v, want mute", r)
	}

	entry, _ := f.ledger.GetOrCreate("g1", "u1")
	if len(entry.Warnings) != 4 {
		t.Errorf("ledger has %d warnings, want 4", len(entry.Warnings))
	}
	if !entry.IsMuted {
		t.Error("mute flag not set")
	}
	if entry.Warnings[0].ID == "" {
		t.Error("warning IDs must be assigned")
	}
}

func TestRecordWarningInstantMute(t *testing.T) {
	f := newServiceFixture()

	r, err := f.svc.RecordWarning(context.Background(), "g1", "u1", "mod1", "grave", "", models.LevelInstantMute)
	if err != nil {
		t.Fatalf("RecordWarning: %v", err)
	}
	if !r.Decision.Instant || !r.Muted {
		t.Errorf("receipt = %+v, want an immediate mute", r)
	}
}

func TestRemoveWarningTombstones(t *testing.T) {
	f := newServiceFixture()

	r, _ := f.svc.RecordWarning(context.Background(), "g1", "u1", "mod1", "razón", "", models.LevelMinor)

	found, err := f.svc.RemoveWarning("g1", "u1", r.Warning.ID, "mod2")
	if err != nil || !found {
		t.Fatalf("RemoveWarning = (%v, %v)", found, err)
	}

	// The warning stays in the history as a tombstone instead of vanishing
	entry, _ := f.ledger.GetOrCreate("g1", "u1")
	if len(entry.Warnings) != 1 {
		t.Fatalf("warnings = %+v, want the tombstoned entry kept", entry.Warnings)
	}
	w := entry.Warnings[0]
	if !w.Removed || w.RemovedBy != "mod2" || w.RemovedAt == nil {
		t.Errorf("tombstone = %+v, want Removed with moderator and timestamp", w)
	}
	if len(entry.ActiveWarnings()) != 0 {
		t.Errorf("active warnings = %+v, want none", entry.ActiveWarnings())
	}

	// Removing the same warning twice reports not found
	found, err = f.svc.RemoveWarning("g1", "u1", r.Warning.ID, "mod2")
	if err != nil || found {
		t.Errorf("second RemoveWarning = (%v, %v), want (false, nil)", found, err)
	}

	found, err = f.svc.RemoveWarning("g1", "u1", "missing-id", "mod2")
	if err != nil || found {
		t.Errorf("RemoveWarning(missing) = (%v, %v), want (false, nil)", found, err)
	}
}

func TestRemovedWarningsCarryNoWeight(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		r, err := f.svc.RecordWarning(ctx, "g1", "u1", "mod1", "razón", "", models.LevelNormal)
		if err != nil {
			t.Fatalf("RecordWarning %d: %v", i, err)
		}
		ids = append(ids, r.Warning.ID)
	}

	// With one of the three retired, the fourth sees 2 x 1.5 = 3.0 < 4.0
	if found, _ := f.svc.RemoveWarning("g1", "u1", ids[0], "mod2"); !found {
		t.Fatal("warning to retire not found")
	}

	r, err := f.svc.RecordWarning(ctx, "g1", "u1", "mod1", "razón", "", models.LevelNormal)
	if err != nil {
		t.Fatalf("fourth RecordWarning: %v", err)
	}
	if r.Decision.Mute {
		t.Errorf("decision = %+v, retired warning still scored", r.Decision)
	}
}

func spamMessage(id string) Message {
	return Message{
		ID:        id,
		GuildID:   "g1",
		ChannelID: "ch1",
		AuthorID:  "u1",
		Content:   "@everyone free nitro discord.gg/abc",
		Timestamp: time.Now(),
	}
}

func TestObserveMessageSpamFlow(t *testing.T) {
	f := newServiceFixture()

	if err := f.svc.ObserveMessage(context.Background(), spamMessage("m1")); err != nil {
		t.Fatalf("ObserveMessage: %v", err)
	}

	if len(f.platform.deleted) != 1 || f.platform.deleted[0] != "ch1:m1" {
		t.Errorf("deleted = %v", f.platform.deleted)
	}
	if len(f.platform.timedOut) != 1 {
		t.Errorf("timedOut = %v", f.platform.timedOut)
	}

	entry, _ := f.ledger.GetOrCreate("g1", "u1")
	if len(entry.Warnings) != 1 || entry.Warnings[0].Level != models.LevelAuto {
		t.Fatalf("warnings = %+v, want one AUTO entry", entry.Warnings)
	}
	if entry.Warnings[0].Reason != ReasonKnownSpam {
		t.Errorf("reason = %q", entry.Warnings[0].Reason)
	}
	if !entry.IsMuted {
		t.Error("spam flag must mute directly")
	}

	if got := f.svc.Stats().SpamKnownFlags.Load(); got != 1 {
		t.Errorf("SpamKnownFlags = %d", got)
	}
}

func TestObserveMessageCleanIgnored(t *testing.T) {
	f := newServiceFixture()

	msg := spamMessage("m1")
	msg.Content = "hola a todos"
	if err := f.svc.ObserveMessage(context.Background(), msg); err != nil {
		t.Fatalf("ObserveMessage: %v", err)
	}
	if len(f.platform.deleted) != 0 || len(f.platform.timedOut) != 0 {
		t.Error("clean message triggered enforcement")
	}
}

func TestScheduleTempBanRespectsGuildCap(t *testing.T) {
	f := newServiceFixture()
	f.cfg.settings["g1"].MaxBanDuration = "7d"
	ctx := context.Background()

	if _, err := f.svc.ScheduleTempBan(ctx, "g1", "u1", "alice", "razón", "mod1", 30*24*time.Hour); !errors.Is(err, ErrBanTooLong) {
		t.Errorf("err = %v, want ErrBanTooLong", err)
	}

	ban, err := f.svc.ScheduleTempBan(ctx, "g1", "u1", "alice", "razón", "mod1", 3*24*time.Hour)
	if err != nil {
		t.Fatalf("ScheduleTempBan: %v", err)
	}
	if ban == nil || ban.IsPermanent() {
		t.Errorf("ban = %+v", ban)
	}

	// Permanent bans bypass the temporal cap
	if _, err := f.svc.ScheduleTempBan(ctx, "g1", "u2", "bob", "razón", "mod1", 60*365*24*time.Hour); err != nil {
		t.Errorf("permanent ban rejected: %v", err)
	}
}

func TestScheduleTempBanRecordsLedgerEntry(t *testing.T) {
	f := newServiceFixture()

	if _, err := f.svc.ScheduleTempBan(context.Background(), "g1", "u1", "alice", "razón", "mod1", time.Hour); err != nil {
		t.Fatalf("ScheduleTempBan: %v", err)
	}

	entry, _ := f.ledger.GetOrCreate("g1", "u1")
	if len(entry.Warnings) != 1 || entry.Warnings[0].Level != models.LevelBan {
		t.Fatalf("warnings = %+v, want one BAN entry", entry.Warnings)
	}

	// The BAN entry never feeds the escalation score
	d := Decide(entry.Warnings, models.LevelNormal, time.Now())
	if d.Score != 0 {
		t.Errorf("score = %.2f, want 0", d.Score)
	}
}

func TestCancelTempBanLiftsScheduledEntry(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	if _, err := f.svc.ScheduleTempBan(ctx, "g1", "u1", "alice", "razón", "mod1", time.Hour); err != nil {
		t.Fatalf("ScheduleTempBan: %v", err)
	}

	lifted, err := f.svc.CancelTempBan(ctx, "g1", "u1", "mod2")
	if err != nil || !lifted {
		t.Fatalf("CancelTempBan = (%v, %v), want (true, nil)", lifted, err)
	}
	if len(f.platform.unbanned) != 1 || f.platform.unbanned[0] != "g1:u1" {
		t.Errorf("unbanned = %v", f.platform.unbanned)
	}
	if active, _ := f.store.Active("g1", "u1"); active != nil {
		t.Error("entry still active after cancel")
	}
	if kinds := f.rec.kinds(); kinds[len(kinds)-1] != EventBanLifted {
		t.Errorf("events = %v", kinds)
	}
}

func TestCancelTempBanWithoutScheduledEntry(t *testing.T) {
	f := newServiceFixture()

	// Bans placed outside the scheduler can still be lifted: the platform
	// unban runs regardless of whether an entry was on the books.
	lifted, err := f.svc.CancelTempBan(context.Background(), "g1", "u1", "mod1")
	if err != nil {
		t.Fatalf("CancelTempBan: %v", err)
	}
	if lifted {
		t.Error("lifted = true with no scheduled entry")
	}
	if len(f.platform.unbanned) != 1 || f.platform.unbanned[0] != "g1:u1" {
		t.Errorf("unbanned = %v, want the platform unban anyway", f.platform.unbanned)
	}
}

func TestCancelTempBanSurvivesUnbanFailure(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	if _, err := f.svc.ScheduleTempBan(ctx, "g1", "u1", "alice", "razón", "mod1", time.Hour); err != nil {
		t.Fatalf("ScheduleTempBan: %v", err)
	}
	f.platform.unbanErr = errors.New("not banned")

	lifted, err := f.svc.CancelTempBan(ctx, "g1", "u1", "mod2")
	if err != nil || !lifted {
		t.Fatalf("CancelTempBan = (%v, %v), want (true, nil)", lifted, err)
	}
	if active, _ := f.store.Active("g1", "u1"); active != nil {
		t.Error("entry must retire even when the platform unban fails")
	}
}

func TestHandleMemberJoinReappliesMute(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.ledger.SetMuted("g1", "u1", true)
	f.svc.HandleMemberJoin(ctx, "g1", "u1", "alice")

	if len(f.platform.granted) != 1 || f.platform.granted[0] != "g1:u1:mute-role" {
		t.Errorf("granted = %v", f.platform.granted)
	}
	entry, _ := f.ledger.GetOrCreate("g1", "u1")
	if entry.LastKnownUsername != "alice" || !entry.HasSeenName("alice") {
		t.Errorf("username not recorded: %+v", entry)
	}
}
