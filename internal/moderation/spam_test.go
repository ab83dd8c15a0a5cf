package moderation

import (
	"fmt"
	"testing"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

func testSettings() *models.GuildSettings {
	return &models.GuildSettings{
		GuildID:           "guild-1",
		NonSpambotRoleIDs: []string{"trusted-role"},
	}
}

func testMessage(id, authorID, content string, at time.Time) Message {
	return Message{
		ID:        id,
		GuildID:   "guild-1",
		ChannelID: "channel-1",
		AuthorID:  authorID,
		Content:   content,
		Timestamp: at,
	}
}

func monitorAt(t0 time.Time) *SpamMonitor {
	m := NewSpamMonitor()
	m.now = func() time.Time { return t0 }
	return m
}

func TestObserveExemptions(t *testing.T) {
	now := time.Now()
	m := monitorAt(now)
	cfg := testSettings()

	spam := "@everyone free nitro https://discord.gift/abc"

	bot := testMessage("m1", "u1", spam, now)
	bot.AuthorIsBot = true
	if v := m.Observe(cfg, bot); v.Action != SpamIgnore {
		t.Errorf("bot message flagged: %+v", v)
	}

	hook := testMessage("m2", "u1", spam, now)
	hook.IsWebhook = true
	if v := m.Observe(cfg, hook); v.Action != SpamIgnore {
		t.Errorf("webhook message flagged: %+v", v)
	}

	trusted := testMessage("m3", "u1", spam, now)
	trusted.AuthorRoles = []string{"trusted-role"}
	if v := m.Observe(cfg, trusted); v.Action != SpamIgnore {
		t.Errorf("trusted-role message flagged: %+v", v)
	}
}

func TestSignatureKnownPhrases(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    bool
	}{
		{"free nitro plain", "get your free nitro here", true},
		{"obfuscated with pipes", "f|r|e|e n|i|t|r|o", true},
		{"doubled letters", "ffrreeee nniittrroo", true},
		{"gift link", "claim at discord.gift/abc123", true},
		{"steam gift with link", "steam gift for you https://bit.ly/x", true},
		{"mass mention with invite", "@everyone join now discord.gg/abc", true},
		{"mass mention with masked link", "@here [click here](https://scam.example)", true},
		{"mention then bare link", "@everyone look at this\nhttps://scam.example/x", true},
		{"innocent chat", "hola, ¿cómo va el servidor?", false},
		{"innocent link", "found a cool repo https://github.com/golang/go", false},
		{"mention without link", "@everyone reunión en 10 minutos", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := matchesSpamSignature(tc.content); got != tc.want {
				t.Errorf("matchesSpamSignature(%q) = %v, want %v", tc.content, got, tc.want)
			}
		})
	}
}

func TestLongMessagesSkipLinkHeuristics(t *testing.T) {
	long := "@everyone "
	for len(long) <= longMessageLimit {
		long += "texto legítimo con contexto real "
	}
	long += "\nhttps://example.com/article"

	if matchesSpamSignature(long) {
		t.Error("messages over the length limit must not trip the link heuristics")
	}

	// Known phrases still apply regardless of length
	if !matchesSpamSignature(long + " free nitro") {
		t.Error("known phrases must flag even in long messages")
	}
}

func TestSignatureRepeatMemory(t *testing.T) {
	now := time.Now()
	m := monitorAt(now)
	cfg := testSettings()

	spam := "@everyone free nitro discord.gg/abc"

	first := m.Observe(cfg, testMessage("m1", "u1", spam, now))
	if first.Action != SpamFlagKnown {
		t.Fatalf("first spam message not flagged: %+v", first)
	}

	// Same author, same content, 30 seconds later: remembered
	m.now = func() time.Time { return now.Add(30 * time.Second) }
	second := m.Observe(cfg, testMessage("m2", "u1", spam, now.Add(30*time.Second)))
	if second.Action != SpamFlagKnown {
		t.Errorf("repeat within memory window not flagged: %+v", second)
	}

	// Past 60 seconds the memory entry expires but the heuristics still match
	m.now = func() time.Time { return now.Add(2 * time.Minute) }
	third := m.Observe(cfg, testMessage("m3", "u1", spam, now.Add(2*time.Minute)))
	if third.Action != SpamFlagKnown {
		t.Errorf("spam after memory expiry not flagged: %+v", third)
	}
}

func TestRepeatWindowFourthMessageFlags(t *testing.T) {
	now := time.Now()
	m := monitorAt(now)
	cfg := testSettings()

	content := "compra mi curso"
	for i := 0; i < 3; i++ {
		msg := testMessage(fmt.Sprintf("m%d", i), "u1", content, now.Add(time.Duration(i)*time.Second))
		if v := m.Observe(cfg, msg); v.Action != SpamIgnore {
			t.Fatalf("message %d flagged early: %+v", i, v)
		}
	}

	fourth := testMessage("m3x", "u1", content, now.Add(3*time.Second))
	v := m.Observe(cfg, fourth)
	if v.Action != SpamFlagRepeat {
		t.Fatalf("fourth identical message not flagged: %+v", v)
	}
	if len(v.DeleteIDs) != 4 {
		t.Errorf("DeleteIDs = %v, want all four messages", v.DeleteIDs)
	}
	if v.Reason != "posted the same message 4 times rapidly" {
		t.Errorf("Reason = %q", v.Reason)
	}
}

func TestRepeatWindowSpacedMessagesDoNotFlag(t *testing.T) {
	now := time.Now()
	m := monitorAt(now)
	cfg := testSettings()

	content := "compra mi curso"
	for i := 0; i < 4; i++ {
		at := now.Add(time.Duration(i) * 30 * time.Second)
		msg := testMessage(fmt.Sprintf("m%d", i), "u1", content, at)
		if v := m.Observe(cfg, msg); v.Action != SpamIgnore {
			t.Errorf("message %d at 30s spacing flagged: %+v", i, v)
		}
	}
}

func TestRepeatWindowResetConditions(t *testing.T) {
	now := time.Now()
	m := monitorAt(now)
	cfg := testSettings()

	content := "compra mi curso"
	m.Observe(cfg, testMessage("a1", "u1", content, now))
	m.Observe(cfg, testMessage("a2", "u1", content, now.Add(time.Second)))

	// A different author interrupts the run
	m.Observe(cfg, testMessage("b1", "u2", "otro mensaje", now.Add(2*time.Second)))

	m.Observe(cfg, testMessage("a3", "u1", content, now.Add(3*time.Second)))
	m.Observe(cfg, testMessage("a4", "u1", content, now.Add(4*time.Second)))
	v := m.Observe(cfg, testMessage("a5", "u1", content, now.Add(5*time.Second)))
	if v.Action != SpamIgnore {
		t.Errorf("run was interrupted, fourth-in-new-run should not flag yet: %+v", v)
	}

	fourth := m.Observe(cfg, testMessage("a6", "u1", content, now.Add(6*time.Second)))
	if fourth.Action != SpamFlagRepeat {
		t.Errorf("fourth message of the fresh run should flag: %+v", fourth)
	}
}

func TestRepeatWindowIgnoresAttachments(t *testing.T) {
	now := time.Now()
	m := monitorAt(now)
	cfg := testSettings()

	content := "mira esta foto"
	for i := 0; i < 4; i++ {
		msg := testMessage(fmt.Sprintf("m%d", i), "u1", content, now.Add(time.Duration(i)*time.Second))
		msg.HasAttachment = true
		if v := m.Observe(cfg, msg); v.Action != SpamIgnore {
			t.Errorf("attachment message %d flagged: %+v", i, v)
		}
	}
}

func TestRepeatWindowsPerGuild(t *testing.T) {
	now := time.Now()
	m := monitorAt(now)
	cfg := testSettings()
	otherCfg := &models.GuildSettings{GuildID: "guild-2"}

	content := "compra mi curso"
	for i := 0; i < 3; i++ {
		m.Observe(cfg, testMessage(fmt.Sprintf("m%d", i), "u1", content, now.Add(time.Duration(i)*time.Second)))
	}

	// Fourth message lands in a different guild: separate window, no flag
	other := testMessage("x1", "u1", content, now.Add(3*time.Second))
	other.GuildID = "guild-2"
	if v := m.Observe(otherCfg, other); v.Action != SpamIgnore {
		t.Errorf("message in another guild flagged: %+v", v)
	}
}
