package moderation

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// Message is the platform-independent view of a chat message the spam
// monitor evaluates.
type Message struct {
	ID            string
	GuildID       string
	ChannelID     string
	AuthorID      string
	AuthorIsBot   bool
	IsWebhook     bool
	Content       string
	HasAttachment bool
	AuthorRoles   []string
	Timestamp     time.Time
}

// SpamAction is the verdict of one observation
type SpamAction int

const (
	SpamIgnore SpamAction = iota
	SpamFlagKnown
	SpamFlagRepeat
)

// Spam reasons carried into the synthetic AUTO warning
const (
	ReasonKnownSpam = "resembles known spambot messages"
)

// SpamVerdict tells the caller what to do: which messages to delete and the
// reason to record. DeleteIDs are message IDs in the observed channel.
type SpamVerdict struct {
	Action    SpamAction
	Reason    string
	DeleteIDs []string
}

const (
	repeatWindowSize = 3
	repeatWindowAge  = 20 * time.Second
	lastSpamMemory   = 60 * time.Second
	longMessageLimit = 500
)

// guildWindow tracks the most recent run of identical messages in one guild
type guildWindow struct {
	mu   sync.Mutex
	msgs []Message
}

// SpamMonitor holds the per-guild repeat windows and the short memory of
// recently flagged content. Ephemeral, never persisted.
type SpamMonitor struct {
	mu       sync.Mutex
	guilds   map[string]*guildWindow
	lastSpam map[string]time.Time // authorID + "\x00" + content -> flagged at
	now      func() time.Time
}

// NewSpamMonitor creates a spam monitor
func NewSpamMonitor() *SpamMonitor {
	return &SpamMonitor{
		guilds:   make(map[string]*guildWindow),
		lastSpam: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *SpamMonitor) windowFor(guildID string) *guildWindow {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.guilds[guildID]
	if !ok {
		w = &guildWindow{}
		m.guilds[guildID] = w
	}
	return w
}

// Observe evaluates one message. Bots, webhooks and holders of a configured
// non-spambot role are never evaluated. The signature matcher runs first and
// short-circuits the repeat window.
func (m *SpamMonitor) Observe(cfg *models.GuildSettings, msg Message) SpamVerdict {
	if msg.AuthorIsBot || msg.IsWebhook || hasAnyRole(msg.AuthorRoles, cfg.NonSpambotRoleIDs) {
		return SpamVerdict{Action: SpamIgnore}
	}

	if verdict := m.checkSignature(msg); verdict.Action != SpamIgnore {
		return verdict
	}

	return m.checkRepeat(msg)
}

func hasAnyRole(roles, wanted []string) bool {
	for _, r := range roles {
		for _, w := range wanted {
			if r == w {
				return true
			}
		}
	}
	return false
}

// checkSignature runs the static heuristics and the 60-second repeat memory
func (m *SpamMonitor) checkSignature(msg Message) SpamVerdict {
	memoryKey := msg.AuthorID + "\x00" + msg.Content

	m.mu.Lock()
	flaggedAt, seen := m.lastSpam[memoryKey]
	if seen && m.now().Sub(flaggedAt) <= lastSpamMemory {
		m.mu.Unlock()
		// Same author repeating already-flagged content: no need to re-run
		// the heuristics, delete the duplicate outright
		return SpamVerdict{Action: SpamFlagKnown, Reason: ReasonKnownSpam, DeleteIDs: []string{msg.ID}}
	}
	m.mu.Unlock()

	if !matchesSpamSignature(msg.Content) {
		return SpamVerdict{Action: SpamIgnore}
	}

	m.mu.Lock()
	m.pruneLastSpam()
	m.lastSpam[memoryKey] = m.now()
	m.mu.Unlock()

	return SpamVerdict{Action: SpamFlagKnown, Reason: ReasonKnownSpam, DeleteIDs: []string{msg.ID}}
}

// pruneLastSpam drops expired memory entries. Caller must hold m.mu.
func (m *SpamMonitor) pruneLastSpam() {
	cutoff := m.now().Add(-lastSpamMemory)
	for k, at := range m.lastSpam {
		if at.Before(cutoff) {
			delete(m.lastSpam, k)
		}
	}
}

// checkRepeat feeds the per-guild window of identical messages
func (m *SpamMonitor) checkRepeat(msg Message) SpamVerdict {
	w := m.windowFor(msg.GuildID)
	w.mu.Lock()
	defer w.mu.Unlock()

	if !m.qualifiesForWindow(w, msg) {
		w.msgs = w.msgs[:0]
		if !msg.HasAttachment {
			w.msgs = append(w.msgs, msg)
		}
		return SpamVerdict{Action: SpamIgnore}
	}

	if len(w.msgs) == repeatWindowSize {
		// Fourth identical message inside the window: flag everything
		deleteIDs := make([]string, 0, repeatWindowSize+1)
		for _, queued := range w.msgs {
			deleteIDs = append(deleteIDs, queued.ID)
		}
		deleteIDs = append(deleteIDs, msg.ID)
		w.msgs = w.msgs[:0]

		reason := repeatReason(repeatWindowSize + 1)
		return SpamVerdict{Action: SpamFlagRepeat, Reason: reason, DeleteIDs: deleteIDs}
	}

	w.msgs = append(w.msgs, msg)
	return SpamVerdict{Action: SpamIgnore}
}

// qualifiesForWindow reports whether msg continues the current run. Caller
// must hold w.mu.
func (m *SpamMonitor) qualifiesForWindow(w *guildWindow, msg Message) bool {
	if len(w.msgs) == 0 {
		return false
	}
	head := w.msgs[0]
	if msg.HasAttachment {
		return false
	}
	if msg.AuthorID != head.AuthorID || msg.Content != head.Content {
		return false
	}
	return msg.Timestamp.Sub(head.Timestamp) <= repeatWindowAge
}

func repeatReason(n int) string {
	return "posted the same message " + strconv.Itoa(n) + " times rapidly"
}

// --- signature heuristics ---

var (
	zeroWidthReplacer = strings.NewReplacer(
		"​", "", "‌", "", "‍", "", "\uFEFF", "", "⁠", "",
	)
	repeatedRunRe = regexp.MustCompile(`([a-z])\1+`)
	maskedLinkRe  = regexp.MustCompile(`\[[^\]]+\]\(\s*https?://`)
	urlTokenRe    = regexp.MustCompile(`https?://|www\.`)
)

// knownSpamPhrases flag a message on their own, regardless of length
var knownSpamPhrases = []string{
	"free nitro",
	"free discord nitro",
	"nitro for free",
	"discord.gift/",
	"steamcommunity.com/gift",
	"who is first? :)",
	"bro, take it before it's gone",
}

// scamKeywords only flag when combined with a link
var scamKeywords = []string{
	"nitro",
	"steam gift",
	"giveaway ends",
	"airdrop",
	"only today",
	"18+ content",
	"free skins",
}

var inviteTokens = []string{"discord.gg/", "discord.com/invite/"}

// normalizeContent lowercases and strips the usual obfuscation noise:
// zero-width characters, pipe padding and doubled letters.
func normalizeContent(content string) string {
	s := strings.ToLower(content)
	s = zeroWidthReplacer.Replace(s)
	s = strings.ReplaceAll(s, "|", "")
	s = repeatedRunRe.ReplaceAllString(s, "$1$1")
	return s
}

// collapseRuns reduces every repeated letter run to a single letter, catching
// f-r-e-e style padding after normalizeContent removed the separators.
func collapseRuns(s string) string {
	return repeatedRunRe.ReplaceAllString(s, "$1")
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// containsAnyCollapsed matches against a run-collapsed haystack; the needles
// are collapsed the same way so "ffrreeee" still meets "free".
func containsAnyCollapsed(collapsed string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(collapsed, collapseRuns(n)) {
			return true
		}
	}
	return false
}

func hasMassMention(s string) bool {
	return strings.Contains(s, "@everyone") || strings.Contains(s, "@here")
}

// matchesSpamSignature applies the ordered content heuristics
func matchesSpamSignature(content string) bool {
	normalized := normalizeContent(content)
	collapsed := collapseRuns(normalized)

	if containsAny(normalized, knownSpamPhrases) || containsAnyCollapsed(collapsed, knownSpamPhrases) {
		return true
	}

	// Spambot messages are short; long posts never trip the link heuristics
	if len(content) > longMessageLimit {
		return false
	}

	if !urlTokenRe.MatchString(normalized) {
		return false
	}

	if containsAny(normalized, scamKeywords) || containsAnyCollapsed(collapsed, scamKeywords) {
		return true
	}

	if hasMassMention(normalized) && (containsAny(normalized, inviteTokens) || maskedLinkRe.MatchString(normalized)) {
		return true
	}

	return mentionThenBareLink(normalized)
}

// mentionThenBareLink matches the classic layout: a first line opening with
// a mass mention and a bare link as the last non-blank line.
func mentionThenBareLink(normalized string) bool {
	lines := strings.Split(normalized, "\n")
	if len(lines) < 2 {
		return false
	}

	first := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(first, "@everyone") && !strings.HasPrefix(first, "@here") {
		return false
	}

	for i := len(lines) - 1; i >= 0; i-- {
		last := strings.TrimSpace(lines[i])
		if last == "" {
			continue
		}
		return (strings.HasPrefix(last, "http://") || strings.HasPrefix(last, "https://")) &&
			!strings.ContainsAny(last, " \t")
	}
	return false
}
