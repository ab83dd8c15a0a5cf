package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// fakePlatform records every remote call and fails on demand
type fakePlatform struct {
	mu sync.Mutex

	granted     []string
	revoked     []string
	banned      []string
	unbanned    []string
	timedOut    []string
	messages    map[string][]string
	dms         map[string][]string
	deleted     []string
	reopened    []string
	members     map[string][]string
	liveThreads map[string]bool

	nextThread int

	grantErr  error
	banErr    error
	unbanErr  error
	dmErr     error
	threadErr error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		messages:    make(map[string][]string),
		dms:         make(map[string][]string),
		members:     make(map[string][]string),
		liveThreads: make(map[string]bool),
	}
}

func key(parts ...string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ":" + p
	}
	return out
}

func (p *fakePlatform) GrantRole(_ context.Context, guildID, userID, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grantErr != nil {
		return p.grantErr
	}
	p.granted = append(p.granted, key(guildID, userID, roleID))
	return nil
}

func (p *fakePlatform) RevokeRole(_ context.Context, guildID, userID, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, key(guildID, userID, roleID))
	return nil
}

func (p *fakePlatform) Ban(_ context.Context, guildID, userID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.banErr != nil {
		return p.banErr
	}
	p.banned = append(p.banned, key(guildID, userID))
	return nil
}

func (p *fakePlatform) Unban(_ context.Context, guildID, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unbanErr != nil {
		return p.unbanErr
	}
	p.unbanned = append(p.unbanned, key(guildID, userID))
	return nil
}

func (p *fakePlatform) Timeout(_ context.Context, guildID, userID string, _ time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timedOut = append(p.timedOut, key(guildID, userID))
	return nil
}

func (p *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[channelID] = append(p.messages[channelID], content)
	return nil
}

func (p *fakePlatform) CreateThread(_ context.Context, channelID, name string, _ bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.threadErr != nil {
		return "", p.threadErr
	}
	p.nextThread++
	id := fmt.Sprintf("thread-%d", p.nextThread)
	p.liveThreads[id] = true
	return id, nil
}

func (p *fakePlatform) ReopenThread(_ context.Context, threadID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reopened = append(p.reopened, threadID)
	return nil
}

func (p *fakePlatform) ThreadExists(_ context.Context, threadID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liveThreads[threadID]
}

func (p *fakePlatform) AddThreadMember(_ context.Context, threadID, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members[threadID] = append(p.members[threadID], userID)
	return nil
}

func (p *fakePlatform) DMUser(_ context.Context, userID, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dmErr != nil {
		return p.dmErr
	}
	p.dms[userID] = append(p.dms[userID], content)
	return nil
}

func (p *fakePlatform) DeleteMessage(_ context.Context, channelID, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, key(channelID, messageID))
	return nil
}

// fakeLedger is an in-memory Ledger
type fakeLedger struct {
	mu      sync.Mutex
	entries map[string]*models.WarnableUser
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[string]*models.WarnableUser)}
}

func (l *fakeLedger) get(guildID, userID string) *models.WarnableUser {
	k := key(guildID, userID)
	entry, ok := l.entries[k]
	if !ok {
		entry = &models.WarnableUser{GuildID: guildID, UserID: userID, Warnings: []models.Warning{}}
		l.entries[k] = entry
	}
	return entry
}

func (l *fakeLedger) GetOrCreate(guildID, userID string) (*models.WarnableUser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := *l.get(guildID, userID)
	return &copied, nil
}

func (l *fakeLedger) Update(guildID, userID string, fn func(entry *models.WarnableUser) error) (*models.WarnableUser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.get(guildID, userID)
	if err := fn(entry); err != nil {
		return nil, err
	}
	copied := *entry
	return &copied, nil
}

func (l *fakeLedger) AppendWarning(guildID, userID string, w models.Warning) (*models.WarnableUser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.get(guildID, userID)
	entry.Warnings = append([]models.Warning{w}, entry.Warnings...)
	return entry, nil
}

func (l *fakeLedger) SetMuted(guildID, userID string, muted bool) (*models.WarnableUser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.get(guildID, userID)
	entry.IsMuted = muted
	return entry, nil
}

func (l *fakeLedger) SetIncidentThread(guildID, userID, threadID string) (*models.WarnableUser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.get(guildID, userID)
	entry.IncidentThreadID = threadID
	return entry, nil
}

func (l *fakeLedger) SeenUsername(guildID, userID, username string) (*models.WarnableUser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.get(guildID, userID)
	entry.LastKnownUsername = username
	if !entry.HasSeenName(username) {
		entry.SeenNames = append(entry.SeenNames, username)
	}
	return entry, nil
}

// fakeBanStore is an in-memory BanStore
type fakeBanStore struct {
	mu      sync.Mutex
	nextID  int64
	active  map[string]*models.ScheduledBan
	retired []models.ScheduledBanHistory
}

func newFakeBanStore() *fakeBanStore {
	return &fakeBanStore{active: make(map[string]*models.ScheduledBan)}
}

func (s *fakeBanStore) Active(guildID, userID string) (*models.ScheduledBan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ban, ok := s.active[key(guildID, userID)]
	if !ok {
		return nil, nil
	}
	copied := *ban
	return &copied, nil
}

func (s *fakeBanStore) AllActive() ([]*models.ScheduledBan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.ScheduledBan, 0, len(s.active))
	for _, ban := range s.active {
		copied := *ban
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeBanStore) Insert(ban *models.ScheduledBan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ban.EntryID = s.nextID
	copied := *ban
	s.active[key(ban.GuildID, ban.UserID)] = &copied
	return nil
}

func (s *fakeBanStore) Retire(ban models.ScheduledBan, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retired = append(s.retired, models.ScheduledBanHistory{
		ScheduledBan: ban,
		Outcome:      outcome,
		RetiredAt:    time.Now().UTC(),
	})
	delete(s.active, key(ban.GuildID, ban.UserID))
	return nil
}

// fakeConfig serves per-guild settings from a map, empty when absent
type fakeConfig struct {
	settings map[string]*models.GuildSettings
}

func (c *fakeConfig) GuildSettings(guildID string) (*models.GuildSettings, error) {
	if s, ok := c.settings[guildID]; ok {
		return s, nil
	}
	return &models.GuildSettings{GuildID: guildID}, nil
}

// eventRecorder collects published events
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) notify(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *eventRecorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}
