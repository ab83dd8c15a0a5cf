package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// BanStore persists scheduled bans and their retirement history
type BanStore interface {
	Active(guildID, userID string) (*models.ScheduledBan, error)
	AllActive() ([]*models.ScheduledBan, error)
	Insert(ban *models.ScheduledBan) error
	Retire(ban models.ScheduledBan, outcome string) error
}

// Durations beyond this are stored as permanent bans with no end time
const permanentCutoff = 50 * 365 * 24 * time.Hour

const (
	scanTimeout         = 2 * time.Minute
	defaultScanInterval = 30 * time.Minute
)

// TempBanScheduler owns the scheduled-ban lifecycle: scheduling, early lifts
// and the periodic expiry scan. All three paths run under one mutex so the
// one-active-entry-per-user invariant holds across concurrent commands and
// scans.
type TempBanScheduler struct {
	store    BanStore
	platform Platform
	cfgs     ConfigProvider
	stats    *Stats
	notify   Notifier

	mu       sync.Mutex
	now      func() time.Time
	interval time.Duration
	stop     chan struct{}
	trigger  chan struct{}
	stopOnce sync.Once
}

// NewTempBanScheduler creates a scheduler. Start must be called for the
// periodic scan to run.
func NewTempBanScheduler(store BanStore, platform Platform, cfgs ConfigProvider, stats *Stats, notify Notifier, interval time.Duration) *TempBanScheduler {
	if interval <= 0 {
		interval = defaultScanInterval
	}
	return &TempBanScheduler{
		store:    store,
		platform: platform,
		cfgs:     cfgs,
		stats:    stats,
		notify:   notify,
		now:      time.Now,
		interval: interval,
		stop:     make(chan struct{}),
		trigger:  make(chan struct{}, 1),
	}
}

func (s *TempBanScheduler) publish(evt Event) {
	if s.notify != nil {
		evt.At = time.Now().UTC()
		s.notify(evt)
	}
}

// Schedule records and executes a ban. An existing active entry for the same
// user is retired as replaced before the new one is written; the entry is
// persisted before the platform ban so a crash can never leave an untracked
// ban behind.
func (s *TempBanScheduler) Schedule(ctx context.Context, guildID, userID, displayName, reason, moderatorID string, d time.Duration) (*models.ScheduledBan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Active(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("looking up active ban: %w", err)
	}
	if existing != nil {
		if err := s.store.Retire(*existing, models.BanOutcomeReplaced); err != nil {
			return nil, fmt.Errorf("retiring replaced ban: %w", err)
		}
	}

	now := s.now().UTC()
	ban := &models.ScheduledBan{
		GuildID:     guildID,
		UserID:      userID,
		DisplayName: displayName,
		Reason:      reason,
		CreatedAt:   now,
		CreatedBy:   moderatorID,
	}
	if d <= permanentCutoff {
		end := now.Add(d)
		ban.End = &end
	}

	if err := s.store.Insert(ban); err != nil {
		return nil, fmt.Errorf("persisting scheduled ban: %w", err)
	}

	// The DM has to land before the ban cuts the shared guild off
	if err := s.platform.DMUser(ctx, userID, banNotice(ban)); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo avisar por DM a %s antes del baneo: %v", userID, err), "TempBan")
	}

	if err := s.platform.Ban(ctx, guildID, userID, reason); err != nil {
		logger.Error(fmt.Sprintf("Error baneando a %s en %s: %v", userID, guildID, err), "TempBan")
		return ban, fmt.Errorf("executing ban: %w", err)
	}

	s.stats.TempBansScheduled.Add(1)
	s.publish(Event{Kind: EventTempBan, GuildID: guildID, UserID: userID, Moderator: moderatorID, Reason: reason})
	return ban, nil
}

// Cancel retires an active entry early, bookkeeping only. The platform unban
// is the caller's responsibility, so manual unbans can also lift bans the
// scheduler never knew about. Returns false when the user has no active entry.
func (s *TempBanScheduler) Cancel(guildID, userID, moderatorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.store.Active(guildID, userID)
	if err != nil {
		return false, fmt.Errorf("looking up active ban: %w", err)
	}
	if active == nil {
		return false, nil
	}

	if err := s.store.Retire(*active, models.BanOutcomeLifted); err != nil {
		return false, fmt.Errorf("retiring lifted ban: %w", err)
	}

	s.stats.BansLifted.Add(1)
	s.publish(Event{Kind: EventBanLifted, GuildID: guildID, UserID: userID, Moderator: moderatorID})
	return true, nil
}

// ScanAndExpire retires every non-permanent entry whose end has passed,
// unbanning best effort. Returns how many entries expired.
func (s *TempBanScheduler) ScanAndExpire(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.store.AllActive()
	if err != nil {
		return 0, fmt.Errorf("listing active bans: %w", err)
	}

	now := s.now().UTC()
	expired := 0
	for _, ban := range active {
		if ban.IsPermanent() || !ban.Expired(now) {
			continue
		}

		if err := s.platform.Unban(ctx, ban.GuildID, ban.UserID); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo desbanear a %s en %s (puede que ya estuviera desbaneado): %v", ban.UserID, ban.GuildID, err), "TempBan")
		}

		if err := s.store.Retire(*ban, models.BanOutcomeExpired); err != nil {
			logger.Error(fmt.Sprintf("Error retirando baneo expirado %d: %v", ban.EntryID, err), "TempBan")
			continue
		}

		s.postExpiryNotice(ctx, ban)

		s.stats.BansExpired.Add(1)
		s.publish(Event{Kind: EventBanExpired, GuildID: ban.GuildID, UserID: ban.UserID, Reason: ban.Reason})
		expired++
	}

	return expired, nil
}

// postExpiryNotice tells the guild's mod-log channels that a ban ran out
func (s *TempBanScheduler) postExpiryNotice(ctx context.Context, ban *models.ScheduledBan) {
	if s.cfgs == nil {
		return
	}
	cfg, err := s.cfgs.GuildSettings(ban.GuildID)
	if err != nil {
		logger.Warn(fmt.Sprintf("Error cargando configuración de %s para el aviso de expiración: %v", ban.GuildID, err), "TempBan")
		return
	}

	notice := fmt.Sprintf("⏰ El baneo de <@%s> ha expirado y ha sido levantado.\n**Razón original:** %s", ban.UserID, ban.Reason)
	for _, channelID := range cfg.ModLogChannelIDs {
		if err := s.platform.SendMessage(ctx, channelID, notice); err != nil {
			logger.Error(fmt.Sprintf("Error enviando aviso de expiración al canal %s: %v", channelID, err), "TempBan")
		}
	}
}

// Start launches the periodic expiry scan
func (s *TempBanScheduler) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
			case <-s.trigger:
			}

			ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
			n, err := s.ScanAndExpire(ctx)
			cancel()
			if err != nil {
				logger.Error(fmt.Sprintf("Error en el escaneo de baneos: %v", err), "TempBan")
			} else if n > 0 {
				logger.Info(fmt.Sprintf("Escaneo de baneos: %d expirados", n), "TempBan")
			}
		}
	}()
	logger.System(fmt.Sprintf("Programador de baneos iniciado (cada %s)", s.interval), "TempBan")
}

// Stop halts the periodic scan
func (s *TempBanScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// TriggerScan queues an immediate scan without waiting for the ticker
func (s *TempBanScheduler) TriggerScan() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func banNotice(ban *models.ScheduledBan) string {
	if ban.IsPermanent() {
		return fmt.Sprintf("⛔ Has sido baneado permanentemente.\n**Razón:** %s", ban.Reason)
	}
	return fmt.Sprintf("⛔ Has sido baneado hasta <t:%d:F>.\n**Razón:** %s", ban.End.Unix(), ban.Reason)
}
