package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
	"github.com/google/uuid"
)

// ErrBanTooLong rejects durations above the guild's configured cap. Command
// handlers surface it to the moderator; other failures stay generic.
var ErrBanTooLong = errors.New("la duración supera el máximo del servidor")

// ServiceOptions wires the moderation core together
type ServiceOptions struct {
	Platform     Platform
	Ledger       Ledger
	Config       ConfigProvider
	BanStore     BanStore
	Stats        *Stats
	Notify       Notifier
	ScanInterval time.Duration
	SpamTimeout  time.Duration
}

// Service is the single entry point for every moderation decision: warnings
// with escalation, spam observations, mutes and scheduled bans. Commands,
// event handlers and the web API all go through it.
type Service struct {
	platform Platform
	ledger   Ledger
	cfgs     ConfigProvider
	enforcer *Enforcer
	spam     *SpamMonitor
	bans     *TempBanScheduler
	stats    *Stats
	notify   Notifier

	spamTimeout time.Duration
	now         func() time.Time

	// scoreMu serializes read-decide-append so two near-simultaneous
	// warnings for the same user cannot both score below the threshold
	scoreMu sync.Mutex
}

// WarningReceipt reports what recording a warning did
type WarningReceipt struct {
	Warning  models.Warning
	Decision Decision
	Muted    bool
}

// NewService assembles the moderation core
func NewService(opts ServiceOptions) *Service {
	stats := opts.Stats
	if stats == nil {
		stats = &Stats{}
	}

	return &Service{
		platform:    opts.Platform,
		ledger:      opts.Ledger,
		cfgs:        opts.Config,
		enforcer:    NewEnforcer(opts.Platform, opts.Ledger, stats, opts.Notify),
		spam:        NewSpamMonitor(),
		bans:        NewTempBanScheduler(opts.BanStore, opts.Platform, opts.Config, stats, opts.Notify, opts.ScanInterval),
		stats:       stats,
		notify:      opts.Notify,
		spamTimeout: opts.SpamTimeout,
		now:         time.Now,
	}
}

// Stats exposes the live counters
func (s *Service) Stats() *Stats {
	return s.stats
}

// GuildConfig returns the settings for a guild
func (s *Service) GuildConfig(guildID string) (*models.GuildSettings, error) {
	return s.cfgs.GuildSettings(guildID)
}

func (s *Service) publish(evt Event) {
	if s.notify != nil {
		evt.At = time.Now().UTC()
		s.notify(evt)
	}
}

// Start launches the background ban expiry scan
func (s *Service) Start() {
	s.bans.Start()
}

// Stop halts background work
func (s *Service) Stop() {
	s.bans.Stop()
}

// RecordWarning appends a warning to the user's ledger and applies the
// escalation decision it produces. The new warning never weighs into its own
// decision; only the history present before it counts.
func (s *Service) RecordWarning(ctx context.Context, guildID, userID, moderatorID, reason, link string, level models.WarnLevel) (*WarningReceipt, error) {
	if guildID == "" || userID == "" {
		return nil, fmt.Errorf("guild y usuario son obligatorios")
	}
	if reason == "" {
		return nil, fmt.Errorf("la razón es obligatoria")
	}
	if !level.Valid() {
		return nil, fmt.Errorf("nivel de advertencia inválido: %d", level)
	}

	cfg, err := s.cfgs.GuildSettings(guildID)
	if err != nil {
		return nil, fmt.Errorf("loading guild settings: %w", err)
	}

	s.scoreMu.Lock()
	entry, err := s.ledger.GetOrCreate(guildID, userID)
	if err != nil {
		s.scoreMu.Unlock()
		return nil, err
	}

	now := s.now().UTC()
	decision := Decide(entry.Warnings, level, now)

	w := models.Warning{
		ID:        uuid.NewString(),
		GivenTo:   userID,
		GivenBy:   moderatorID,
		TimeGiven: now,
		Level:     level,
		Reason:    reason,
		Link:      link,
	}
	if _, err := s.ledger.AppendWarning(guildID, userID, w); err != nil {
		s.scoreMu.Unlock()
		return nil, fmt.Errorf("persisting warning: %w", err)
	}
	s.scoreMu.Unlock()

	s.stats.WarningsRecorded.Add(1)
	s.publish(Event{Kind: EventWarn, GuildID: guildID, UserID: userID, Moderator: moderatorID, Reason: reason, Level: level.String()})

	receipt := &WarningReceipt{Warning: w, Decision: decision}
	if decision.Mute {
		muted, err := s.enforcer.Mute(ctx, cfg, userID, moderatorID, reason, decision)
		if err != nil {
			return receipt, fmt.Errorf("applying mute: %w", err)
		}
		receipt.Muted = muted
	}
	return receipt, nil
}

// RemoveWarning retires one warning by ID. The entry stays in the ledger as a
// tombstone so the history remains complete; it just stops counting. Returns
// false when the user has no active warning with that ID.
func (s *Service) RemoveWarning(guildID, userID, warningID, moderatorID string) (bool, error) {
	found := false
	_, err := s.ledger.Update(guildID, userID, func(entry *models.WarnableUser) error {
		for i, w := range entry.Warnings {
			if w.ID == warningID && !w.Removed {
				removedAt := s.now().UTC()
				entry.Warnings[i].Removed = true
				entry.Warnings[i].RemovedBy = moderatorID
				entry.Warnings[i].RemovedAt = &removedAt
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Warnings returns the user's ledger entry
func (s *Service) Warnings(guildID, userID string) (*models.WarnableUser, error) {
	return s.ledger.GetOrCreate(guildID, userID)
}

// ObserveMessage feeds one message through the spam monitor and executes the
// verdict: delete the flagged messages, time the author out, record a
// synthetic warning and mute.
func (s *Service) ObserveMessage(ctx context.Context, msg Message) error {
	cfg, err := s.cfgs.GuildSettings(msg.GuildID)
	if err != nil {
		return fmt.Errorf("loading guild settings: %w", err)
	}

	verdict := s.spam.Observe(cfg, msg)
	if verdict.Action == SpamIgnore {
		return nil
	}

	switch verdict.Action {
	case SpamFlagKnown:
		s.stats.SpamKnownFlags.Add(1)
	case SpamFlagRepeat:
		s.stats.SpamRepeatFlags.Add(1)
	}

	for _, id := range verdict.DeleteIDs {
		if err := s.platform.DeleteMessage(ctx, msg.ChannelID, id); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo borrar el mensaje %s: %v", id, err), "Moderation")
		}
	}

	if s.spamTimeout > 0 {
		until := s.now().Add(s.spamTimeout)
		if err := s.platform.Timeout(ctx, msg.GuildID, msg.AuthorID, until); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo aplicar timeout a %s: %v", msg.AuthorID, err), "Moderation")
		}
	}

	w := models.Warning{
		ID:        uuid.NewString(),
		GivenTo:   msg.AuthorID,
		TimeGiven: s.now().UTC(),
		Level:     models.LevelAuto,
		Reason:    verdict.Reason,
	}
	if _, err := s.ledger.AppendWarning(msg.GuildID, msg.AuthorID, w); err != nil {
		logger.Error(fmt.Sprintf("Error registrando advertencia automática para %s: %v", msg.AuthorID, err), "Moderation")
	}

	s.publish(Event{Kind: EventSpamFlag, GuildID: msg.GuildID, UserID: msg.AuthorID, Reason: verdict.Reason, Level: models.LevelAuto.String()})

	// Spam flags mute directly; they never go through the scorer
	if _, err := s.enforcer.Mute(ctx, cfg, msg.AuthorID, "", verdict.Reason, Decision{Mute: true, Instant: true}); err != nil {
		return fmt.Errorf("applying spam mute: %w", err)
	}
	return nil
}

// ScheduleTempBan validates the duration against the guild cap and hands the
// ban to the scheduler.
func (s *Service) ScheduleTempBan(ctx context.Context, guildID, userID, displayName, reason, moderatorID string, d time.Duration) (*models.ScheduledBan, error) {
	if reason == "" {
		return nil, fmt.Errorf("la razón es obligatoria")
	}
	if d <= 0 {
		return nil, fmt.Errorf("la duración debe ser positiva")
	}

	cfg, err := s.cfgs.GuildSettings(guildID)
	if err != nil {
		return nil, fmt.Errorf("loading guild settings: %w", err)
	}
	if cfg.MaxBanDuration != "" {
		max, err := ParseDuration(cfg.MaxBanDuration)
		if err != nil {
			logger.Warn(fmt.Sprintf("maxBanDuration inválida en %s: %v", guildID, err), "Moderation")
		} else if d > max && d <= permanentCutoff {
			return nil, fmt.Errorf("%w (%s)", ErrBanTooLong, cfg.MaxBanDuration)
		}
	}

	ban, err := s.bans.Schedule(ctx, guildID, userID, displayName, reason, moderatorID, d)
	if err != nil {
		return ban, err
	}

	// The ban lands in the ledger as well so the history survives the entry
	w := models.Warning{
		ID:        uuid.NewString(),
		GivenTo:   userID,
		GivenBy:   moderatorID,
		TimeGiven: s.now().UTC(),
		Level:     models.LevelBan,
		Reason:    reason,
	}
	if _, err := s.ledger.AppendWarning(guildID, userID, w); err != nil {
		logger.Error(fmt.Sprintf("Error registrando el baneo en el historial de %s: %v", userID, err), "Moderation")
	}
	return ban, nil
}

// CancelTempBan unbans a user and retires their scheduled entry if one
// exists. The platform unban always runs, so bans placed outside the
// scheduler can be lifted too; the returned flag only reports whether a
// scheduled entry was retired.
func (s *Service) CancelTempBan(ctx context.Context, guildID, userID, moderatorID string) (bool, error) {
	if err := s.platform.Unban(ctx, guildID, userID); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo desbanear a %s en %s (puede que no estuviera baneado): %v", userID, guildID, err), "Moderation")
	}
	return s.bans.Cancel(guildID, userID, moderatorID)
}

// RunExpiryScan runs one ban expiry pass immediately
func (s *Service) RunExpiryScan(ctx context.Context) (int, error) {
	return s.bans.ScanAndExpire(ctx)
}

// TriggerExpiryScan queues a background expiry pass
func (s *Service) TriggerExpiryScan() {
	s.bans.TriggerScan()
}

// Mute applies a manual mute, bypassing the scorer
func (s *Service) Mute(ctx context.Context, guildID, userID, moderatorID, reason string) (bool, error) {
	cfg, err := s.cfgs.GuildSettings(guildID)
	if err != nil {
		return false, fmt.Errorf("loading guild settings: %w", err)
	}
	return s.enforcer.Mute(ctx, cfg, userID, moderatorID, reason, Decision{Mute: true, Instant: true})
}

// Unmute lifts a mute
func (s *Service) Unmute(ctx context.Context, guildID, userID, moderatorID string) error {
	cfg, err := s.cfgs.GuildSettings(guildID)
	if err != nil {
		return fmt.Errorf("loading guild settings: %w", err)
	}
	return s.enforcer.Unmute(ctx, cfg, userID, moderatorID)
}

// NoteUsername records a username observation in the ledger
func (s *Service) NoteUsername(guildID, userID, username string) {
	if _, err := s.ledger.SeenUsername(guildID, userID, username); err != nil {
		logger.Warn(fmt.Sprintf("Error registrando nombre de %s: %v", userID, err), "Moderation")
	}
}

// HandleMemberJoin re-applies a pending mute when a flagged user rejoins
func (s *Service) HandleMemberJoin(ctx context.Context, guildID, userID, username string) {
	s.NoteUsername(guildID, userID, username)

	cfg, err := s.cfgs.GuildSettings(guildID)
	if err != nil {
		logger.Warn(fmt.Sprintf("Error cargando configuración de %s: %v", guildID, err), "Moderation")
		return
	}
	s.enforcer.ReapplyMute(ctx, cfg, userID)
}
