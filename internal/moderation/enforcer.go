package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
)

// Enforcer executes mute decisions exactly once per decision. The ledger
// mute flag is the idempotence guard: a user already flagged is a no-op no
// matter how many concurrent paths decide to mute them.
type Enforcer struct {
	platform Platform
	ledger   Ledger
	stats    *Stats
	notify   Notifier
}

// NewEnforcer creates a mute enforcer
func NewEnforcer(platform Platform, ledger Ledger, stats *Stats, notify Notifier) *Enforcer {
	return &Enforcer{
		platform: platform,
		ledger:   ledger,
		stats:    stats,
		notify:   notify,
	}
}

func (e *Enforcer) publish(evt Event) {
	if e.notify != nil {
		evt.At = time.Now().UTC()
		e.notify(evt)
	}
}

// Mute applies a decided mute: role grant, ledger flag, notices and the
// incident thread. Platform failures are surfaced in the logs but never roll
// back the ledger flag; the decision stands for later retry or manual fixup.
func (e *Enforcer) Mute(ctx context.Context, cfg *models.GuildSettings, userID, moderatorID, reason string, d Decision) (bool, error) {
	entry, err := e.ledger.GetOrCreate(cfg.GuildID, userID)
	if err != nil {
		return false, err
	}

	// Idempotence guard: already muted, or the guild has no mute mechanism
	if entry.IsMuted {
		logger.Debug(fmt.Sprintf("Usuario %s ya está silenciado en %s, no se repite la acción", userID, cfg.GuildID), "Enforcer")
		return false, nil
	}
	if cfg.MuteRoleID == "" {
		logger.Debug(fmt.Sprintf("Servidor %s no tiene rol de silencio configurado", cfg.GuildID), "Enforcer")
		return false, nil
	}

	if err := e.platform.GrantRole(ctx, cfg.GuildID, userID, cfg.MuteRoleID); err != nil {
		// Fail open: the ledger decision stands so a retry can finish the job
		logger.Error(fmt.Sprintf("No se pudo aplicar el rol de silencio a %s en %s: %v", userID, cfg.GuildID, err), "Enforcer")
	}

	if _, err := e.ledger.SetMuted(cfg.GuildID, userID, true); err != nil {
		return false, fmt.Errorf("persisting mute flag: %w", err)
	}

	notice := muteNotice(userID, reason, d)
	for _, channelID := range cfg.ModLogChannelIDs {
		if err := e.platform.SendMessage(ctx, channelID, notice); err != nil {
			logger.Error(fmt.Sprintf("Error enviando aviso de silencio al canal %s: %v", channelID, err), "Enforcer")
		}
	}

	e.handleIncident(ctx, cfg, entry, userID, notice)

	e.stats.MutesApplied.Add(1)
	e.publish(Event{Kind: EventMute, GuildID: cfg.GuildID, UserID: userID, Moderator: moderatorID, Reason: reason})
	return true, nil
}

// handleIncident posts the mute notice to the incident surface. With exactly
// one incident channel configured the per-user thread machinery kicks in;
// with several the first acts as a general incident channel.
func (e *Enforcer) handleIncident(ctx context.Context, cfg *models.GuildSettings, entry *models.WarnableUser, userID, notice string) {
	if len(cfg.IncidentChannelIDs) == 0 {
		return
	}

	if len(cfg.IncidentChannelIDs) != 1 {
		if err := e.platform.SendMessage(ctx, cfg.IncidentChannelIDs[0], notice); err != nil {
			logger.Error(fmt.Sprintf("Error publicando incidente en canal general: %v", err), "Enforcer")
		}
		return
	}

	threadID, err := e.ensureIncidentThread(ctx, cfg, entry, userID)
	if err != nil {
		logger.Error(fmt.Sprintf("Error preparando hilo de incidente para %s: %v", userID, err), "Enforcer")
		// Fall back to posting in the incident channel itself
		if err := e.platform.SendMessage(ctx, cfg.IncidentChannelIDs[0], notice); err != nil {
			logger.Error(fmt.Sprintf("Error publicando incidente: %v", err), "Enforcer")
		}
		return
	}

	if err := e.platform.SendMessage(ctx, threadID, notice); err != nil {
		logger.Error(fmt.Sprintf("Error publicando en hilo de incidente %s: %v", threadID, err), "Enforcer")
	}

	if cfg.WarnListToThread && len(entry.ActiveWarnings()) > 0 {
		if err := e.platform.SendMessage(ctx, threadID, warningList(entry)); err != nil {
			logger.Error(fmt.Sprintf("Error publicando historial en hilo %s: %v", threadID, err), "Enforcer")
		}
	}
}

// ensureIncidentThread reuses the stored per-user thread, reviving it when
// archived and recreating it when the reference no longer resolves.
func (e *Enforcer) ensureIncidentThread(ctx context.Context, cfg *models.GuildSettings, entry *models.WarnableUser, userID string) (string, error) {
	threadID := entry.IncidentThreadID

	if threadID != "" && e.platform.ThreadExists(ctx, threadID) {
		if err := e.platform.ReopenThread(ctx, threadID); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo reabrir el hilo %s: %v", threadID, err), "Enforcer")
		}
	} else {
		name := "incidente-" + userID
		if entry.LastKnownUsername != "" {
			name = "incidente-" + entry.LastKnownUsername
		}

		created, err := e.platform.CreateThread(ctx, cfg.IncidentChannelIDs[0], name, cfg.PrivateThreads)
		if err != nil {
			return "", err
		}
		threadID = created

		if _, err := e.ledger.SetIncidentThread(cfg.GuildID, userID, threadID); err != nil {
			logger.Error(fmt.Sprintf("Error guardando referencia de hilo para %s: %v", userID, err), "Enforcer")
		}
	}

	// Invite the user and the configured moderators; best effort
	if err := e.platform.AddThreadMember(ctx, threadID, userID); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo invitar a %s al hilo: %v", userID, err), "Enforcer")
	}
	for _, autoAdd := range cfg.ThreadAutoAddUserIDs {
		if err := e.platform.AddThreadMember(ctx, threadID, autoAdd); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo invitar a %s al hilo: %v", autoAdd, err), "Enforcer")
		}
	}

	return threadID, nil
}

// Unmute reverses a mute: role revoke, ledger flag and notice
func (e *Enforcer) Unmute(ctx context.Context, cfg *models.GuildSettings, userID, moderatorID string) error {
	entry, err := e.ledger.GetOrCreate(cfg.GuildID, userID)
	if err != nil {
		return err
	}
	if !entry.IsMuted {
		return nil
	}

	if cfg.MuteRoleID != "" {
		if err := e.platform.RevokeRole(ctx, cfg.GuildID, userID, cfg.MuteRoleID); err != nil {
			logger.Error(fmt.Sprintf("No se pudo quitar el rol de silencio a %s: %v", userID, err), "Enforcer")
		}
	}

	if _, err := e.ledger.SetMuted(cfg.GuildID, userID, false); err != nil {
		return fmt.Errorf("persisting unmute: %w", err)
	}

	for _, channelID := range cfg.ModLogChannelIDs {
		msg := fmt.Sprintf("🔊 <@%s> ya no está silenciado. (por <@%s>)", userID, moderatorID)
		if err := e.platform.SendMessage(ctx, channelID, msg); err != nil {
			logger.Error(fmt.Sprintf("Error enviando aviso al canal %s: %v", channelID, err), "Enforcer")
		}
	}

	e.publish(Event{Kind: EventUnmute, GuildID: cfg.GuildID, UserID: userID, Moderator: moderatorID})
	return nil
}

// ReapplyMute re-grants the mute role when a flagged user rejoins the guild
func (e *Enforcer) ReapplyMute(ctx context.Context, cfg *models.GuildSettings, userID string) {
	entry, err := e.ledger.GetOrCreate(cfg.GuildID, userID)
	if err != nil || !entry.IsMuted || cfg.MuteRoleID == "" {
		return
	}
	if err := e.platform.GrantRole(ctx, cfg.GuildID, userID, cfg.MuteRoleID); err != nil {
		logger.Error(fmt.Sprintf("No se pudo reaplicar el silencio a %s en %s: %v", userID, cfg.GuildID, err), "Enforcer")
	}
}

func muteNotice(userID, reason string, d Decision) string {
	if d.Instant {
		return fmt.Sprintf("🔇 <@%s> ha sido silenciado inmediatamente.\n**Razón:** %s", userID, reason)
	}
	return fmt.Sprintf("🔇 <@%s> ha sido silenciado por acumulación de advertencias (%.2f puntos, %d normales / %d graves recientes).\n**Razón:** %s",
		userID, d.Score, d.NormalCount, d.SeriousCount, reason)
}

func warningList(entry *models.WarnableUser) string {
	const maxShown = 5

	warnings := entry.ActiveWarnings()
	out := fmt.Sprintf("📋 Historial de <@%s> (%d advertencias):\n", entry.UserID, len(warnings))
	for i, w := range warnings {
		if i == maxShown {
			out += fmt.Sprintf("… y %d más\n", len(warnings)-maxShown)
			break
		}
		out += fmt.Sprintf("%s `%s` <t:%d:R> — %s\n", w.Level.Emoji(), w.Level, w.TimeGiven.Unix(), w.Reason)
	}
	return out
}
