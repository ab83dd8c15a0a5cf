// Package models defines the documents stored in MongoDB for the
// moderation ledger and the temp-ban scheduler.
package models

import "time"

// Warning representa un evento de moderación individual. Nunca se
// modifica después de crearse; una advertencia retirada se marca con
// Removed en vez de borrarse, para que el historial quede completo.
type Warning struct {
	ID        string     `bson:"id" json:"id"`
	GivenTo   string     `bson:"givenTo" json:"givenTo"`
	GivenBy   string     `bson:"givenBy" json:"givenBy"`
	TimeGiven time.Time  `bson:"timeGiven" json:"timeGiven"`
	Level     WarnLevel  `bson:"level" json:"level"`
	Reason    string     `bson:"reason" json:"reason"`
	Link      string     `bson:"link,omitempty" json:"link,omitempty"`
	Removed   bool       `bson:"removed,omitempty" json:"removed,omitempty"`
	RemovedBy string     `bson:"removedBy,omitempty" json:"removedBy,omitempty"`
	RemovedAt *time.Time `bson:"removedAt,omitempty" json:"removedAt,omitempty"`
}

// Age returns how old the warning is relative to now
func (w Warning) Age(now time.Time) time.Duration {
	return now.Sub(w.TimeGiven)
}

// WarnableUser representa el documento completo en la colección "warn_ledger",
// uno por par (guildId, userId). Warnings se guarda con la más reciente primero.
type WarnableUser struct {
	GuildID           string    `bson:"guildId" json:"guildId"`
	UserID            string    `bson:"userId" json:"userId"`
	Warnings          []Warning `bson:"warnings" json:"warnings"`
	IsMuted           bool      `bson:"isMuted" json:"isMuted"`
	SpecialRoles      []string  `bson:"specialRoles,omitempty" json:"specialRoles,omitempty"`
	SeenNames         []string  `bson:"seenNames,omitempty" json:"seenNames,omitempty"`
	LastKnownUsername string    `bson:"lastKnownUsername,omitempty" json:"lastKnownUsername,omitempty"`
	IncidentThreadID  string    `bson:"incidentThreadId,omitempty" json:"incidentThreadId,omitempty"`
}

// Clone returns a deep copy the caller owns; mutating it never touches
// the original or anything sharing its slices.
func (u *WarnableUser) Clone() *WarnableUser {
	if u == nil {
		return nil
	}
	c := *u
	c.Warnings = append([]Warning(nil), u.Warnings...)
	c.SpecialRoles = append([]string(nil), u.SpecialRoles...)
	c.SeenNames = append([]string(nil), u.SeenNames...)
	return &c
}

// ActiveWarnings returns the warnings that have not been removed
func (u *WarnableUser) ActiveWarnings() []Warning {
	out := make([]Warning, 0, len(u.Warnings))
	for _, w := range u.Warnings {
		if !w.Removed {
			out = append(out, w)
		}
	}
	return out
}

// HasSeenName reports whether the username was already recorded
func (u *WarnableUser) HasSeenName(name string) bool {
	for _, n := range u.SeenNames {
		if n == name {
			return true
		}
	}
	return false
}

// ScheduledBan es una entrada activa del planificador de baneos temporales.
// End == nil significa baneo permanente: queda solo como registro de auditoría
// y el escaneo de expiración nunca lo toca.
type ScheduledBan struct {
	EntryID     int64      `bson:"entryId" json:"entryId"`
	GuildID     string     `bson:"guildId" json:"guildId"`
	UserID      string     `bson:"userId" json:"userId"`
	DisplayName string     `bson:"displayName,omitempty" json:"displayName,omitempty"`
	Reason      string     `bson:"reason" json:"reason"`
	End         *time.Time `bson:"end,omitempty" json:"end,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	CreatedBy   string     `bson:"createdBy" json:"createdBy"`
}

// IsPermanent reports whether the ban has no scheduled end
func (b *ScheduledBan) IsPermanent() bool {
	return b.End == nil
}

// Expired reports whether the scheduled end has passed
func (b *ScheduledBan) Expired(now time.Time) bool {
	return b.End != nil && b.End.Before(now)
}

// Ban history outcomes
const (
	BanOutcomeExpired  = "expired"
	BanOutcomeLifted   = "lifted"
	BanOutcomeReplaced = "replaced"
)

// ScheduledBanHistory archiva una entrada retirada del planificador
type ScheduledBanHistory struct {
	ScheduledBan `bson:",inline"`
	Outcome      string    `bson:"outcome" json:"outcome"`
	RetiredAt    time.Time `bson:"retiredAt" json:"retiredAt"`
}

// GuildSettings es el documento de configuración por servidor que la
// capa de moderación consume en modo solo lectura.
type GuildSettings struct {
	GuildID              string   `bson:"guildId" json:"guildId"`
	MuteRoleID           string   `bson:"muteRoleId,omitempty" json:"muteRoleId,omitempty"`
	ModeratorRoleIDs     []string `bson:"moderatorRoleIds,omitempty" json:"moderatorRoleIds,omitempty"`
	IncidentChannelIDs   []string `bson:"incidentChannelIds,omitempty" json:"incidentChannelIds,omitempty"`
	ModLogChannelIDs     []string `bson:"modLogChannelIds,omitempty" json:"modLogChannelIds,omitempty"`
	NonSpambotRoleIDs    []string `bson:"nonSpambotRoleIds,omitempty" json:"nonSpambotRoleIds,omitempty"`
	MaxBanDuration       string   `bson:"maxBanDuration,omitempty" json:"maxBanDuration,omitempty"`
	WarnListToThread     bool     `bson:"warnListToThread" json:"warnListToThread"`
	PrivateThreads       bool     `bson:"privateThreads" json:"privateThreads"`
	ThreadAutoAddUserIDs []string `bson:"threadAutoAddUserIds,omitempty" json:"threadAutoAddUserIds,omitempty"`
}
