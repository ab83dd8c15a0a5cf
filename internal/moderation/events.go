package moderation

import "time"

// EventKind identifies a moderation event published to the mod-log feeds
type EventKind string

const (
	EventWarn       EventKind = "warn"
	EventMute       EventKind = "mute"
	EventUnmute     EventKind = "unmute"
	EventSpamFlag   EventKind = "spam_flag"
	EventTempBan    EventKind = "temp_ban"
	EventBanLifted  EventKind = "ban_lifted"
	EventBanExpired EventKind = "ban_expired"
)

// Event is the record broadcast to the websocket feed and the MQTT mirror
// whenever an enforcement action happens.
type Event struct {
	Kind      EventKind `json:"kind"`
	GuildID   string    `json:"guildId"`
	UserID    string    `json:"userId"`
	Moderator string    `json:"moderator,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Level     string    `json:"level,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier receives published events. Implementations must not block.
type Notifier func(Event)
