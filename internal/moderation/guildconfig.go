package moderation

import (
	"github.com/PancyStudios/PancyGuardGo/pkg/database"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
)

// ConfigProvider exposes read-only per-guild settings to the moderation core
type ConfigProvider interface {
	GuildSettings(guildID string) (*models.GuildSettings, error)
}

// Ledger is the slice of the warning ledger the core needs
type Ledger interface {
	GetOrCreate(guildID, userID string) (*models.WarnableUser, error)
	Update(guildID, userID string, fn func(entry *models.WarnableUser) error) (*models.WarnableUser, error)
	AppendWarning(guildID, userID string, w models.Warning) (*models.WarnableUser, error)
	SetMuted(guildID, userID string, muted bool) (*models.WarnableUser, error)
	SetIncidentThread(guildID, userID, threadID string) (*models.WarnableUser, error)
	SeenUsername(guildID, userID, username string) (*models.WarnableUser, error)
}

// MongoConfigProvider reads guild settings from the guild_settings collection.
// Missing documents yield empty settings: a guild with no configured mute
// mechanism simply never gets automatic mutes.
type MongoConfigProvider struct {
	dm *database.DataManager[models.GuildSettings]
}

// NewMongoConfigProvider creates a provider over the global settings manager
func NewMongoConfigProvider(dm *database.DataManager[models.GuildSettings]) *MongoConfigProvider {
	return &MongoConfigProvider{dm: dm}
}

// GuildSettings returns the settings document for a guild
func (p *MongoConfigProvider) GuildSettings(guildID string) (*models.GuildSettings, error) {
	settings, err := p.dm.Get(bson.M{"guildId": guildID})
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return &models.GuildSettings{GuildID: guildID}, nil
	}
	return settings, nil
}
