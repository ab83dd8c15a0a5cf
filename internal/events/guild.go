// Package events provides event handlers for guild events
package events

import (
	"fmt"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/errors"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// RegisterGuildEvents registers all guild-related event handlers
func RegisterGuildEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildCreate(onGuildCreate)
}

// onGuildCreate fires both on startup (one per known guild) and on real
// joins. Either way bans may have expired while the guild was unavailable, so
// an expiry scan is queued.
func onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	logger.Debug(fmt.Sprintf("Servidor disponible: %s (ID: %s)", g.Name, g.ID), "Guild")

	errors.Boundary("Event:GuildCreate", func() error {
		client := discord.Get()
		if client == nil || client.Moderation == nil {
			return nil
		}
		client.Moderation.TriggerExpiryScan()
		return nil
	})
}
