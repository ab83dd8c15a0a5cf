// Package events provides the gateway event handlers of the bot.
// Handlers delegate every decision to the moderation service; their only job
// is translating discordgo payloads and isolating failures.
package events

import (
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	RegisterReadyEvent(client)
	RegisterGuildEvents(client)
	RegisterMemberEvents(client)
	RegisterMessageEvents(client)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}
