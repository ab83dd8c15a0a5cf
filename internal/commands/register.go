// Package commands provides a registry for organizing bot commands.
// Commands are organized in subdirectories by category (util, mod, etc.)
package commands

import (
	"github.com/PancyStudios/PancyGuardGo/internal/commands/mod"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
)

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient) {
	// Utility commands
	RegisterUtilCommands(client)

	// Moderation commands (/mod warn, /mod mute, /mod ban, ...)
	mod.RegisterModCommands(client)
}
