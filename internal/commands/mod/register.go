// Package mod provides moderation commands organized as subcommands under /mod
// Each command is in its own file for better organization
package mod

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
)

// commandTimeout bounds the work behind one interaction
const commandTimeout = 30 * time.Second

// internalErrorReply hides downstream failure details from the moderator;
// the full error goes to the logs instead
const internalErrorReply = "❌ Error interno. Consulta los registros del bot."

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// RegisterModCommands registers all moderation commands as /mod subcommands
func RegisterModCommands(client *discord.ExtendedClient) {
	warnCmd := createWarnCommand()
	warningsCmd := createWarningsCommand()
	removeWarnCmd := createRemoveWarnCommand()
	muteCmd := createMuteCommand()
	unmuteCmd := createUnmuteCommand()
	banCmd := createBanCommand()
	unbanCmd := createUnbanCommand()

	modGroup := client.CommandHandler.BuildCommandGroup(
		"mod",
		"Comandos de moderación",
		warnCmd,
		warningsCmd,
		removeWarnCmd,
		muteCmd,
		unmuteCmd,
		banCmd,
		unbanCmd,
	)

	client.CommandHandler.AddGlobalCommand(modGroup)
}
