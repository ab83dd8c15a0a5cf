// Package mod - /mod removewarn command
package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createRemoveWarnCommand creates the /mod removewarn subcommand
func createRemoveWarnCommand() *discord.Command {
	return discord.NewCommand(
		"removewarn",
		"Elimina una advertencia por su ID",
		"mod",
		removeWarnHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario afectado",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "id",
			Description: "ID de la advertencia (ver /mod warnings)",
			Required:    true,
		},
	).RequireModerator()
}

// removeWarnHandler handles the /mod removewarn command
func removeWarnHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}

	warningID := ctx.GetStringOption("id")
	if warningID == "" {
		return ctx.ReplyEphemeral("❌ Debes especificar el ID de la advertencia.")
	}

	found, err := ctx.Client.Moderation.RemoveWarning(ctx.Interaction.GuildID, user.ID, warningID, ctx.User().ID)
	if err != nil {
		_ = ctx.ReplyEphemeral(internalErrorReply)
		return err
	}
	if !found {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ **%s** no tiene ninguna advertencia con ese ID.", user.Username))
	}

	return ctx.Reply(fmt.Sprintf("🗑️ Advertencia `%s` de **%s** eliminada.", warningID, user.Username))
}
