// Package mod - /mod mute and /mod unmute commands
package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createMuteCommand creates the /mod mute subcommand
func createMuteCommand() *discord.Command {
	return discord.NewCommand(
		"mute",
		"Silencia a un usuario manualmente",
		"mod",
		muteHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a silenciar",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Razón del silencio",
			Required:    true,
		},
	).RequireModerator()
}

// muteHandler handles the /mod mute command
func muteHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}
	reason := ctx.GetStringOption("razon")
	if reason == "" {
		return ctx.ReplyEphemeral("❌ Debes especificar una razón.")
	}

	cctx, cancel := commandContext()
	defer cancel()

	applied, err := ctx.Client.Moderation.Mute(cctx, ctx.Interaction.GuildID, user.ID, ctx.User().ID, reason)
	if err != nil {
		_ = ctx.ReplyEphemeral(internalErrorReply)
		return err
	}
	if !applied {
		return ctx.ReplyEphemeral(fmt.Sprintf("ℹ️ **%s** ya estaba silenciado o el servidor no tiene rol de silencio configurado.", user.Username))
	}

	return ctx.Reply(fmt.Sprintf("🔇 **%s** ha sido silenciado.\n**Razón:** %s", user.Username, reason))
}

// createUnmuteCommand creates the /mod unmute subcommand
func createUnmuteCommand() *discord.Command {
	return discord.NewCommand(
		"unmute",
		"Quita el silencio a un usuario",
		"mod",
		unmuteHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a des-silenciar",
			Required:    true,
		},
	).RequireModerator()
}

// unmuteHandler handles the /mod unmute command
func unmuteHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}

	cctx, cancel := commandContext()
	defer cancel()

	if err := ctx.Client.Moderation.Unmute(cctx, ctx.Interaction.GuildID, user.ID, ctx.User().ID); err != nil {
		_ = ctx.ReplyEphemeral(internalErrorReply)
		return err
	}

	return ctx.Reply(fmt.Sprintf("🔊 **%s** ya no está silenciado.", user.Username))
}
