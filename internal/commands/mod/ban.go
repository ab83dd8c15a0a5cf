// Package mod - /mod ban and /mod unban commands
package mod

import (
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// Anything this long is stored as a permanent ban
const permanentDuration = 100 * 365 * 24 * time.Hour

// createBanCommand creates the /mod ban subcommand
func createBanCommand() *discord.Command {
	return discord.NewCommand(
		"ban",
		"Banea a un usuario temporal o permanentemente",
		"mod",
		banHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a banear",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duracion",
			Description: "Duración (30m, 2h, 3d, 1w) o 'perm'",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Razón del baneo",
			Required:    true,
		},
	).RequireModerator()
}

// banHandler handles the /mod ban command
func banHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}
	reason := ctx.GetStringOption("razon")
	if reason == "" {
		return ctx.ReplyEphemeral("❌ Debes especificar una razón.")
	}

	durText := ctx.GetStringOption("duracion")
	duration := permanentDuration
	if durText != "perm" && durText != "permanente" {
		var err error
		duration, err = moderation.ParseDuration(durText)
		if err != nil {
			return ctx.ReplyEphemeral("❌ Duración inválida. Usa formatos como `30m`, `2h`, `3d`, `1w` o `perm`.")
		}
	}

	cctx, cancel := commandContext()
	defer cancel()

	ban, err := ctx.Client.Moderation.ScheduleTempBan(
		cctx,
		ctx.Interaction.GuildID,
		user.ID,
		user.Username,
		reason,
		ctx.User().ID,
		duration,
	)
	if err != nil {
		if errors.Is(err, moderation.ErrBanTooLong) {
			return ctx.ReplyEphemeral("❌ " + err.Error() + ".")
		}
		_ = ctx.ReplyEphemeral(internalErrorReply)
		return err
	}

	if ban.IsPermanent() {
		return ctx.Reply(fmt.Sprintf("⛔ **%s** ha sido baneado permanentemente.\n**Razón:** %s", user.Username, reason))
	}
	return ctx.Reply(fmt.Sprintf("⛔ **%s** ha sido baneado hasta <t:%d:F>.\n**Razón:** %s", user.Username, ban.End.Unix(), reason))
}

// createUnbanCommand creates the /mod unban subcommand
func createUnbanCommand() *discord.Command {
	return discord.NewCommand(
		"unban",
		"Desbanea a un usuario y retira su baneo programado si existe",
		"mod",
		unbanHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a desbanear",
			Required:    true,
		},
	).RequireModerator()
}

// unbanHandler handles the /mod unban command
func unbanHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}

	cctx, cancel := commandContext()
	defer cancel()

	// The unban itself always runs, even for bans the scheduler never
	// recorded; lifted only says whether a scheduled entry was retired
	lifted, err := ctx.Client.Moderation.CancelTempBan(cctx, ctx.Interaction.GuildID, user.ID, ctx.User().ID)
	if err != nil {
		_ = ctx.ReplyEphemeral(internalErrorReply)
		return err
	}
	if !lifted {
		return ctx.Reply(fmt.Sprintf("✅ **%s** ha sido desbaneado (no tenía baneo programado).", user.Username))
	}

	return ctx.Reply(fmt.Sprintf("✅ Baneo de **%s** levantado.", user.Username))
}
