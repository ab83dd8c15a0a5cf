// Package mod - /mod warn command
package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// createWarnCommand creates the /mod warn subcommand
func createWarnCommand() *discord.Command {
	return discord.NewCommand(
		"warn",
		"Registra una advertencia",
		"mod",
		warnHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a advertir",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "nivel",
			Description: "Severidad de la advertencia",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Nota interna", Value: "NOTE"},
				{Name: "Menor", Value: "MINOR"},
				{Name: "Normal", Value: "NORMAL"},
				{Name: "Grave", Value: "SERIOUS"},
				{Name: "Silencio inmediato", Value: "INSTANT_MUTE"},
			},
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Razón de la advertencia",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "enlace",
			Description: "Enlace al mensaje que motivó la advertencia",
			Required:    false,
		},
	).RequireModerator()
}

// warnHandler handles the /mod warn command
func warnHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}

	reason := ctx.GetStringOption("razon")
	if reason == "" {
		return ctx.ReplyEphemeral("❌ Debes especificar una razón.")
	}

	level, err := models.ParseWarnLevel(ctx.GetStringOption("nivel"))
	if err != nil {
		return ctx.ReplyEphemeral("❌ Nivel de advertencia desconocido.")
	}

	cctx, cancel := commandContext()
	defer cancel()

	receipt, err := ctx.Client.Moderation.RecordWarning(
		cctx,
		ctx.Interaction.GuildID,
		user.ID,
		ctx.User().ID,
		reason,
		ctx.GetStringOption("enlace"),
		level,
	)
	if err != nil {
		_ = ctx.ReplyEphemeral(internalErrorReply)
		return err
	}

	msg := fmt.Sprintf("%s **%s** ha sido advertido (`%s`).\n**Razón:** %s\n**ID:** `%s`",
		level.Emoji(), user.Username, level, reason, receipt.Warning.ID)
	if receipt.Muted {
		if receipt.Decision.Instant {
			msg += "\n🔇 Silenciado inmediatamente."
		} else {
			msg += fmt.Sprintf("\n🔇 Silenciado por acumulación (%.2f puntos).", receipt.Decision.Score)
		}
	} else if receipt.Decision.Score > 0 {
		msg += fmt.Sprintf("\n📈 Puntuación actual: %.2f", receipt.Decision.Score)
	}

	return ctx.Reply(msg)
}
