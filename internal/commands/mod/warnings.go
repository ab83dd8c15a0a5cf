// Package mod - /mod warnings command
package mod

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// createWarningsCommand creates the /mod warnings subcommand
func createWarningsCommand() *discord.Command {
	return discord.NewCommand(
		"warnings",
		"Muestra el historial de advertencias de un usuario",
		"mod",
		warningsHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a consultar",
			Required:    true,
		},
	).RequireModerator()
}

// warningsHandler handles the /mod warnings command
func warningsHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}

	entry, err := ctx.Client.Moderation.Warnings(ctx.Interaction.GuildID, user.ID)
	if err != nil {
		_ = ctx.ReplyEphemeral(internalErrorReply)
		return err
	}

	warnings := entry.ActiveWarnings()
	if len(warnings) == 0 {
		return ctx.ReplyEphemeral(fmt.Sprintf("✅ **%s** no tiene advertencias.", user.Username))
	}

	const maxShown = 10

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📋 Advertencias de %s", user.Username),
		Color: 0xe67e22,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d advertencias en total", len(warnings)),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if entry.IsMuted {
		embed.Description = "🔇 Actualmente silenciado"
	}

	for i, w := range warnings {
		if i == maxShown {
			break
		}
		name := fmt.Sprintf("%s %s", w.Level.Emoji(), w.Level)
		value := fmt.Sprintf("%s\n<t:%d:R> · `%s`", w.Reason, w.TimeGiven.Unix(), w.ID)
		if w.Link != "" {
			value += "\n" + w.Link
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  name,
			Value: value,
		})
	}

	return ctx.ReplyEphemeralEmbed(embed)
}
