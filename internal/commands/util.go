// Package commands provides utility commands for the bot.
package commands

import (
	"fmt"

	"github.com/PancyStudios/PancyGuardGo/pkg/database"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
)

// RegisterUtilCommands registers all utility commands
func RegisterUtilCommands(client *discord.ExtendedClient) {
	pingCmd := discord.NewCommand(
		"ping",
		"Comprueba la latencia del bot",
		"util",
		func(ctx *discord.CommandContext) error {
			latency := ctx.Client.Session.HeartbeatLatency().Milliseconds()
			return ctx.Reply(fmt.Sprintf("🏓 Pong! Latencia: %dms", latency))
		},
	)
	client.CommandHandler.RegisterCommand(pingCmd)

	statusCmd := discord.NewCommand(
		"status",
		"Muestra el estado del bot",
		"util",
		func(ctx *discord.CommandContext) error {
			db := database.Get()
			dbStatus, _ := db.GetStatus()
			stats := ctx.Client.Moderation.Stats().Snapshot()

			return ctx.Reply(fmt.Sprintf(
				"📊 **Estado de PancyGuard**\n"+
					"• Bot: 🟢 Online\n"+
					"• Base de datos: %s\n"+
					"• Servidores: %d\n"+
					"• Advertencias registradas: %d\n"+
					"• Silencios aplicados: %d",
				dbStatus,
				ctx.Client.GuildCount(),
				stats["warningsRecorded"],
				stats["mutesApplied"],
			))
		},
	)
	client.CommandHandler.RegisterCommand(statusCmd)

	helpCmd := discord.NewCommand(
		"help",
		"Muestra información de ayuda",
		"util",
		func(ctx *discord.CommandContext) error {
			return ctx.Reply(
				"📖 **Ayuda de PancyGuard Go**\n\n" +
					"**Comandos disponibles:**\n" +
					"• `/ping` - Comprueba la latencia\n" +
					"• `/status` - Estado del bot\n" +
					"• `/mod warn <usuario> <nivel> <razon>` - Registra una advertencia\n" +
					"• `/mod warnings <usuario>` - Historial de advertencias\n" +
					"• `/mod removewarn <usuario> <id>` - Elimina una advertencia\n" +
					"• `/mod mute <usuario> <razon>` - Silencia a un usuario\n" +
					"• `/mod unmute <usuario>` - Quita el silencio\n" +
					"• `/mod ban <usuario> <duracion> <razon>` - Baneo temporal o permanente\n" +
					"• `/mod unban <usuario>` - Levanta un baneo programado",
			)
		},
	)
	client.CommandHandler.RegisterCommand(helpCmd)
}
