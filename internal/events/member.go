// Package events provides event handlers for member events
package events

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// RegisterMemberEvents registers all member-related event handlers
func RegisterMemberEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildMemberAdd(onGuildMemberAdd)
	client.EventHandler.OnGuildMemberUpdate(onGuildMemberUpdate)
}

// onGuildMemberAdd records the join and re-applies a pending mute. A muted
// user leaving and rejoining must come back muted.
func onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil {
		return
	}

	errors.Boundary("Event:GuildMemberAdd", func() error {
		client := discord.Get()
		if client == nil || client.Moderation == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		client.Moderation.HandleMemberJoin(ctx, m.GuildID, m.User.ID, m.User.Username)
		return nil
	})
}

// onGuildMemberUpdate keeps the seen-usernames list current
func onGuildMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.User == nil {
		return
	}

	errors.Boundary("Event:GuildMemberUpdate", func() error {
		client := discord.Get()
		if client == nil || client.Moderation == nil {
			return nil
		}
		client.Moderation.NoteUsername(m.GuildID, m.User.ID, m.User.Username)
		return nil
	})
}
