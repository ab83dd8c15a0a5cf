// Package events provides event handlers for message events
package events

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// RegisterMessageEvents registers all message-related event handlers
func RegisterMessageEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnMessageCreate(onMessageCreate)
}

// onMessageCreate feeds every guild message through the spam monitor
func onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil {
		return
	}
	// The bot's own notices must never feed the monitor
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	errors.Boundary("Event:MessageCreate", func() error {
		client := discord.Get()
		if client == nil || client.Moderation == nil {
			return nil
		}

		msg := toModerationMessage(m)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return client.Moderation.ObserveMessage(ctx, msg)
	})
}

// toModerationMessage translates the gateway payload into the monitor's view
func toModerationMessage(m *discordgo.MessageCreate) moderation.Message {
	msg := moderation.Message{
		ID:            m.ID,
		GuildID:       m.GuildID,
		ChannelID:     m.ChannelID,
		AuthorID:      m.Author.ID,
		AuthorIsBot:   m.Author.Bot,
		IsWebhook:     m.WebhookID != "",
		Content:       m.Content,
		HasAttachment: len(m.Attachments) > 0,
		Timestamp:     m.Timestamp,
	}
	if m.Member != nil {
		msg.AuthorRoles = m.Member.Roles
	}
	return msg
}
