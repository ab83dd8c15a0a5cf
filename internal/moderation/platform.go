// Package moderation contains the decision core of the bot: the escalation
// scorer and mute enforcer, the spam monitor, and the temp-ban scheduler.
package moderation

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Platform abstracts the remote chat platform. Every call can fail for
// network or permission reasons; callers treat failures as logged-and-continue
// unless noted otherwise.
type Platform interface {
	GrantRole(ctx context.Context, guildID, userID, roleID string) error
	RevokeRole(ctx context.Context, guildID, userID, roleID string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
	Unban(ctx context.Context, guildID, userID string) error
	Timeout(ctx context.Context, guildID, userID string, until time.Time) error
	SendMessage(ctx context.Context, channelID, content string) error
	CreateThread(ctx context.Context, channelID, name string, private bool) (string, error)
	ReopenThread(ctx context.Context, threadID string) error
	ThreadExists(ctx context.Context, threadID string) bool
	AddThreadMember(ctx context.Context, threadID, userID string) error
	DMUser(ctx context.Context, userID, content string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// platformCallTimeout bounds every remote call so a slow platform cannot
// stall an event handler.
const platformCallTimeout = 10 * time.Second

// DiscordPlatform implements Platform over a discordgo session
type DiscordPlatform struct {
	session *discordgo.Session
}

// NewDiscordPlatform creates a Platform backed by the given session
func NewDiscordPlatform(session *discordgo.Session) *DiscordPlatform {
	return &DiscordPlatform{session: session}
}

func callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, platformCallTimeout)
}

// GrantRole adds a role to a guild member
func (p *DiscordPlatform) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	ctx, cancel := callCtx(ctx)
	defer cancel()
	return p.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

// RevokeRole removes a role from a guild member
func (p *DiscordPlatform) RevokeRole(ctx context.Context, guildID, userID, roleID string) error {
	ctx, cancel := callCtx(ctx)
	defer cancel()
	return p.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

// Ban bans a user from a guild without deleting message history
func (p *DiscordPlatform) Ban(ctx context.Context, guildID, userID, reason string) error {
	ctx, cancel := callCtx(ctx)
	defer cancel()
	return p.session.GuildBanCreateWithReason(guildID, userID, reason, 0, discordgo.WithContext(ctx))
}

// Unban lifts a guild ban
func (p *DiscordPlatform) Unban(ctx context.Context, guildID, userID string) error {
	ctx, cancel := callCtx(ctx)
	defer cancel()
	return p.session.GuildBanDelete(guildID, userID, discordgo.WithContext(ctx))
}

// Timeout applies a communication timeout until the given instant
func (p *DiscordPlatform) Timeout(ctx context.Context, guildID, userID string, until time.Time) error {
	ctx, cancel := callCtx(ctx)
	defer cancel()
	return p.session.GuildMemberTimeout(guildID, userID, &until, discordgo.WithContext(ctx))
}

// SendMessage posts a plain text message to a channel
func (p *DiscordPlatform) SendMessage(ctx context.Context, channelID, content string) error {
	ctx, cancel := callCtx(ctx)
	defer cancel()
	_, err := p.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

// CreateThread starts a thread in a channel and returns its ID
func (p *DiscordPlatform) CreateThread(ctx context.Context, channelID, name string, private bool) (string, error) {
	ctx, cancel := callCtx(ctx)
	defer cancel()

	threadType := discordgo.ChannelTypeGuildPublicThread
	if private {
		threadType = discordgo.ChannelTypeGuildPrivateThread
	}

	thread, err := p.session.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		Type:                threadType,
		AutoArchiveDuration: 10080, // a week
		Invitable:           true,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

// ReopenThread unarchives and unlocks a previously used thread
func (p *DiscordPlatform) ReopenThread(ctx context.Context, threadID string) error {
	ctx, cancel := callCtx(ctx)
	defer cancel()

	archived := false
	locked := false
	_, err := p.session.ChannelEditComplex(threadID, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &locked,
	}, discordgo.WithContext(ctx))
	return err
}

// ThreadExists reports whether the stored thread reference still resolves
func (p *DiscordPlatform) ThreadExists(ctx context.Context, threadID string) bool {
	ctx, cancel := callCtx(ctx)
	defer cancel()

	_, err := p.session.Channel(threadID, discordgo.WithContext(ctx))
	return err == nil
}

// AddThreadMember invites a user into a thread
func (p *DiscordPlatform) AddThreadMember(ctx context.Context, threadID, userID string) error {
	ctx, cancel := callCtx(ctx)
	defer cancel()
	return p.session.ThreadMemberAdd(threadID, userID, discordgo.WithContext(ctx))
}

// DMUser sends a direct message, creating the DM channel if needed
func (p *DiscordPlatform) DMUser(ctx context.Context, userID, content string) error {
	ctx, cancel := callCtx(ctx)
	defer cancel()

	channel, err := p.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	_, err = p.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx))
	return err
}

// DeleteMessage removes a message from a channel
func (p *DiscordPlatform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	ctx, cancel := callCtx(ctx)
	defer cancel()
	return p.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}
