// AngelaMos | 2026
// platform.go

package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/carterperez-dev/templates/entitlement-bot/internal/bot"
)

// RESTClient is the part of *discordgo.Session the command flows use.
type RESTClient interface {
	InteractionRespond(
		interaction *discordgo.Interaction,
		resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption,
	) error
	InteractionResponseEdit(
		interaction *discordgo.Interaction,
		newresp *discordgo.WebhookEdit,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
	GuildMember(
		guildID, userID string,
		options ...discordgo.RequestOption,
	) (*discordgo.Member, error)
	GuildRoles(
		guildID string,
		options ...discordgo.RequestOption,
	) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(
		guildID, userID, roleID string,
		options ...discordgo.RequestOption,
	) error
	GuildMemberRoleRemove(
		guildID, userID, roleID string,
		options ...discordgo.RequestOption,
	) error
}

// Platform adapts the Discord REST API to the bot's Responder and Guilds
// ports.
type Platform struct {
	rest RESTClient
}

func NewPlatform(rest RESTClient) *Platform {
	return &Platform{rest: rest}
}

func interactionOf(inv *bot.Invocation) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:    inv.ID,
		AppID: inv.AppID,
		Token: inv.Token,
	}
}

func (p *Platform) DeferEphemeral(ctx context.Context, inv *bot.Invocation) error {
	err := p.rest.InteractionRespond(
		interactionOf(inv),
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Flags: discordgo.MessageFlagsEphemeral,
			},
		},
		discordgo.WithContext(ctx),
	)
	return platformError("defer reply", err)
}

func (p *Platform) EditReply(ctx context.Context, inv *bot.Invocation, content string) error {
	_, err := p.rest.InteractionResponseEdit(
		interactionOf(inv),
		&discordgo.WebhookEdit{Content: &content},
		discordgo.WithContext(ctx),
	)
	return platformError("edit reply", err)
}

func (p *Platform) MemberRoleIDs(ctx context.Context, guildID, userID string) ([]string, error) {
	member, err := p.rest.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, platformError("get member", err)
	}
	return member.Roles, nil
}

func (p *Platform) Role(ctx context.Context, guildID, roleID string) (*bot.Role, error) {
	roles, err := p.rest.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, platformError("list roles", err)
	}

	for _, role := range roles {
		if role.ID == roleID {
			return &bot.Role{ID: role.ID, Name: role.Name}, nil
		}
	}

	return nil, nil
}

func (p *Platform) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	err := p.rest.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
	return platformError("add member role", err)
}

func (p *Platform) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	err := p.rest.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
	return platformError("remove member role", err)
}

var (
	_ bot.Responder = (*Platform)(nil)
	_ bot.Guilds    = (*Platform)(nil)
	_ RESTClient    = (*discordgo.Session)(nil)
)
