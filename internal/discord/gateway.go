// AngelaMos | 2026
// gateway.go

package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/carterperez-dev/templates/entitlement-bot/internal/bot"
	"github.com/carterperez-dev/templates/entitlement-bot/internal/config"
)

var ErrNotConnected = errors.New("discord gateway not connected")

type CommandHandler interface {
	Handle(ctx context.Context, inv *bot.Invocation)
}

// Commands returns the slash commands the bot registers.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        bot.CommandProducts,
			Description: "Show products bought by the user",
			Type:        discordgo.ChatApplicationCommand,
		},
		{
			Name:        bot.CommandSync,
			Description: "Sync user roles based on purchased products",
			Type:        discordgo.ChatApplicationCommand,
		},
	}
}

type Gateway struct {
	session  *discordgo.Session
	cfg      config.DiscordConfig
	logger   *slog.Logger
	ready    atomic.Bool
	register sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

func NewGateway(cfg config.DiscordConfig, logger *slog.Logger) (*Gateway, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	session.LogLevel = discordgo.LogWarning

	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		session: session,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Session exposes the REST half of the connection for the Platform adapter.
func (g *Gateway) Session() *discordgo.Session {
	return g.session
}

// Start wires the event handlers and opens the websocket. Commands run
// under a context derived from ctx.
func (g *Gateway) Start(ctx context.Context, handler CommandHandler) error {
	g.ctx, g.cancel = context.WithCancel(ctx)

	g.session.AddHandler(g.onReady)
	g.session.AddHandler(g.onDisconnect)
	g.session.AddHandler(g.onResumed)
	g.session.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		inv, ok := InvocationFrom(ic.Interaction)
		if !ok {
			return
		}
		handler.Handle(g.ctx, inv)
	})

	if err := g.session.Open(); err != nil {
		g.cancel()
		return fmt.Errorf("open discord gateway: %w", err)
	}

	return nil
}

func (g *Gateway) Close() error {
	g.ready.Store(false)
	if g.cancel != nil {
		g.cancel()
	}
	if err := g.session.Close(); err != nil {
		return fmt.Errorf("close discord gateway: %w", err)
	}
	return nil
}

// Ping reports gateway health for readiness checks.
func (g *Gateway) Ping(_ context.Context) error {
	if !g.ready.Load() {
		return ErrNotConnected
	}
	return nil
}

func (g *Gateway) onReady(s *discordgo.Session, r *discordgo.Ready) {
	g.ready.Store(true)

	if r.User != nil {
		g.logger.Info("logged in to discord",
			"user", r.User.String(),
			"guilds", len(r.Guilds),
		)
	}

	g.register.Do(func() {
		go g.registerCommands()
	})

	if err := setPresence(s, g.cfg.Presence); err != nil {
		g.logger.Warn("failed to set presence", "error", err)
	}
}

func (g *Gateway) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	g.ready.Store(false)
	g.logger.Warn("discord gateway disconnected")
}

func (g *Gateway) onResumed(_ *discordgo.Session, _ *discordgo.Resumed) {
	g.ready.Store(true)
	g.logger.Info("discord gateway resumed")
}

func (g *Gateway) registerCommands() {
	if err := RegisterCommands(g.ctx, g.session, g.cfg.ClientID, g.cfg.GuildID); err != nil {
		g.logger.Error("failed to register slash commands", "error", err)
		return
	}
	g.logger.Info("slash commands deployed",
		"count", len(Commands()),
		"guild_id", g.cfg.GuildID,
	)
}

type commandRegistrar interface {
	ApplicationCommandBulkOverwrite(
		appID, guildID string,
		commands []*discordgo.ApplicationCommand,
		options ...discordgo.RequestOption,
	) ([]*discordgo.ApplicationCommand, error)
}

// RegisterCommands overwrites the application's commands. An empty guildID
// registers them globally.
func RegisterCommands(
	ctx context.Context,
	r commandRegistrar,
	appID, guildID string,
) error {
	_, err := r.ApplicationCommandBulkOverwrite(
		appID,
		guildID,
		Commands(),
		discordgo.WithContext(ctx),
	)
	return platformError("register commands", err)
}

type presenceSetter interface {
	UpdateStatusComplex(usd discordgo.UpdateStatusData) error
}

func setPresence(s presenceSetter, activity string) error {
	data := discordgo.UpdateStatusData{Status: string(discordgo.StatusOnline)}
	if activity != "" {
		data.Activities = []*discordgo.Activity{{
			Name: activity,
			Type: discordgo.ActivityTypeWatching,
		}}
	}
	if err := s.UpdateStatusComplex(data); err != nil {
		return fmt.Errorf("update presence: %w", err)
	}
	return nil
}

// InvocationFrom extracts a slash-command invocation. Other interaction
// types report false.
func InvocationFrom(i *discordgo.Interaction) (*bot.Invocation, bool) {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return nil, false
	}

	var userID string
	switch {
	case i.Member != nil && i.Member.User != nil:
		userID = i.Member.User.ID
	case i.User != nil:
		userID = i.User.ID
	default:
		return nil, false
	}

	return &bot.Invocation{
		ID:      i.ID,
		AppID:   i.AppID,
		Token:   i.Token,
		Command: i.ApplicationCommandData().Name,
		UserID:  userID,
		GuildID: i.GuildID,
	}, true
}
