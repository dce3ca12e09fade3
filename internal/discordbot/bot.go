// Package discordbot adapts the preview engine to Discord. Gateway events
// are decoded into strict records and dispatched by the Router.
package discordbot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/platform/config"
)

// Command names.
const (
	CmdPing        = "ping"
	CmdPreviewLink = "Preview Link"
)

// Log field names.
const (
	LogFieldRequestID = "request_id"
	LogFieldEventKind = "event_kind"
	LogFieldCustomID  = "custom_id"
	LogFieldChannelID = "channel_id"
	LogFieldGuildID   = "guild_id"
	LogFieldUserID    = "user_id"
	LogFieldSource    = "source"
	LogFieldContentID = "content_id"
	LogFieldPage      = "page"
	LogFieldCommand   = "command"
	LogFieldRoute     = "route"
)

// User-facing replies.
const (
	MsgPong              = "Pong!"
	MsgNoContent         = "❌ No content found in this message."
	MsgShareFailed       = "❌ Failed to fetch content for sharing."
	MsgUnsupportedSource = "❌ Unsupported preview source"
	MsgUnknownCommand    = "❌ Unknown command"
	MsgInternalError     = "Something went wrong while handling this request."
	MsgRenderFailed      = "This preview could not be displayed."
)

// ErrNotConnected is reported by Ready until the gateway session is up.
var ErrNotConnected = errors.New("discord gateway not connected")

// Session is the part of *discordgo.Session the router needs.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Bot owns the gateway connection and feeds its events to a Router.
type Bot struct {
	cfg      *config.Config
	session  *discordgo.Session
	registry *preview.Registry
	logger   *zerolog.Logger
	ready    atomic.Bool
}

func New(cfg *config.Config, registry *preview.Registry, logger *zerolog.Logger) (*Bot, error) {
	if err := cfg.RequireToken(); err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Bot{
		cfg:      cfg,
		session:  session,
		registry: registry,
		logger:   logger,
	}, nil
}

// Run connects to the gateway and handles events until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	router := NewRouter(b.session, b.registry, ChannelSafety(b.session, b.logger), b.logger)

	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info().Str(LogFieldUserID, r.User.ID).Msgf("logged in as %s", r.User.Username)
		b.ready.Store(true)

		if err := b.registerCommands(s, r.User.ID); err != nil {
			b.logger.Error().Err(err).Msg("failed to register application commands")
		}
	})

	b.session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		b.ready.Store(false)
	})

	b.session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Resumed) {
		b.ready.Store(true)
	})

	b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if ev, ok := DecodeMessage(m); ok {
			router.Handle(ctx, ev)
		}
	})

	b.session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		if ev, ok := DecodeInteraction(i); ok {
			router.Handle(ctx, ev)
		}
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}

	defer func() {
		if err := b.session.Close(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to close discord session")
		}
	}()

	<-ctx.Done()

	return fmt.Errorf("bot run context canceled: %w", ctx.Err())
}

// Ready reports ErrNotConnected while the gateway session is down.
func (b *Bot) Ready(context.Context) error {
	if !b.ready.Load() {
		return ErrNotConnected
	}

	return nil
}

func (b *Bot) registerCommands(s *discordgo.Session, appID string) error {
	commands := ApplicationCommands()

	if _, err := s.ApplicationCommandBulkOverwrite(appID, b.cfg.Discord.GuildID, commands); err != nil {
		return fmt.Errorf("overwriting commands (guild %q): %w", b.cfg.Discord.GuildID, err)
	}

	b.logger.Info().Str(LogFieldGuildID, b.cfg.Discord.GuildID).Int("count", len(commands)).Msg("application commands registered")

	return nil
}
