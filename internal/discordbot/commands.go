package discordbot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// commandHandler handles one application command.
type commandHandler func(ctx context.Context, logger *zerolog.Logger, rs *responder, ev CommandEvent)

// commandRegistry maps command names to their handlers.
type commandRegistry struct {
	handlers map[string]commandHandler
}

func (r *Router) newCommandRegistry() commandRegistry {
	return commandRegistry{handlers: map[string]commandHandler{
		CmdPing:        r.handlePing,
		CmdPreviewLink: r.handlePreviewLink,
	}}
}

func (c commandRegistry) route(ctx context.Context, logger *zerolog.Logger, rs *responder, ev CommandEvent) bool {
	handler, ok := c.handlers[ev.Name]
	if !ok {
		return false
	}

	handler(ctx, logger, rs, ev)

	return true
}

// ApplicationCommands lists the commands registered with Discord.
func ApplicationCommands() []*discordgo.ApplicationCommand {
	// Preview Link works from guild and user installs, in servers and DMs.
	previewIntegrations := []discordgo.ApplicationIntegrationType{
		discordgo.ApplicationIntegrationGuildInstall,
		discordgo.ApplicationIntegrationUserInstall,
	}
	previewContexts := []discordgo.InteractionContextType{
		discordgo.InteractionContextGuild,
		discordgo.InteractionContextBotDM,
		discordgo.InteractionContextPrivateChannel,
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        CmdPing,
			Description: "Replies with Pong!",
			Type:        discordgo.ChatApplicationCommand,
		},
		{
			Name:             CmdPreviewLink,
			Type:             discordgo.MessageApplicationCommand,
			IntegrationTypes: &previewIntegrations,
			Contexts:         &previewContexts,
		},
	}
}

func (r *Router) handlePing(_ context.Context, logger *zerolog.Logger, rs *responder, _ CommandEvent) {
	err := rs.respond(discordgo.InteractionResponseChannelMessageWithSource, &discordgo.InteractionResponseData{
		Content: MsgPong,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to reply to ping")
	}
}
