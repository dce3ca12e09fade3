package discordbot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/meoww-bot/meoww/internal/core/preview"
)

// responder tracks what has been sent for one interaction so that every
// interaction ends up acknowledged exactly once.
type responder struct {
	session     Session
	interaction *discordgo.Interaction
	responded   bool
	deferred    bool
}

func newResponder(session Session, interaction *discordgo.Interaction) *responder {
	return &responder{session: session, interaction: interaction}
}

func (r *responder) respond(kind discordgo.InteractionResponseType, data *discordgo.InteractionResponseData) error {
	r.responded = true

	if err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{Type: kind, Data: data}); err != nil {
		return fmt.Errorf("responding to interaction: %w", err)
	}

	return nil
}

// reply sends a new message in response to the interaction.
func (r *responder) reply(components []discordgo.MessageComponent, ephemeral bool) error {
	flags := flagsPublic
	if ephemeral {
		flags = flagsEphemeral
	}

	return r.respond(discordgo.InteractionResponseChannelMessageWithSource, &discordgo.InteractionResponseData{
		Flags:      flags,
		Components: components,
	})
}

// replyText sends a plain ephemeral text message.
func (r *responder) replyText(content string) error {
	return r.respond(discordgo.InteractionResponseChannelMessageWithSource, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// update replaces the components of the message the interaction came from.
func (r *responder) update(components []discordgo.MessageComponent) error {
	return r.respond(discordgo.InteractionResponseUpdateMessage, &discordgo.InteractionResponseData{
		Flags:      discordgo.MessageFlagsIsComponentsV2,
		Components: components,
	})
}

// deferEphemeral acknowledges with a private loading state. The answer
// follows with followup.
func (r *responder) deferEphemeral() error {
	if err := r.respond(discordgo.InteractionResponseDeferredChannelMessageWithSource, &discordgo.InteractionResponseData{
		Flags: discordgo.MessageFlagsEphemeral,
	}); err != nil {
		return err
	}

	r.deferred = true

	return nil
}

// followup answers a deferred interaction with a private message.
func (r *responder) followup(components []discordgo.MessageComponent) error {
	if _, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Flags:      flagsEphemeral,
		Components: components,
	}); err != nil {
		return fmt.Errorf("sending followup: %w", err)
	}

	return nil
}

// acknowledge closes the interaction without changing anything visible.
func (r *responder) acknowledge() error {
	return r.respond(discordgo.InteractionResponseDeferredMessageUpdate, nil)
}

// fail shows message as a private error card through whichever channel is
// still open for the interaction.
func (r *responder) fail(message string) error {
	card := toDiscord(containers(preview.ErrorCard(message, 0)))

	switch {
	case r.deferred:
		return r.followup(card)
	case r.responded:
		return nil
	default:
		return r.reply(card, true)
	}
}

// finish acknowledges the interaction if no handler did.
func (r *responder) finish(logger *zerolog.Logger) {
	if r.responded {
		return
	}

	if err := r.acknowledge(); err != nil {
		logger.Error().Err(err).Msg("failed to acknowledge interaction")
	}
}
