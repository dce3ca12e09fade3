package discordbot

import (
	"context"

	"github.com/rs/zerolog"
)

// SafetyFunc reports whether adult content may be shown in a channel.
type SafetyFunc func(ctx context.Context, channelID, guildID string) bool

// ChannelSafety allows adult content in direct messages and in guild
// channels marked NSFW. A failed channel lookup counts as unsafe.
func ChannelSafety(session Session, logger *zerolog.Logger) SafetyFunc {
	return func(ctx context.Context, channelID, guildID string) bool {
		if guildID == "" {
			return true
		}

		ch, err := session.Channel(channelID)
		if err != nil {
			logger.Error().Err(err).Str(LogFieldChannelID, channelID).Msg("failed to fetch channel for NSFW check")
			return false
		}

		return ch.NSFW
	}
}

// AllowAll is a SafetyFunc that never blocks.
func AllowAll(context.Context, string, string) bool { return true }
