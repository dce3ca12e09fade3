package discordbot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

var greetings = []string{"hi bot", "hello bot"}

func isGreeting(content string) bool {
	lower := strings.ToLower(content)

	for _, g := range greetings {
		if strings.Contains(lower, g) {
			return true
		}
	}

	return false
}

func greetingFor(name string) string {
	if name == "" {
		name = "there"
	}

	return fmt.Sprintf("Hi %s! I'm here to help.", name)
}

func (r *Router) greet(logger *zerolog.Logger, e MessageEvent) {
	if _, err := r.session.ChannelMessageSendComplex(e.ChannelID, &discordgo.MessageSend{
		Content: greetingFor(e.AuthorName),
	}); err != nil {
		logger.Error().Err(err).Str(LogFieldChannelID, e.ChannelID).Msg("failed to send greeting")
		return
	}

	handled(KindMessage, routeGreeting)
}
