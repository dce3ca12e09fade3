package discordbot

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	ev, ok := DecodeMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		Content:   "hi",
		Author:    &discordgo.User{ID: "u1", Username: "alice", Bot: true},
	}})
	require.True(t, ok)
	require.Equal(t, MessageEvent{ID: "m1", ChannelID: "c1", GuildID: "g1", AuthorName: "alice", AuthorBot: true, Content: "hi"}, ev)
	require.Equal(t, KindMessage, ev.Kind())

	_, ok = DecodeMessage(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "m2"}})
	require.False(t, ok)

	_, ok = DecodeMessage(nil)
	require.False(t, ok)
}

func TestDecodeInteraction_Component(t *testing.T) {
	ev, ok := DecodeInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "c1",
		GuildID:   "g1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u1"}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID: "nhentai_v_1_1_1_j",
			Values:   []string{"7"},
		},
	}})
	require.True(t, ok)

	c, ok := ev.(ComponentEvent)
	require.True(t, ok)
	require.Equal(t, "nhentai_v_1_1_1_j", c.CustomID)
	require.Equal(t, []string{"7"}, c.Values)
	require.Equal(t, "u1", c.UserID)
	require.Equal(t, "g1", c.GuildID)
	require.NotNil(t, c.Interaction)
}

func TestDecodeInteraction_MessageCommand(t *testing.T) {
	ev, ok := DecodeInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "c1",
		User:      &discordgo.User{ID: "dm-user"},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:     CmdPreviewLink,
			TargetID: "m9",
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
				Messages: map[string]*discordgo.Message{
					"m9": {ID: "m9", Content: "https://nhentai.net/g/1/"},
				},
			},
		},
	}})
	require.True(t, ok)

	c, ok := ev.(CommandEvent)
	require.True(t, ok)
	require.Equal(t, CmdPreviewLink, c.Name)
	require.Equal(t, "dm-user", c.UserID)
	require.Equal(t, &TargetMessage{ID: "m9", Content: "https://nhentai.net/g/1/"}, c.Target)

	ev, ok = DecodeInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: CmdPing},
	}})
	require.True(t, ok)
	require.Nil(t, ev.(CommandEvent).Target)
}

func TestDecodeInteraction_Unsupported(t *testing.T) {
	_, ok := DecodeInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing}})
	require.False(t, ok)

	_, ok = DecodeInteraction(&discordgo.InteractionCreate{})
	require.False(t, ok)
}

func TestChannelSafety(t *testing.T) {
	logger := zerolog.Nop()
	safe := ChannelSafety(newFakeSession(), &logger)
	ctx := context.Background()

	require.True(t, safe(ctx, "anything", ""))
	require.True(t, safe(ctx, "nsfw", "g1"))
	require.False(t, safe(ctx, "plain", "g1"))
	require.False(t, safe(ctx, "missing", "g1"))
	require.True(t, AllowAll(ctx, "plain", "g1"))
}

func TestApplicationCommands(t *testing.T) {
	cmds := ApplicationCommands()
	require.Len(t, cmds, 2)

	byName := map[string]*discordgo.ApplicationCommand{}
	for _, c := range cmds {
		byName[c.Name] = c
	}

	require.Equal(t, discordgo.ChatApplicationCommand, byName[CmdPing].Type)
	require.Equal(t, discordgo.MessageApplicationCommand, byName[CmdPreviewLink].Type)
	require.Empty(t, byName[CmdPreviewLink].Description)

	preview := byName[CmdPreviewLink]
	require.NotNil(t, preview.IntegrationTypes)
	require.ElementsMatch(t, []discordgo.ApplicationIntegrationType{
		discordgo.ApplicationIntegrationGuildInstall,
		discordgo.ApplicationIntegrationUserInstall,
	}, *preview.IntegrationTypes)
	require.NotNil(t, preview.Contexts)
	require.ElementsMatch(t, []discordgo.InteractionContextType{
		discordgo.InteractionContextGuild,
		discordgo.InteractionContextBotDM,
		discordgo.InteractionContextPrivateChannel,
	}, *preview.Contexts)
	require.Nil(t, byName[CmdPing].Contexts)
}
