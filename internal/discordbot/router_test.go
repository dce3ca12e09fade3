package discordbot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

func TestHandleMessage_RepliesWithPreview(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), MessageEvent{
		ID:         "m1",
		ChannelID:  "dm",
		AuthorName: "alice",
		Content:    "look at https://nhentai.net/g/177013/",
	})

	require.Len(t, f.session.sent, 1)

	msg := f.session.sent[0]
	require.Equal(t, "dm", msg.channelID)
	require.Equal(t, flagsPublic, msg.data.Flags)
	require.Equal(t, "m1", msg.data.Reference.MessageID)
	require.NotNil(t, msg.data.Reference.FailIfNotExists)
	require.False(t, *msg.data.Reference.FailIfNotExists)
	require.False(t, msg.data.AllowedMentions.RepliedUser)
	require.Equal(t, []string{"nhentai:177013"}, texts(msg.data.Components))
}

func TestHandleMessage_NSFWGate(t *testing.T) {
	tests := []struct {
		name      string
		channelID string
		wantText  string
	}{
		{name: "plain channel", channelID: "plain", wantText: "### ❌ NSFW Content Detected"},
		{name: "lookup failure", channelID: "gone", wantText: "### ❌ NSFW Content Detected"},
		{name: "nsfw channel", channelID: "nsfw", wantText: "nhentai:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			f.router.Handle(context.Background(), MessageEvent{
				ID:        "m1",
				ChannelID: tt.channelID,
				GuildID:   "g1",
				Content:   "https://nhentai.net/g/1/",
			})

			require.Len(t, f.session.sent, 1)
			require.Contains(t, texts(f.session.sent[0].data.Components)[0], tt.wantText)
		})
	}
}

func TestHandleMessage_SafeContentInPlainChannel(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), MessageEvent{
		ID:        "m1",
		ChannelID: "plain",
		GuildID:   "g1",
		Content:   "https://x.com/someone/status/42",
	})

	require.Len(t, f.session.sent, 1)
	require.Equal(t, []string{"twitter:42"}, texts(f.session.sent[0].data.Components))
}

func TestHandleMessage_Ignored(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), MessageEvent{ID: "m1", ChannelID: "dm", AuthorBot: true, Content: "https://nhentai.net/g/1/"})
	f.router.Handle(context.Background(), MessageEvent{ID: "m2", ChannelID: "dm", Content: "no links here"})

	require.Empty(t, f.session.sent)
}

func TestHandleMessage_Greeting(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), MessageEvent{ID: "m1", ChannelID: "dm", AuthorName: "alice", Content: "Hello Bot!"})

	require.Len(t, f.session.sent, 1)
	require.Equal(t, "Hi alice! I'm here to help.", f.session.sent[0].data.Content)
	require.Equal(t, "Hi there! I'm here to help.", greetingFor(""))
}

func TestHandleMessage_SendFailureDoesNotPanic(t *testing.T) {
	f := newFixture(t)
	f.session.sendErr = errors.New("discord is down")

	require.NotPanics(t, func() {
		f.router.Handle(context.Background(), MessageEvent{ID: "m1", ChannelID: "dm", Content: "https://nhentai.net/g/1/"})
	})
}

func TestHandleComponent_Navigation(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), component("nhentai_v_12345_6_5_n"))

	resp := f.session.onlyResponse(t)
	require.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	require.Equal(t, []string{"12345:6"}, texts(resp.Data.Components))
}

func TestHandleComponent_JumpSelect(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), component("nhentai_v_12345_1_3_j", "17"))

	resp := f.session.onlyResponse(t)
	require.Equal(t, []string{"12345:17"}, texts(resp.Data.Components))
}

func TestHandleComponent_InitialViewIsPrivate(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), component("nhentai_v_12345_1_1_0"))

	resp := f.session.onlyResponse(t)
	require.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	require.Equal(t, flagsEphemeral, resp.Data.Flags)
	require.Equal(t, []string{"12345:1"}, texts(resp.Data.Components))
}

func TestHandleComponent_AlwaysAcknowledges(t *testing.T) {
	ids := []string{
		"",
		"settings_toggle",
		"unknown_v_1_2_1_n",
		"twitter_v_1_2_1_n",
		"nhentai_info",
		"vote:up:1",
	}

	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			f := newFixture(t)

			f.router.Handle(context.Background(), component(id))

			resp := f.session.onlyResponse(t)
			require.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, resp.Type)
		})
	}
}

func TestHandleComponent_RecoversPanics(t *testing.T) {
	f := newFixture(t)
	f.gallery.panics = true

	require.NotPanics(t, func() {
		f.router.Handle(context.Background(), component("nhentai_v_1_2_1_n"))
	})

	resp := f.session.onlyResponse(t)
	require.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	require.Equal(t, flagsEphemeral, resp.Data.Flags)
	require.Contains(t, texts(resp.Data.Components)[0], MsgInternalError)
}

func TestHandleShare(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), component("share_p:nhentai:177013"))

	require.Len(t, f.session.sent, 1)
	require.Equal(t, "nsfw", f.session.sent[0].channelID)
	require.Equal(t, flagsPublic, f.session.sent[0].data.Flags)
	require.Nil(t, f.session.sent[0].data.Reference)
	require.Equal(t, []string{"nhentai:177013"}, texts(f.session.sent[0].data.Components))

	resp := f.session.onlyResponse(t)
	require.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, resp.Type)
}

func TestHandleShare_Failures(t *testing.T) {
	tests := []struct {
		name    string
		ev      ComponentEvent
		prepare func(f *fixture)
	}{
		{name: "unknown source", ev: component("share_p:nope:1")},
		{name: "no channel", ev: func() ComponentEvent {
			ev := component("share_p:nhentai:1")
			ev.ChannelID = ""

			return ev
		}()},
		{name: "upstream error", ev: component("share_p:twitter:1"), prepare: func(f *fixture) { f.post.fail = true }},
		{name: "send error", ev: component("share_p:nhentai:1"), prepare: func(f *fixture) { f.session.sendErr = errors.New("nope") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.prepare != nil {
				tt.prepare(f)
			}

			f.router.Handle(context.Background(), tt.ev)

			require.Empty(t, f.session.sent)

			resp := f.session.onlyResponse(t)
			require.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
			require.Equal(t, MsgShareFailed, resp.Data.Content)
			require.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
		})
	}
}

func TestHandleShare_NSFWGate(t *testing.T) {
	f := newFixture(t)

	ev := component("share_p:nhentai:1")
	ev.ChannelID = "plain"

	f.router.Handle(context.Background(), ev)

	require.Empty(t, f.session.sent)

	resp := f.session.onlyResponse(t)
	require.Equal(t, flagsEphemeral, resp.Data.Flags)
	require.Contains(t, texts(resp.Data.Components)[0], "NSFW Content Detected")
}

func TestHandleIDPreview(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), component("id_preview:nhentai:123456"))

	resp := f.session.onlyResponse(t)
	require.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	require.Equal(t, []string{"nhentai:123456"}, texts(resp.Data.Components))

	f = newFixture(t)
	f.router.Handle(context.Background(), component("id_preview:wnacg:123456"))

	resp = f.session.onlyResponse(t)
	require.Equal(t, MsgUnsupportedSource, resp.Data.Content)
}

func TestHandleCommand_Ping(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), CommandEvent{Interaction: &discordgo.Interaction{}, Name: CmdPing})

	resp := f.session.onlyResponse(t)
	require.Equal(t, MsgPong, resp.Data.Content)
}

func TestHandleCommand_Unknown(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), CommandEvent{Interaction: &discordgo.Interaction{}, Name: "gone"})

	resp := f.session.onlyResponse(t)
	require.Equal(t, MsgUnknownCommand, resp.Data.Content)
}

func TestPreviewLink(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), messageCommand("check this https://nhentai.net/g/177013/"))

	resp := f.session.onlyResponse(t)
	require.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, resp.Type)
	require.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)

	require.Len(t, f.session.followups, 1)
	follow := f.session.followups[0]
	require.Equal(t, flagsEphemeral, follow.Flags)
	require.Equal(t, []string{"nhentai_info", "share_p:nhentai:177013"}, customIDs(follow.Components))

	// Private previews skip the NSFW gate.
	require.Empty(t, f.session.sent)
}

func TestPreviewLink_ErrorPreviewHasNoShareButton(t *testing.T) {
	f := newFixture(t)
	f.post.fail = true

	f.router.Handle(context.Background(), messageCommand("https://x.com/a/status/9"))

	require.Len(t, f.session.followups, 1)
	require.Empty(t, customIDs(f.session.followups[0].Components))
	require.Equal(t, []string{"### ❌ Error\nupstream is down"}, texts(f.session.followups[0].Components))
}

func TestPreviewLink_OversizedShareIdentifier(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), messageCommand("https://x.com/a/status/"+strings.Repeat("9", 100)))

	require.Len(t, f.session.followups, 1)

	follow := f.session.followups[0]
	require.Empty(t, customIDs(follow.Components))
	require.Equal(t, []string{"### ❌ Error\n" + MsgRenderFailed}, texts(follow.Components))
}

func TestPreviewLink_Fallbacks(t *testing.T) {
	f := newFixture(t)

	f.router.Handle(context.Background(), messageCommand("try 123456 please"))

	require.Len(t, f.session.followups, 1)
	require.Equal(t, []string{"id_preview:nhentai:123456"}, customIDs(f.session.followups[0].Components))

	f = newFixture(t)
	f.router.Handle(context.Background(), messageCommand("nothing useful"))

	require.Len(t, f.session.followups, 1)
	got := texts(f.session.followups[0].Components)
	require.Contains(t, got[0], "No Previewable Links Found")
	require.Equal(t, "**Supported Platforms:**\n• twitter\n• nhentai", got[1])
}

func TestPreviewLink_EmptyMessage(t *testing.T) {
	f := newFixture(t)

	ev := messageCommand("   ")
	f.router.Handle(context.Background(), ev)

	ev.Target = nil
	f.router.Handle(context.Background(), ev)

	require.Len(t, f.session.responses, 2)

	for _, resp := range f.session.responses {
		require.Equal(t, MsgNoContent, resp.Data.Content)
		require.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	}

	require.Empty(t, f.session.followups)
}
