package discordbot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
)

var errChannelLookup = errors.New("unknown channel")

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

// fakeSession records everything the router sends.
type fakeSession struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
	sent      []sentMessage
	channels  map[string]*discordgo.Channel
	sendErr   error
}

func newFakeSession() *fakeSession {
	return &fakeSession{channels: map[string]*discordgo.Channel{
		"nsfw":  {ID: "nsfw", NSFW: true},
		"plain": {ID: "plain"},
	}}
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses = append(f.responses, resp)

	return nil
}

func (f *fakeSession) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.followups = append(f.followups, data)

	return &discordgo.Message{}, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return nil, f.sendErr
	}

	f.sent = append(f.sent, sentMessage{channelID: channelID, data: data})

	return &discordgo.Message{}, nil
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errChannelLookup
	}

	return ch, nil
}

// onlyResponse asserts a single interaction response and returns it.
func (f *fakeSession) onlyResponse(t *testing.T) *discordgo.InteractionResponse {
	t.Helper()
	require.Len(t, f.responses, 1)

	return f.responses[0]
}

// stubPost previews links without pages.
type stubPost struct {
	source preview.Source
	re     *regexp.Regexp
	adult  bool
	fail   bool
}

func (s *stubPost) Source() preview.Source { return s.source }
func (s *stubPost) Name() string           { return string(s.source) }

func (s *stubPost) Match(text string) (string, bool) {
	m := s.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	return m[1], true
}

func (s *stubPost) Preview(ctx context.Context, text string) (preview.Preview, bool) {
	id, ok := s.Match(text)
	if !ok {
		return preview.Preview{}, false
	}

	return s.PreviewID(ctx, id), true
}

func (s *stubPost) PreviewID(_ context.Context, id string) preview.Preview {
	if s.fail {
		return preview.Failed(s.source, 0, "upstream is down")
	}

	return preview.New(s.source, 0x123456,
		ui.Media("https://img.test/"+id+".jpg", false),
		ui.Text(string(s.source)+":"+id),
		ui.Row(ui.Button{Style: ui.ButtonSecondary, Label: "1 / 3", CustomID: preview.InfoID(s.source), Disabled: true}),
	).WithNSFW(s.adult)
}

// stubGallery adds paging to stubPost.
type stubGallery struct {
	stubPost
	panics bool
}

func (s *stubGallery) View(_ context.Context, id string, page int) preview.Preview {
	if s.panics {
		panic("view exploded")
	}

	return preview.New(s.source, 0x123456, ui.Text(fmt.Sprintf("%s:%d", id, page))).WithNSFW(s.adult)
}

type fixture struct {
	session *fakeSession
	router  *Router
	gallery *stubGallery
	post    *stubPost
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gallery := &stubGallery{stubPost: stubPost{
		source: preview.SourceNHentai,
		re:     regexp.MustCompile(`nhentai\.net/g/(\d+)`),
		adult:  true,
	}}
	post := &stubPost{source: preview.SourceTwitter, re: regexp.MustCompile(`x\.com/\w+/status/(\d+)`)}

	reg, err := preview.NewRegistry(post, gallery)
	require.NoError(t, err)

	logger := zerolog.Nop()
	session := newFakeSession()

	return &fixture{
		session: session,
		router:  NewRouter(session, reg, ChannelSafety(session, &logger), &logger),
		gallery: gallery,
		post:    post,
	}
}

func component(customID string, values ...string) ComponentEvent {
	return ComponentEvent{
		Interaction: &discordgo.Interaction{ID: "i1"},
		CustomID:    customID,
		Values:      values,
		ChannelID:   "nsfw",
		GuildID:     "g1",
		UserID:      "u1",
	}
}

func messageCommand(content string) CommandEvent {
	return CommandEvent{
		Interaction: &discordgo.Interaction{ID: "i2"},
		Name:        CmdPreviewLink,
		ChannelID:   "plain",
		GuildID:     "g1",
		UserID:      "u1",
		Target:      &TargetMessage{ID: "m1", Content: content},
	}
}

// texts collects TextDisplay contents in tree order.
func texts(components []discordgo.MessageComponent) []string {
	var out []string

	for _, c := range components {
		switch v := c.(type) {
		case discordgo.Container:
			out = append(out, texts(v.Components)...)
		case discordgo.TextDisplay:
			out = append(out, v.Content)
		}
	}

	return out
}

// customIDs collects button and select identifiers in tree order.
func customIDs(components []discordgo.MessageComponent) []string {
	var out []string

	for _, c := range components {
		switch v := c.(type) {
		case discordgo.Container:
			out = append(out, customIDs(v.Components)...)
		case discordgo.ActionsRow:
			out = append(out, customIDs(v.Components)...)
		case discordgo.Button:
			out = append(out, v.CustomID)
		case discordgo.SelectMenu:
			out = append(out, v.CustomID)
		}
	}

	return out
}
