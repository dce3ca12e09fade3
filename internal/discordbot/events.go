package discordbot

import (
	"github.com/bwmarrin/discordgo"
)

// Event kinds, also used as metric labels.
const (
	KindMessage   = "message"
	KindCommand   = "command"
	KindComponent = "component"
)

// Event is an inbound gateway event decoded into a strict record. The set
// of implementations is closed.
type Event interface {
	Kind() string
	event()
}

// MessageEvent is a created message.
type MessageEvent struct {
	ID         string
	ChannelID  string
	GuildID    string
	AuthorName string
	AuthorBot  bool
	Content    string
}

// CommandEvent is an application command invocation. Message context
// commands carry the content of the targeted message.
type CommandEvent struct {
	Interaction *discordgo.Interaction
	Name        string
	ChannelID   string
	GuildID     string
	UserID      string
	// Target is set only for message context commands.
	Target *TargetMessage
}

// TargetMessage is the message a context command was invoked on.
type TargetMessage struct {
	ID      string
	Content string
}

// ComponentEvent is a button click or select submission.
type ComponentEvent struct {
	Interaction *discordgo.Interaction
	CustomID    string
	Values      []string
	ChannelID   string
	GuildID     string
	UserID      string
}

func (MessageEvent) Kind() string   { return KindMessage }
func (CommandEvent) Kind() string   { return KindCommand }
func (ComponentEvent) Kind() string { return KindComponent }

func (MessageEvent) event()   {}
func (CommandEvent) event()   {}
func (ComponentEvent) event() {}

// DecodeMessage converts a gateway message. Messages without an author are
// rejected.
func DecodeMessage(m *discordgo.MessageCreate) (MessageEvent, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return MessageEvent{}, false
	}

	return MessageEvent{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		AuthorName: m.Author.Username,
		AuthorBot:  m.Author.Bot,
		Content:    m.Content,
	}, true
}

// DecodeInteraction converts a gateway interaction. Unsupported interaction
// types are rejected.
func DecodeInteraction(i *discordgo.InteractionCreate) (Event, bool) {
	if i == nil || i.Interaction == nil {
		return nil, false
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()

		ev := CommandEvent{
			Interaction: i.Interaction,
			Name:        data.Name,
			ChannelID:   i.ChannelID,
			GuildID:     i.GuildID,
			UserID:      interactionUserID(i.Interaction),
		}

		if data.TargetID != "" && data.Resolved != nil {
			if msg, ok := data.Resolved.Messages[data.TargetID]; ok && msg != nil {
				ev.Target = &TargetMessage{ID: msg.ID, Content: msg.Content}
			}
		}

		return ev, true
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()

		return ComponentEvent{
			Interaction: i.Interaction,
			CustomID:    data.CustomID,
			Values:      data.Values,
			ChannelID:   i.ChannelID,
			GuildID:     i.GuildID,
			UserID:      interactionUserID(i.Interaction),
		}, true
	default:
		return nil, false
	}
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}

	if i.User != nil {
		return i.User.ID
	}

	return ""
}
