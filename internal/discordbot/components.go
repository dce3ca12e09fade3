package discordbot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
)

// Flag sets used when responding.
const (
	flagsPublic    = discordgo.MessageFlagsIsComponentsV2
	flagsEphemeral = discordgo.MessageFlagsIsComponentsV2 | discordgo.MessageFlagsEphemeral
)

// render checks the tree against host limits and converts it. A tree
// Discord would reject is replaced by an error card.
func render(logger *zerolog.Logger, tree []ui.Component) []discordgo.MessageComponent {
	if err := ui.Validate(tree); err != nil {
		logger.Error().Err(err).Msg("component tree exceeds host limits")
		return toDiscord(containers(preview.ErrorCard(MsgRenderFailed, 0)))
	}

	return toDiscord(tree)
}

// toDiscord converts a component tree into discordgo components.
func toDiscord(components []ui.Component) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(components))

	for _, c := range components {
		if dc := convert(c); dc != nil {
			out = append(out, dc)
		}
	}

	return out
}

func convert(c ui.Component) discordgo.MessageComponent {
	switch v := c.(type) {
	case ui.Container:
		color := v.AccentColor

		return discordgo.Container{AccentColor: &color, Spoiler: v.Spoiler, Components: toDiscord(v.Children)}
	case ui.TextDisplay:
		return discordgo.TextDisplay{Content: v.Content}
	case ui.MediaGallery:
		items := make([]discordgo.MediaGalleryItem, 0, len(v.Items))
		for _, it := range v.Items {
			items = append(items, discordgo.MediaGalleryItem{
				Media:   discordgo.UnfurledMediaItem{URL: it.URL},
				Spoiler: it.Spoiler,
			})
		}

		return discordgo.MediaGallery{Items: items}
	case ui.Separator:
		return discordgo.Separator{}
	case ui.ActionRow:
		return discordgo.ActionsRow{Components: toDiscord(v.Children)}
	case ui.Button:
		return discordgo.Button{
			Label:    v.Label,
			Style:    discordgo.ButtonStyle(v.Style),
			Disabled: v.Disabled,
			CustomID: v.CustomID,
			URL:      v.URL,
		}
	case ui.StringSelect:
		options := make([]discordgo.SelectMenuOption, 0, len(v.Options))
		for _, o := range v.Options {
			options = append(options, discordgo.SelectMenuOption{Label: o.Label, Value: o.Value, Default: o.Default})
		}

		return discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    v.CustomID,
			Placeholder: v.Placeholder,
			Options:     options,
		}
	default:
		return nil
	}
}

func containers(c ...ui.Container) []ui.Component {
	tree := make([]ui.Component, 0, len(c))
	for _, v := range c {
		tree = append(tree, v)
	}

	return tree
}
