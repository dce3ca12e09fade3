package preview

import (
	"strings"

	"github.com/meoww-bot/meoww/internal/core/ui"
)

const (
	errorHeading = "### ❌ Error\n"

	noLinksText = "### 🔍 No Previewable Links Found\nI couldn't find any supported links in that message."
	nsfwText    = "### ❌ NSFW Content Detected\nThis content is restricted to **NSFW channels**.\nPlease send this in an NSFW channel."
)

// Format converts p into a single top-level container. Error previews become
// a standard error card. p is not modified.
func Format(p Preview) ui.Container {
	if p.IsError() {
		return ErrorCard(p.Error, p.Color)
	}

	children := make([]ui.Component, len(p.Components))
	copy(children, p.Components)

	return ui.Container{AccentColor: p.Color, Children: children}
}

// Components is Format wrapped as a message component list.
func Components(p Preview) []ui.Component {
	return []ui.Component{Format(p)}
}

// ErrorCard renders message as an error card. A zero color uses ColorError.
func ErrorCard(message string, color int) ui.Container {
	if color == 0 {
		color = ColorError
	}

	return ui.Container{
		AccentColor: color,
		Children:    []ui.Component{ui.Text(errorHeading + message)},
	}
}

// NoLinksCard tells the user nothing in the message could be previewed.
func NoLinksCard(platforms []string) ui.Container {
	lines := make([]string, 0, len(platforms))
	for _, p := range platforms {
		lines = append(lines, "• "+p)
	}

	return ui.Container{
		AccentColor: ColorInfo,
		Children: []ui.Component{
			ui.Text(noLinksText),
			ui.Separator{},
			ui.Text("**Supported Platforms:**\n" + strings.Join(lines, "\n")),
		},
	}
}

// SourceChoice is a button of the source selection card.
type SourceChoice struct {
	Source Source
	Label  string
}

// SourceSelectionCard asks which gallery site a bare numeric id belongs to.
func SourceSelectionCard(contentID string, choices []SourceChoice) ui.Container {
	buttons := make([]ui.Component, 0, len(choices))

	for _, c := range choices {
		if len(buttons) == ui.MaxRowElements {
			break
		}

		buttons = append(buttons, ui.Button{
			Style:    ui.ButtonPrimary,
			Label:    c.Label,
			CustomID: Action{Verb: VerbIDPreview, Source: c.Source, ContentID: contentID}.Encode(),
		})
	}

	return ui.Container{
		AccentColor: ColorInfo,
		Children: []ui.Component{
			ui.Text("### 📚 Select Source\nWhich source do you want to preview `" + contentID + "` from?"),
			ui.Row(buttons...),
		},
	}
}

// NSFWCard replaces adult content posted outside age-gated channels.
func NSFWCard() ui.Container {
	return ui.Container{
		AccentColor: ColorError,
		Children:    []ui.Component{ui.Text(nsfwText)},
	}
}
