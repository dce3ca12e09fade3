package discordbot

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/meoww-bot/meoww/internal/core/ui"
)

func TestToDiscord_Tree(t *testing.T) {
	tree := []ui.Component{ui.Container{
		AccentColor: 0xED2553,
		Spoiler:     true,
		Children: []ui.Component{
			ui.Media("https://img.test/1.jpg", true),
			ui.Text("### Title"),
			ui.Separator{},
			ui.Row(
				ui.Button{Style: ui.ButtonSecondary, Label: "⏪", CustomID: "nhentai_v_1_1_2_f"},
				ui.Button{Style: ui.ButtonLink, Label: "Open", URL: "https://nhentai.net/g/1/"},
			),
			ui.Row(ui.StringSelect{
				CustomID:    "nhentai_v_1_1_2_j",
				Placeholder: "Jump to page",
				Options:     []ui.SelectOption{{Label: "Page 1", Value: "1", Default: true}},
			}),
		},
	}}

	got := toDiscord(tree)
	require.Len(t, got, 1)

	c, ok := got[0].(discordgo.Container)
	require.True(t, ok)
	require.Equal(t, discordgo.ContainerComponent, c.Type())
	require.NotNil(t, c.AccentColor)
	require.Equal(t, 0xED2553, *c.AccentColor)
	require.True(t, c.Spoiler)
	require.Len(t, c.Components, 5)

	gallery, ok := c.Components[0].(discordgo.MediaGallery)
	require.True(t, ok)
	require.Equal(t, "https://img.test/1.jpg", gallery.Items[0].Media.URL)
	require.True(t, gallery.Items[0].Spoiler)

	require.Equal(t, discordgo.TextDisplay{Content: "### Title"}, c.Components[1])
	require.Equal(t, discordgo.Separator{}, c.Components[2])

	row, ok := c.Components[3].(discordgo.ActionsRow)
	require.True(t, ok)

	link, ok := row.Components[1].(discordgo.Button)
	require.True(t, ok)
	require.Equal(t, discordgo.LinkButton, link.Style)
	require.Equal(t, "https://nhentai.net/g/1/", link.URL)

	sel, ok := c.Components[4].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	require.True(t, ok)
	require.Equal(t, discordgo.StringSelectMenu, sel.MenuType)
	require.True(t, sel.Options[0].Default)
}

func TestLayoutComponentsJSON(t *testing.T) {
	raw, err := json.Marshal(toDiscord([]ui.Component{ui.Container{
		AccentColor: 7,
		Children: []ui.Component{
			ui.Media("https://img.test/a.jpg", true),
			ui.Text("hello"),
			ui.Separator{},
		},
	}}))
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)

	container := decoded[0]
	require.EqualValues(t, 17, container["type"])
	require.EqualValues(t, 7, container["accent_color"])

	children := container["components"].([]any)
	require.Len(t, children, 3)

	gallery := children[0].(map[string]any)
	require.EqualValues(t, 12, gallery["type"])

	item := gallery["items"].([]any)[0].(map[string]any)
	require.Equal(t, "https://img.test/a.jpg", item["media"].(map[string]any)["url"])
	require.Equal(t, true, item["spoiler"])

	text := children[1].(map[string]any)
	require.EqualValues(t, 10, text["type"])
	require.Equal(t, "hello", text["content"])

	require.EqualValues(t, 14, children[2].(map[string]any)["type"])
}

func TestRender_RejectsTreesOverHostLimits(t *testing.T) {
	logger := zerolog.Nop()

	tooWide := make([]ui.Component, 0, ui.MaxRowElements+1)
	for i := 0; i < ui.MaxRowElements+1; i++ {
		tooWide = append(tooWide, ui.Button{Style: ui.ButtonSecondary, Label: "x", CustomID: "x"})
	}

	tests := []struct {
		name string
		row  ui.ActionRow
	}{
		{name: "row too wide", row: ui.Row(tooWide...)},
		{name: "identifier too long", row: ui.Row(ui.Button{Style: ui.ButtonPrimary, Label: "x", CustomID: strings.Repeat("1", ui.MaxIdentifierLength+1)})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(&logger, containers(ui.Container{Children: []ui.Component{ui.Text("body"), tt.row}}))

			require.Equal(t, []string{"### ❌ Error\n" + MsgRenderFailed}, texts(got))
			require.Empty(t, customIDs(got))
		})
	}

	ok := render(&logger, containers(ui.Container{Children: []ui.Component{ui.Text("body")}}))
	require.Equal(t, []string{"body"}, texts(ok))
}

func TestFlags(t *testing.T) {
	require.Equal(t, discordgo.MessageFlags(1<<15), flagsPublic)
	require.Equal(t, discordgo.MessageFlags(1<<15|1<<6), flagsEphemeral)
}
