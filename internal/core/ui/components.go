// Package ui defines the message component tree produced by previews.
//
// The tree is transport-agnostic; the Discord adapter converts it to
// discordgo components when sending.
package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Host platform limits.
const (
	MaxRowElements      = 5
	MaxSelectOptions    = 25
	MaxIdentifierLength = 100
	MaxButtonLabel      = 80
	MaxOptionLabel      = 100
)

// Validation errors.
var (
	ErrRowTooWide       = errors.New("action row holds too many elements")
	ErrTooManyOptions   = errors.New("select holds too many options")
	ErrIdentifierLength = errors.New("custom id too long")
	ErrMixedRow         = errors.New("a select must be alone in its row")
)

// ButtonStyle mirrors Discord's button styles.
type ButtonStyle int

const (
	ButtonPrimary   ButtonStyle = 1
	ButtonSecondary ButtonStyle = 2
	ButtonSuccess   ButtonStyle = 3
	ButtonDanger    ButtonStyle = 4
	ButtonLink      ButtonStyle = 5
)

// Component is a node of the tree. The set of implementations is closed.
type Component interface {
	Kind() string
	component()
}

// Container wraps children with an accent color.
type Container struct {
	AccentColor int         `json:"accent_color"`
	Spoiler     bool        `json:"spoiler,omitempty"`
	Children    []Component `json:"components"`
}

// TextDisplay is a markdown text block.
type TextDisplay struct {
	Content string `json:"content"`
}

// MediaItem is one image or video of a gallery.
type MediaItem struct {
	URL     string `json:"url"`
	Spoiler bool   `json:"spoiler,omitempty"`
}

// MediaGallery shows one or more media items.
type MediaGallery struct {
	Items []MediaItem `json:"items"`
}

// Separator is a visual divider.
type Separator struct{}

// ActionRow holds up to MaxRowElements buttons, or a single select.
type ActionRow struct {
	Children []Component `json:"components"`
}

// Button is an interactive button.
type Button struct {
	Style    ButtonStyle `json:"style"`
	Label    string      `json:"label"`
	CustomID string      `json:"custom_id,omitempty"`
	URL      string      `json:"url,omitempty"`
	Disabled bool        `json:"disabled,omitempty"`
}

// SelectOption is one choice of a StringSelect.
type SelectOption struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Default bool   `json:"default,omitempty"`
}

// StringSelect is a dropdown of string options.
type StringSelect struct {
	CustomID    string         `json:"custom_id"`
	Placeholder string         `json:"placeholder,omitempty"`
	Options     []SelectOption `json:"options"`
}

func (Container) Kind() string    { return "container" }
func (TextDisplay) Kind() string  { return "text_display" }
func (MediaGallery) Kind() string { return "media_gallery" }
func (Separator) Kind() string    { return "separator" }
func (ActionRow) Kind() string    { return "action_row" }
func (Button) Kind() string       { return "button" }
func (StringSelect) Kind() string { return "string_select" }

func (Container) component()    {}
func (TextDisplay) component()  {}
func (MediaGallery) component() {}
func (Separator) component()    {}
func (ActionRow) component()    {}
func (Button) component()       {}
func (StringSelect) component() {}

// Text is shorthand for a TextDisplay.
func Text(content string) TextDisplay {
	return TextDisplay{Content: content}
}

// Media is shorthand for a gallery of a single item.
func Media(url string, spoiler bool) MediaGallery {
	return MediaGallery{Items: []MediaItem{{URL: url, Spoiler: spoiler}}}
}

// Row is shorthand for an ActionRow.
func Row(children ...Component) ActionRow {
	return ActionRow{Children: children}
}

// Validate checks the row against host platform limits.
func (r ActionRow) Validate() error {
	if len(r.Children) > MaxRowElements {
		return fmt.Errorf("%w: %d", ErrRowTooWide, len(r.Children))
	}

	for _, c := range r.Children {
		switch v := c.(type) {
		case Button:
			if err := checkIdentifier(v.CustomID); err != nil {
				return err
			}
		case StringSelect:
			if len(r.Children) > 1 {
				return ErrMixedRow
			}

			if len(v.Options) > MaxSelectOptions {
				return fmt.Errorf("%w: %d", ErrTooManyOptions, len(v.Options))
			}

			if err := checkIdentifier(v.CustomID); err != nil {
				return err
			}
		}
	}

	return nil
}

// Validate walks the tree and validates every action row.
func Validate(components []Component) error {
	for _, c := range components {
		switch v := c.(type) {
		case Container:
			if err := Validate(v.Children); err != nil {
				return err
			}
		case ActionRow:
			if err := v.Validate(); err != nil {
				return err
			}
		}
	}

	return nil
}

func checkIdentifier(id string) error {
	if utf8.RuneCountInString(id) > MaxIdentifierLength {
		return fmt.Errorf("%w: %q", ErrIdentifierLength, id)
	}

	return nil
}

// MarshalJSON renders a component list with a "type" discriminator on every node.
func MarshalJSON(components []Component) ([]byte, error) {
	return json.Marshal(tagged(components))
}

func tagged(components []Component) []map[string]any {
	out := make([]map[string]any, 0, len(components))

	for _, c := range components {
		out = append(out, taggedOne(c))
	}

	return out
}

func taggedOne(c Component) map[string]any {
	node := map[string]any{"type": c.Kind()}

	switch v := c.(type) {
	case Container:
		node["accent_color"] = v.AccentColor
		node["components"] = tagged(v.Children)

		if v.Spoiler {
			node["spoiler"] = true
		}
	case ActionRow:
		node["components"] = tagged(v.Children)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return node
		}

		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err == nil {
			for k, val := range fields {
				node[k] = val
			}
		}
	}

	return node
}
