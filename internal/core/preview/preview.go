// Package preview holds the normalized preview value, the pagination token
// codec, navigation builders, the formatter and the previewer registry.
package preview

import (
	apperrors "github.com/meoww-bot/meoww/internal/core/errors"
	"github.com/meoww-bot/meoww/internal/core/ui"
)

// Source identifies a supported platform. It is the first segment of every
// pagination identifier, so it must not contain '_' or ':'.
type Source string

const (
	SourceTwitter Source = "twitter"
	SourcePixiv   Source = "pixiv"
	SourceNHentai Source = "nhentai"
	SourceJMComic Source = "jmcomic"
	SourceWNACG   Source = "wnacg"
	SourceHanime  Source = "hanime"
	SourcePHVideo Source = "phvideo"
	SourcePHModel Source = "phmodel"
)

// Standard card colors.
const (
	ColorError = 0xFF4B4B
	ColorInfo  = 0x3B82F6
)

// Preview is the normalized result of scraping one content reference.
// Exactly one of Components and Error is set.
type Preview struct {
	Source     Source
	Color      int
	Components []ui.Component
	Error      string
	// NSFW is nil when the platform gives no age rating.
	NSFW *bool
}

// New returns a successful preview.
func New(source Source, color int, components ...ui.Component) Preview {
	return Preview{Source: source, Color: color, Components: components}
}

// Failed returns an error preview.
func Failed(source Source, color int, message string) Preview {
	if color == 0 {
		color = ColorError
	}

	return Preview{Source: source, Color: color, Error: message}
}

// FromError returns an error preview carrying the user-facing message of err,
// or fallback when err has none.
func FromError(source Source, color int, err error, fallback string) Preview {
	return Failed(source, color, apperrors.UserMessage(err, fallback))
}

// WithNSFW returns a copy of p with the age rating set.
func (p Preview) WithNSFW(nsfw bool) Preview {
	p.NSFW = &nsfw

	return p
}

// IsError reports whether p is an error preview.
func (p Preview) IsError() bool {
	return p.Error != ""
}

// Adult reports whether p is known to be age-restricted.
func (p Preview) Adult() bool {
	return p.NSFW != nil && *p.NSFW
}
