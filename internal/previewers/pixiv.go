package previewers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/meoww-bot/meoww/internal/core/errors"
	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
	"github.com/meoww-bot/meoww/internal/platform/htmlutils"
	"github.com/meoww-bot/meoww/internal/platform/observability"
)

const (
	pixivColor       = 0x0096FA
	pixivDefaultBase = "https://www.phixiv.net"
	pixivSite        = "https://www.pixiv.net"
	pixivCatHost     = "https://pixiv.cat"

	pixivDisclaimer = "-# Adult content detection is based on platform metadata. " +
		"If NSFW content is incorrectly displayed in a non-NSFW channel, please delete it manually."
)

var pixivLink = regexp.MustCompile(`https?://(?:www\.)?pixiv\.net/(?:[a-zA-Z0-9_-]+/)?artworks/(\d+)`)

var pixivStatus = statusMessages{
	rejected: "Access Denied (403). The Pixiv proxy refused the request.",
	notFound: "Artwork not found (404).",
}

type pixivInfo struct {
	Title       string   `json:"title"`
	AuthorName  string   `json:"author_name"`
	AuthorID    string   `json:"author_id"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ImageURLs   []string `json:"image_proxy_urls"`
	XRestrict   int      `json:"x_restrict"`
}

// images returns the displayable image list. An animation replaces every
// static frame.
func (p pixivInfo) images(id string) []string {
	if len(p.ImageURLs) == 0 {
		return []string{pixivCatImage(id)}
	}

	for _, u := range p.ImageURLs {
		if strings.Contains(u, "/ugoira/") || strings.HasSuffix(u, ".mp4") || strings.HasSuffix(u, ".gif") {
			return []string{u}
		}
	}

	return p.ImageURLs
}

// Pixiv previews pixiv artworks through the phixiv metadata proxy. Pages are
// zero-based.
type Pixiv struct {
	base
}

// NewPixiv creates the Pixiv scraper backed by the artwork info proxy.
func NewPixiv(fetcher Fetcher, logger *zerolog.Logger, opts ...Option) *Pixiv {
	return &Pixiv{base: newBase(preview.SourcePixiv, pixivColor, fetcher, logger, pixivDefaultBase, opts)}
}

// Name returns the display name.
func (p *Pixiv) Name() string { return "Pixiv" }

// Match extracts the artwork id from an artworks link.
func (p *Pixiv) Match(text string) (string, bool) {
	m := pixivLink.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// Preview renders the artwork card for the first link in text.
func (p *Pixiv) Preview(ctx context.Context, text string) (preview.Preview, bool) {
	id, ok := p.Match(text)
	if !ok {
		return preview.Preview{}, false
	}

	return p.View(ctx, id, 0), true
}

// PreviewID renders the artwork card for id.
func (p *Pixiv) PreviewID(ctx context.Context, id string) preview.Preview {
	return p.View(ctx, id, 0)
}

// View renders one image of a multi-page artwork. page is 0-based.
func (p *Pixiv) View(ctx context.Context, id string, page int) preview.Preview {
	if emptyID(id) {
		return preview.Failed(p.source, p.color, invalidIDMessage)
	}

	var info pixivInfo

	if err := p.fetcher.FetchJSON(ctx, p.url("/api/info?id="+id), &info); err != nil {
		err = pixivStatus.describe(fmt.Errorf("fetch pixiv info %s: %w", id, err))

		switch apperrors.KindOf(err) {
		case apperrors.KindRejected, apperrors.KindNotFound:
			return p.fail(id, err, "Failed to fetch Pixiv data.")
		default:
			p.logger.Warn().Err(err).Str(logFieldContentID, id).Msg("pixiv metadata failed, using pixiv.cat")
			observability.PreviewsRendered.WithLabelValues(string(p.source), observability.OutcomeFallback).Inc()

			return p.fallback(id)
		}
	}

	images := info.images(id)
	total := len(images)
	current := preview.Clamp(page, total, 0)

	title := htmlutils.DecodeEntities(info.Title)
	if title == "" {
		title = "Untitled"
	}

	author := htmlutils.DecodeEntities(info.AuthorName)
	if author == "" {
		author = "Unknown Artist"
	}

	components := []ui.Component{
		ui.Media(images[current], false),
		ui.Text(fmt.Sprintf("### [%s](%s)\nby **%s**", title, pixivArtworkLink(id), author)),
	}

	if desc := htmlutils.Cut(htmlutils.StripTags(info.Description), htmlutils.DescriptionLimit); desc != "" {
		components = append(components, ui.Text(desc))
	}

	if tags := htmlutils.TagBlock(info.Tags); tags != "" {
		components = append(components, ui.Text(tags))
	}

	components = append(components, ui.Text(pixivDisclaimer))
	components = append(components, p.navigation(p.pager(id, current, total, 0))...)

	return preview.New(p.source, p.color, components...).WithNSFW(info.XRestrict > 0)
}

// fallback renders the bare pixiv.cat image when metadata is unavailable.
func (p *Pixiv) fallback(id string) preview.Preview {
	return preview.New(p.source, p.color,
		ui.Media(pixivCatImage(id), false),
		ui.Text(fmt.Sprintf("### [Artwork %s](%s)\n(Metadata fetch failed, showing preview from pixiv.cat)", id, pixivArtworkLink(id))),
	)
}

func pixivArtworkLink(id string) string {
	return pixivSite + "/artworks/" + id
}

func pixivCatImage(id string) string {
	return pixivCatHost + "/" + id + ".jpg"
}
