package previewers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	apperrors "github.com/meoww-bot/meoww/internal/core/errors"
	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
	"github.com/meoww-bot/meoww/internal/platform/htmlutils"
)

const (
	nhentaiColor       = 0xED2553
	nhentaiDefaultBase = "https://nhentai.net"
	nhentaiSite        = "https://nhentai.net"
	nhentaiImageHost   = "https://i1.nhentai.net"
	nhentaiThumbHost   = "https://t1.nhentai.net"
	nhentaiMaxTags     = 15
)

var nhentaiLink = regexp.MustCompile(`https?://(?:www\.)?nhentai\.net/g/(\d+)/?`)

var nhentaiExt = map[string]string{
	"j": "jpg",
	"p": "png",
	"g": "gif",
	"w": "webp",
}

var nhentaiStatus = statusMessages{
	rejected: apperrors.Rejected("nHentai").Message,
	notFound: "Gallery not found (404).",
}

type nhentaiImage struct {
	Type   string `json:"t"`
	Width  int    `json:"w"`
	Height int    `json:"h"`
}

func (i nhentaiImage) ext() string {
	if ext, ok := nhentaiExt[i.Type]; ok {
		return ext
	}

	return "jpg"
}

// nhentaiTitle accepts both the object form and a bare string.
type nhentaiTitle struct {
	English  string `json:"english"`
	Japanese string `json:"japanese"`
	Pretty   string `json:"pretty"`
}

func (t *nhentaiTitle) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Pretty = s

		return nil
	}

	type plain nhentaiTitle

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode nhentai title: %w", err)
	}

	*t = nhentaiTitle(p)

	return nil
}

func (t nhentaiTitle) display(fallback string) string {
	switch {
	case t.Pretty != "":
		return htmlutils.DecodeEntities(t.Pretty)
	case t.English != "":
		return htmlutils.DecodeEntities(t.English)
	case t.Japanese != "":
		return htmlutils.DecodeEntities(t.Japanese)
	default:
		return fallback
	}
}

type nhentaiGallery struct {
	MediaID string       `json:"media_id"`
	Title   nhentaiTitle `json:"title"`
	Images  struct {
		Pages     []nhentaiImage `json:"pages"`
		Cover     nhentaiImage   `json:"cover"`
		Thumbnail nhentaiImage   `json:"thumbnail"`
	} `json:"images"`
	Tags []struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"tags"`
	NumPages int `json:"num_pages"`
}

func (g nhentaiGallery) pageCount() int {
	if g.NumPages > 0 {
		return g.NumPages
	}

	return len(g.Images.Pages)
}

func (g nhentaiGallery) tags() []string {
	var out []string

	for _, t := range g.Tags {
		if t.Type != "tag" {
			continue
		}

		out = append(out, t.Name)
		if len(out) == nhentaiMaxTags {
			break
		}
	}

	return out
}

// NHentai previews nhentai.net galleries through the public JSON API.
type NHentai struct {
	base
}

// NewNHentai creates the nhentai scraper.
func NewNHentai(fetcher Fetcher, logger *zerolog.Logger, opts ...Option) *NHentai {
	return &NHentai{base: newBase(preview.SourceNHentai, nhentaiColor, fetcher, logger, nhentaiDefaultBase, opts)}
}

// Name returns the display name.
func (n *NHentai) Name() string { return "nHentai" }

// Match extracts the gallery id from a gallery link.
func (n *NHentai) Match(text string) (string, bool) {
	m := nhentaiLink.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// Preview renders the gallery card for the first link in text.
func (n *NHentai) Preview(ctx context.Context, text string) (preview.Preview, bool) {
	id, ok := n.Match(text)
	if !ok {
		return preview.Preview{}, false
	}

	return n.PreviewID(ctx, id), true
}

// PreviewID renders the gallery card for id.
func (n *NHentai) PreviewID(ctx context.Context, id string) preview.Preview {
	if emptyID(id) {
		return preview.Failed(n.source, n.color, invalidIDMessage)
	}

	g, err := n.gallery(ctx, id)
	if err != nil {
		return n.fail(id, err, "Failed to fetch nHentai data.")
	}

	total := g.pageCount()
	cover := fmt.Sprintf("%s/galleries/%s/cover.%s", nhentaiThumbHost, g.MediaID, g.Images.Cover.ext())

	components := []ui.Component{
		ui.Media(cover, true),
		ui.Text(fmt.Sprintf("### [%s](%s)\n**%dP** • ID: `%s`", g.Title.display("nHentai "+id), nhentaiGalleryLink(id), total, id)),
	}

	if tags := htmlutils.TagBlock(g.tags()); tags != "" {
		components = append(components, ui.Text(tags))
	}

	if row, ok := preview.NavigationRow(n.pager(id, 1, total, 1)); ok {
		components = append(components, row)
	}

	components = append(components, preview.ViewRow(n.source, id, 1))

	return preview.New(n.source, n.color, components...).WithNSFW(true)
}

// View renders one gallery page. page is 1-based and clamped.
func (n *NHentai) View(ctx context.Context, id string, page int) preview.Preview {
	if emptyID(id) {
		return preview.Failed(n.source, n.color, invalidIDMessage)
	}

	g, err := n.gallery(ctx, id)
	if err != nil {
		return n.fail(id, err, "Failed to load image.")
	}

	total := g.pageCount()
	if total == 0 {
		return n.fail(id, errNoPages, "Failed to load image.")
	}

	current := preview.Clamp(page, total, 1)

	ext := "jpg"
	if current <= len(g.Images.Pages) {
		ext = g.Images.Pages[current-1].ext()
	}

	image := fmt.Sprintf("%s/galleries/%s/%d.%s", nhentaiImageHost, g.MediaID, current, ext)

	n.logger.Debug().Str(logFieldContentID, id).Int(logFieldPage, current).Msg("nhentai page")

	components := []ui.Component{
		ui.Media(image, true),
		ui.Text(fmt.Sprintf("### [%s](%s)\nPage **%d** / **%d**", g.Title.display("nHentai "+id), nhentaiGalleryLink(id), current, total)),
	}
	components = append(components, n.navigation(n.pager(id, current, total, 1))...)

	return preview.New(n.source, n.color, components...).WithNSFW(true)
}

func (n *NHentai) gallery(ctx context.Context, id string) (nhentaiGallery, error) {
	var g nhentaiGallery

	if err := n.fetcher.FetchJSON(ctx, n.url("/api/gallery/"+id), &g); err != nil {
		return nhentaiGallery{}, nhentaiStatus.describe(fmt.Errorf("fetch nhentai gallery %s: %w", id, err))
	}

	return g, nil
}

func nhentaiGalleryLink(id string) string {
	return nhentaiSite + "/g/" + id + "/"
}
