package previewers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
	"github.com/meoww-bot/meoww/internal/platform/htmlutils"
)

const (
	hanimeColor        = 0xFF1744
	hanimeErrorColor   = 0xFF0000
	hanimeDefaultBase  = "https://hanime1.me"
	hanimeSite         = "https://hanime1.me"
	hanimeDefaultThumb = "https://hanime1.me/static/default-thumb.jpg"
	hanimeMaxTags      = 15
)

var hanimeLink = regexp.MustCompile(`https?://(?:www\.)?hanime1\.me/watch\?v=(\d+)`)

var (
	hanimeTitle     = chain("title", `(?is)<title>(.*?)</title>`)
	hanimeThumbnail = chain("thumbnail",
		`(?i)<meta\s+property="og:image"\s+content="([^"]+)"`,
		`(?i)<meta\s+content="([^"]+)"\s+property="og:image"`,
		`(?i)poster="([^"]+)"`,
	)
	hanimeTags        = chain("tags", `https://hanime1\.me/search\?tags%5B%5D=([^&"]+)`)
	hanimeMP4         = regexp.MustCompile(`(?i)https?://[^\s"'<>|]+\.mp4[^\s"'<>|]*`)
	hanimeTitleSuffix = regexp.MustCompile(`\s*-\s*H動漫.*$`)
)

var hanimeStatus = statusMessages{
	rejected: "Access Denied (403). Site might be behind Cloudflare.",
	notFound: "Video not found (404).",
}

// hanimeVideoPreference lists mp4 quality markers in order of preference.
var hanimeVideoPreference = []string{"720p", "1080p"}

type hanimeVideo struct {
	title     string
	thumbnail string
	tags      []string
	videoURL  string
}

func parseHanimeWatch(html string) hanimeVideo {
	title := htmlutils.CleanText(hanimeTitle.or(html, ""))
	title = strings.TrimSpace(hanimeTitleSuffix.ReplaceAllString(title, ""))

	if title == "" {
		title = "Unknown Title"
	}

	v := hanimeVideo{
		title:     title,
		thumbnail: htmlutils.DecodeEntities(hanimeThumbnail.or(html, hanimeDefaultThumb)),
	}

	for _, m := range hanimeTags.findAll(html) {
		tag, err := url.QueryUnescape(m[1])
		if err != nil {
			tag = m[1]
		}

		if containsString(v.tags, tag) {
			continue
		}

		v.tags = append(v.tags, tag)
		if len(v.tags) == hanimeMaxTags {
			break
		}
	}

	return v
}

// pickHanimeVideo returns the preferred mp4 link on a download page.
func pickHanimeVideo(html string) string {
	links := hanimeMP4.FindAllString(html, -1)
	if len(links) == 0 {
		return ""
	}

	for _, quality := range hanimeVideoPreference {
		for _, l := range links {
			if strings.Contains(l, quality) {
				return l
			}
		}
	}

	return links[0]
}

// Hanime previews hanime1.me videos. The watch page carries the metadata and
// the download page the playable mp4 link; both are fetched concurrently.
type Hanime struct {
	base
}

// NewHanime creates the hanime1.me video scraper.
func NewHanime(fetcher Fetcher, logger *zerolog.Logger, opts ...Option) *Hanime {
	return &Hanime{base: newBase(preview.SourceHanime, hanimeColor, fetcher, logger, hanimeDefaultBase, opts)}
}

// Name returns the display name.
func (h *Hanime) Name() string { return "Hanime1" }

// Match extracts the video id from a watch link.
func (h *Hanime) Match(text string) (string, bool) {
	m := hanimeLink.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// Preview renders the video card for the first watch link in text.
func (h *Hanime) Preview(ctx context.Context, text string) (preview.Preview, bool) {
	id, ok := h.Match(text)
	if !ok {
		return preview.Preview{}, false
	}

	return h.PreviewID(ctx, id), true
}

// PreviewID fetches the watch and download pages concurrently and renders the video card.
func (h *Hanime) PreviewID(ctx context.Context, id string) preview.Preview {
	if emptyID(id) {
		return preview.Failed(h.source, hanimeErrorColor, invalidIDMessage)
	}

	v, err := h.video(ctx, id)
	if err != nil {
		p := h.fail(id, err, "Failed to fetch video info")
		p.Color = hanimeErrorColor

		return p
	}

	media := v.videoURL
	if media == "" {
		media = v.thumbnail
	}

	components := []ui.Component{
		ui.Media(media, false),
		ui.Text(fmt.Sprintf("### [%s](%s)\nID: `%s`", v.title, hanimeWatchLink(id), id)),
	}

	if tags := htmlutils.TagBlock(v.tags); tags != "" {
		components = append(components, ui.Text(tags))
	}

	return preview.New(h.source, h.color, components...).WithNSFW(true)
}

func (h *Hanime) video(ctx context.Context, id string) (hanimeVideo, error) {
	var watch, download []byte

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		body, err := h.fetcher.Fetch(gctx, h.url("/watch?v="+id))
		if err != nil {
			return hanimeStatus.describe(fmt.Errorf("fetch hanime watch %s: %w", id, err))
		}

		watch = body

		return nil
	})

	g.Go(func() error {
		body, err := h.fetcher.Fetch(gctx, h.url("/download?v="+id))
		if err != nil {
			// The download page is optional; the thumbnail stands in for the video.
			h.logger.Debug().Err(err).Str(logFieldContentID, id).Msg("hanime download page unavailable")

			return nil
		}

		download = body

		return nil
	})

	if err := g.Wait(); err != nil {
		return hanimeVideo{}, err
	}

	v := parseHanimeWatch(string(watch))
	v.videoURL = pickHanimeVideo(string(download))

	return v, nil
}

func hanimeWatchLink(id string) string {
	return hanimeSite + "/watch?v=" + id
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
