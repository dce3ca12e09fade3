package previewers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/meoww-bot/meoww/internal/core/errors"
	"github.com/meoww-bot/meoww/internal/core/fetch"
	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
	"github.com/meoww-bot/meoww/internal/platform/htmlutils"
)

const (
	jmcomicColor        = 0xFB7299
	jmcomicDefaultBase  = "https://18comic.vip"
	jmcomicSite         = "https://18comic.vip"
	jmcomicDefaultCDN   = "cdn-msp3.18comic.vip"
	jmcomicDefaultProxy = "https://enderdaniel.work/pic/transform?url="
	jmcomicMinSelectLen = 5
	jmcomicMaxPage      = 9999
)

var jmcomicLink = regexp.MustCompile(`https?://(?:www\.)?(?:18comic\.(?:vip|org|art|xyz)|jm-comic\.(?:me|top))/(photo|album)/(\d+)`)

var (
	jmcomicTitle = chain("title", `(?is)<title>(.*?)</title>`, `(?is)<h1[^>]*>(.*?)</h1>`)
	jmcomicCDN   = chain("image host", `(cdn-msp\d*\.18comic\.(?:vip|org|art|xyz|me|top))`)
	jmcomicPages = chain("page count",
		`(?i)total_pages\s*[=:]\s*(\d+)`,
		`var\s+total_pages\s*=\s*(\d+)`,
		`class="label">(\d+)頁`,
		`(\d+)\s*頁`,
	)

	jmcomicSelect      = regexp.MustCompile(`(?is)<select[^>]*>(.*?)</select>`)
	jmcomicOption      = regexp.MustCompile(`(?i)<option`)
	jmcomicTitleSuffix = regexp.MustCompile(`(?i)\s*\|\s*18Comic\s*天堂巴比倫`)
	jmcomicPageSuffix  = regexp.MustCompile(`\s*-\s*第\d+頁`)
)

var jmcomicStatus = statusMessages{
	rejected: apperrors.Rejected("18Comic").Message,
	notFound: "Album not found (404).",
}

var jmcomicHeaders = []fetch.RequestOption{
	fetch.WithHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"),
	fetch.WithHeader("Accept-Language", "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.7"),
	fetch.WithHeader("Cache-Control", "no-cache"),
	fetch.WithHeader("Pragma", "no-cache"),
	fetch.WithHeader("Sec-Ch-Ua", `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`),
	fetch.WithHeader("Sec-Ch-Ua-Mobile", "?0"),
	fetch.WithHeader("Sec-Ch-Ua-Platform", `"Windows"`),
	fetch.WithHeader("Sec-Fetch-Dest", "document"),
	fetch.WithHeader("Sec-Fetch-Mode", "navigate"),
	fetch.WithHeader("Sec-Fetch-Site", "none"),
	fetch.WithHeader("Sec-Fetch-User", "?1"),
	fetch.WithHeader("Upgrade-Insecure-Requests", "1"),
}

type jmcomicPage struct {
	title string
	host  string
	ext   string
	// total is 0 when the page count could not be found.
	total int
}

func parseJMComicPage(id, html string) jmcomicPage {
	title := htmlutils.CleanText(jmcomicTitle.or(html, ""))
	title = jmcomicTitleSuffix.ReplaceAllString(title, "")
	title = jmcomicPageSuffix.ReplaceAllString(title, "")

	if i := strings.Index(title, "|"); i >= 0 {
		title = title[:i]
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "JMComic " + id
	}

	ext := "jpg"
	if strings.Contains(html, ".webp") || strings.Contains(html, "webp: true") {
		ext = "webp"
	}

	return jmcomicPage{
		title: title,
		host:  jmcomicCDN.or(html, jmcomicDefaultCDN),
		ext:   ext,
		total: jmcomicPageCount(html),
	}
}

// jmcomicPageCount reads the page selector, then falls back to inline markers.
func jmcomicPageCount(html string) int {
	for _, m := range jmcomicSelect.FindAllStringSubmatch(html, -1) {
		if n := len(jmcomicOption.FindAllStringIndex(m[1], -1)); n > jmcomicMinSelectLen {
			return n
		}
	}

	return atoiDefault(jmcomicPages.or(html, ""), 0)
}

// JMComic previews 18comic albums by scraping the reader page.
type JMComic struct {
	base
}

// NewJMComic creates the 18Comic scraper.
func NewJMComic(fetcher Fetcher, logger *zerolog.Logger, opts ...Option) *JMComic {
	j := &JMComic{base: newBase(preview.SourceJMComic, jmcomicColor, fetcher, logger, jmcomicDefaultBase, opts)}
	if j.opts.imageProxy == "" {
		j.opts.imageProxy = jmcomicDefaultProxy
	}

	return j
}

// Name returns the display name.
func (j *JMComic) Name() string { return "18Comic" }

// Match extracts the album id from an album or photo link.
func (j *JMComic) Match(text string) (string, bool) {
	m := jmcomicLink.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	return m[2], true
}

// Preview renders the album card for the first link in text.
func (j *JMComic) Preview(ctx context.Context, text string) (preview.Preview, bool) {
	m := jmcomicLink.FindStringSubmatch(text)
	if m == nil {
		return preview.Preview{}, false
	}

	return j.preview(ctx, m[2], m[1]), true
}

// PreviewID renders the album card for id.
func (j *JMComic) PreviewID(ctx context.Context, id string) preview.Preview {
	return j.preview(ctx, id, "photo")
}

func (j *JMComic) preview(ctx context.Context, id, kind string) preview.Preview {
	if emptyID(id) {
		return preview.Failed(j.source, j.color, invalidIDMessage)
	}

	page, err := j.page(ctx, id)
	if err != nil {
		return j.fail(id, err, "Failed to fetch 18Comic data.")
	}

	count := ""
	if page.total > 0 {
		count = fmt.Sprintf("**%dP** • ", page.total)
	}

	link := fmt.Sprintf("%s/%s/%s", jmcomicSite, kind, id)

	components := []ui.Component{
		ui.Media(j.image(page, id, 1), false),
		ui.Text(fmt.Sprintf("### [%s](%s)\n%sID: `%s`", page.title, link, count, id)),
	}

	if row, ok := preview.NavigationRow(j.pager(id, 1, page.total, 1)); ok {
		components = append(components, row)
	}

	components = append(components, preview.ViewRow(j.source, id, 1))

	return preview.New(j.source, j.color, components...).WithNSFW(true)
}

// View renders one page of the album through the image proxy. page is 1-based.
func (j *JMComic) View(ctx context.Context, id string, page int) preview.Preview {
	if emptyID(id) {
		return preview.Failed(j.source, j.color, invalidIDMessage)
	}

	info, err := j.page(ctx, id)
	if err != nil {
		return j.fail(id, err, "Failed to load image.")
	}

	current := preview.Clamp(page, info.total, 1)
	if info.total == 0 && current > jmcomicMaxPage {
		current = jmcomicMaxPage
	}

	total := "?"
	if info.total > 0 {
		total = fmt.Sprint(info.total)
	}

	j.logger.Debug().Str(logFieldContentID, id).Int(logFieldPage, current).Msg("jmcomic page")

	components := []ui.Component{
		ui.Media(j.image(info, id, current), false),
		ui.Text(fmt.Sprintf("### [%s](%s/photo/%s)\nPage **%d** / **%s**", info.title, jmcomicSite, id, current, total)),
	}
	components = append(components, j.navigation(j.pager(id, current, info.total, 1))...)

	return preview.New(j.source, j.color, components...).WithNSFW(true)
}

func (j *JMComic) page(ctx context.Context, id string) (jmcomicPage, error) {
	body, err := j.fetcher.Fetch(ctx, j.url("/photo/"+id), jmcomicHeaders...)
	if err != nil {
		return jmcomicPage{}, jmcomicStatus.describe(fmt.Errorf("fetch jmcomic %s: %w", id, err))
	}

	return parseJMComicPage(id, string(body)), nil
}

// image returns the proxied URL of a page; the proxy undoes the CDN's tile scrambling.
func (j *JMComic) image(p jmcomicPage, id string, page int) string {
	raw := fmt.Sprintf("https://%s/media/photos/%s/%05d.%s", p.host, id, page, p.ext)

	return j.opts.imageProxy + url.QueryEscape(raw)
}
