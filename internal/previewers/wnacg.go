package previewers

import (
	"context"
	"fmt"
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
	wnacgColor       = 0x9B59B6
	wnacgDefaultBase = "https://wnacg.com"
	wnacgSite        = "https://wnacg.com"

	// wnacgMaxWalk bounds the view pages fetched per request when an album
	// has no page selector and pages are reached by following next links.
	wnacgMaxWalk    = 10
	wnacgTrailScope = "trail:"
)

var wnacgLink = regexp.MustCompile(`https?://(?:www\.)?wnacg\.com/photos-(?:index|slide)-aid-(\d+)\.html`)

var (
	wnacgTitle     = chain("title", `(?s)<h2[^>]*>(.*?)</h2>`)
	wnacgUploader  = chain("uploader", `(?s)<div class="asTBcell uwuinfo">.*?<a[^>]+>([^<]+)</a>`)
	wnacgPageCount = chain("page count", `頁數：(\d+)P`, `>(\d+)\s+張`)
	wnacgFirstView = chain("first page", `/photos-view-id-(\d+)\.html`)
	wnacgCover     = chain("cover", `(?s)<div class="[^"]*uwthumb[^"]*">.*?<img[^>]+src="([^"]+)"`)
	wnacgTags      = chain("tags", `<a[^>]+href="/albums-index-tag-[^"]+\.html"[^>]*>(.*?)</a>`)

	wnacgImage      = chain("image source", `<img[^>]+id="picarea"[^>]+src="([^"]+)"`, `<img[^>]+src="([^"]+)"[^>]+id="picarea"`)
	wnacgPageLabel  = regexp.MustCompile(`class="newpagelabel"><b>(\d+)</b>/(\d+)<`)
	wnacgBreadcrumb = chain("breadcrumb", `(?s)<div[^>]+class="png bread">.*?<a[^>]+>(.*?)</a>`)
	wnacgPageSelect = chain("page list", `(?is)<select[^>]+class="pageselect"[^>]*>(.*?)</select>`)
	wnacgOption     = regexp.MustCompile(`(?i)<option[^>]+value="(\d+)"`)
	wnacgNext       = chain("next page",
		`<a[^>]+href="/photos-view-id-(\d+)\.html"[^>]*>\s*<img[^>]+id="picarea"`,
		`<a[^>]+href="/photos-view-id-(\d+)\.html"[^>]*>[^<]*下一[頁页]`,
	)
)

var wnacgStatus = statusMessages{
	rejected: apperrors.Rejected("WNACG").Message,
	notFound: "Content Not Found (404). This gallery might have been deleted.",
}

type wnacgAlbum struct {
	title     string
	uploader  string
	total     int
	tags      []string
	firstView string
	cover     string
}

func parseWNACGAlbum(html string) wnacgAlbum {
	a := wnacgAlbum{
		title:     htmlutils.CleanText(wnacgTitle.or(html, "Untitled")),
		uploader:  strings.TrimSpace(wnacgUploader.or(html, "Unknown")),
		total:     atoiDefault(wnacgPageCount.or(html, ""), 0),
		firstView: wnacgFirstView.or(html, ""),
		cover:     htmlutils.ResolveURL(htmlutils.DecodeEntities(wnacgCover.or(html, "")), wnacgSite),
	}

	seen := make(map[string]struct{})

	for _, m := range wnacgTags.findAll(html) {
		tag := htmlutils.CleanText(m[1])
		if _, ok := seen[tag]; ok || tag == "" {
			continue
		}

		seen[tag] = struct{}{}
		a.tags = append(a.tags, tag)
	}

	return a
}

type wnacgView struct {
	image   string
	title   string
	current int
	total   int
	pages   []string
	next    string
}

func parseWNACGView(html string) (wnacgView, error) {
	raw, err := wnacgImage.require(html)
	if err != nil {
		return wnacgView{}, err
	}

	v := wnacgView{
		image:   htmlutils.ResolveURL(htmlutils.DecodeEntities(raw), wnacgSite),
		title:   htmlutils.CleanText(wnacgBreadcrumb.or(html, "Viewing Gallery")),
		current: 1,
		next:    wnacgNext.or(html, ""),
	}

	if m := wnacgPageLabel.FindStringSubmatch(html); m != nil {
		v.current = atoiDefault(m[1], 1)
		v.total = atoiDefault(m[2], 0)
	}

	if sel, ok := wnacgPageSelect.find(html); ok {
		for _, m := range wnacgOption.FindAllStringSubmatch(sel, -1) {
			v.pages = append(v.pages, m[1])
		}
	}

	return v, nil
}

// WNACG previews wnacg.com albums. Pages are addressed by view id upstream,
// so the album's ordered view ids are resolved once and kept in a PageCache.
type WNACG struct {
	base
	pages *PageCache
}

// NewWNACG creates the WNACG scraper. Without WithPageCache it keeps a
// private cache.
func NewWNACG(fetcher Fetcher, logger *zerolog.Logger, opts ...Option) *WNACG {
	w := &WNACG{base: newBase(preview.SourceWNACG, wnacgColor, fetcher, logger, wnacgDefaultBase, opts)}

	w.pages = w.opts.pageCache
	if w.pages == nil {
		w.pages = NewPageCache(defaultPageCacheTTL, defaultPageCacheMaxEntries)
	}

	return w
}

// Name returns the display name.
func (w *WNACG) Name() string { return "WNACG" }

// Match extracts the album id from an index or slide link.
func (w *WNACG) Match(text string) (string, bool) {
	m := wnacgLink.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// Preview renders the album card for the first link in text.
func (w *WNACG) Preview(ctx context.Context, text string) (preview.Preview, bool) {
	id, ok := w.Match(text)
	if !ok {
		return preview.Preview{}, false
	}

	return w.PreviewID(ctx, id), true
}

// PreviewID renders the album card for id.
func (w *WNACG) PreviewID(ctx context.Context, id string) preview.Preview {
	if emptyID(id) {
		return preview.Failed(w.source, w.color, invalidIDMessage)
	}

	a, err := w.album(ctx, id)
	if err != nil {
		return w.fail(id, err, "Failed to fetch WNACG metadata.")
	}

	var components []ui.Component
	if a.cover != "" {
		components = append(components, ui.Media(a.cover, false))
	}

	components = append(components,
		ui.Text(fmt.Sprintf("### [%s](%s)\nUploaded by **%s** • **%dP**", a.title, wnacgAlbumLink(id), a.uploader, a.total)),
	)

	if tags := htmlutils.TagBlock(a.tags); tags != "" {
		components = append(components, ui.Text(tags))
	}

	if row, ok := preview.NavigationRow(w.pager(id, 1, a.total, 1)); ok {
		components = append(components, row)
	}

	components = append(components, preview.ViewRow(w.source, id, 1))

	return preview.New(w.source, w.color, components...).WithNSFW(true)
}

// View renders one page of the album. page is 1-based and clamped.
func (w *WNACG) View(ctx context.Context, id string, page int) preview.Preview {
	if emptyID(id) {
		return preview.Failed(w.source, w.color, invalidIDMessage)
	}

	if _, walking := w.pages.Get(wnacgTrailScope + id); walking {
		return w.walkView(ctx, id, page)
	}

	pages, err := w.pages.Resolve(ctx, id, func(ctx context.Context) ([]string, error) {
		return w.resolvePages(ctx, id)
	})
	if err != nil {
		return w.fail(id, err, "Failed to load image.")
	}

	if len(pages) == 0 {
		return w.walkView(ctx, id, page)
	}

	current := preview.Clamp(page, len(pages), 1)

	v, err := w.view(ctx, id, pages[current-1])
	if err != nil {
		return w.fail(id, err, "Failed to load image.")
	}

	w.logger.Debug().Str(logFieldContentID, id).Int(logFieldPage, current).Str("view_id", pages[current-1]).Msg("wnacg page")

	components := append(w.pageComponents(id, v, current, len(pages)), w.navigation(w.pager(id, current, len(pages), 1))...)

	return preview.New(w.source, w.color, components...).WithNSFW(true)
}

// walkView serves albums whose view pages carry no page selector. Pages are
// reached by following next links from the last view id already known for
// the album; the known ids are kept in the page cache.
func (w *WNACG) walkView(ctx context.Context, id string, page int) preview.Preview {
	a, err := w.album(ctx, id)
	if err != nil {
		return w.fail(id, err, "Failed to load image.")
	}

	if a.firstView == "" {
		return w.fail(id, errNoPages, "Failed to load image.")
	}

	trail, ok := w.pages.Get(wnacgTrailScope + id)
	if !ok {
		trail = []string{a.firstView}
	}

	total := a.total
	target := preview.Clamp(page, total, 1)

	if target <= len(trail) {
		v, err := w.view(ctx, id, trail[target-1])
		if err != nil {
			return w.fail(id, err, "Failed to load image.")
		}

		return w.walkedPage(id, v, target, total)
	}

	current := len(trail)

	v, err := w.view(ctx, id, trail[current-1])
	if err != nil {
		return w.fail(id, err, "Failed to load image.")
	}

	walked := append([]string(nil), trail...)

	for hops := 0; current < target && v.next != "" && hops < wnacgMaxWalk; hops++ {
		next, err := w.view(ctx, id, v.next)
		if err != nil {
			return w.fail(id, err, "Failed to load image.")
		}

		walked = append(walked, v.next)
		v = next
		current++
	}

	if len(walked) > len(trail) {
		w.pages.store(wnacgTrailScope+id, walked)
	}

	if current < target && v.next == "" && total <= 0 {
		// Ran out of next links: this is the last page.
		total = current
	}

	w.logger.Debug().Str(logFieldContentID, id).Int(logFieldPage, current).Int("known_pages", len(walked)).Msg("wnacg page by next links")

	return w.walkedPage(id, v, current, total)
}

func (w *WNACG) walkedPage(id string, v wnacgView, current, total int) preview.Preview {
	if total <= 0 {
		total = v.total
	}

	components := w.pageComponents(id, v, current, total)

	if row, ok := preview.NavigationRow(w.pager(id, current, total, 1)); ok {
		components = append(components, row)
	}

	return preview.New(w.source, w.color, components...).WithNSFW(true)
}

func (w *WNACG) pageComponents(id string, v wnacgView, current, total int) []ui.Component {
	totalLabel := "?"
	if total > 0 {
		totalLabel = fmt.Sprint(total)
	}

	return []ui.Component{
		ui.Media(v.image, false),
		ui.Text(fmt.Sprintf("### [%s](%s)\nPage **%d** / **%s**", v.title, wnacgAlbumLink(id), current, totalLabel)),
	}
}

// resolvePages walks from the album index to its first view page and reads
// the ordered view ids from the page selector.
func (w *WNACG) resolvePages(ctx context.Context, id string) ([]string, error) {
	a, err := w.album(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.firstView == "" {
		return nil, nil
	}

	v, err := w.view(ctx, id, a.firstView)
	if err != nil {
		return nil, err
	}

	w.logger.Debug().Str(logFieldContentID, id).Int("pages", len(v.pages)).Msg("wnacg page list resolved")

	return v.pages, nil
}

func (w *WNACG) album(ctx context.Context, id string) (wnacgAlbum, error) {
	body, err := w.fetcher.Fetch(ctx, w.url("/photos-index-aid-"+id+".html"))
	if err != nil {
		return wnacgAlbum{}, wnacgStatus.describe(fmt.Errorf("fetch wnacg album %s: %w", id, err))
	}

	return parseWNACGAlbum(string(body)), nil
}

func (w *WNACG) view(ctx context.Context, id, viewID string) (wnacgView, error) {
	body, err := w.fetcher.Fetch(ctx, w.url("/photos-view-id-"+viewID+".html"), fetch.WithReferer(w.url("/photos-index-aid-"+id+".html")))
	if err != nil {
		return wnacgView{}, wnacgStatus.describe(fmt.Errorf("fetch wnacg view %s: %w", viewID, err))
	}

	return parseWNACGView(string(body))
}

func wnacgAlbumLink(id string) string {
	return wnacgSite + "/photos-index-aid-" + id + ".html"
}
