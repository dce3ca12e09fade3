package previewers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	apperrors "github.com/meoww-bot/meoww/internal/core/errors"
	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
	"github.com/meoww-bot/meoww/internal/platform/htmlutils"
)

const (
	pornhubColor       = 0xFFA31A
	pornhubErrorColor  = 0xFF0000
	pornhubDefaultBase = "https://www.pornhub.com"
	pornhubSite        = "https://www.pornhub.com"
	pornhubName        = "Pornhub (Videos & Models)"
	pornhubDateLayout  = "Jan 2, 2006"
	pornhubWatchAction = "http://schema.org/WatchAction"
	unknownValue       = "Unknown"
)

var (
	pornhubVideoLink = regexp.MustCompile(`https?://(?:[a-zA-Z0-9-]+\.)?pornhub\.com/view_video\.php\?viewkey=([a-zA-Z0-9]+)`)
	pornhubModelLink = regexp.MustCompile(`https?://(?:[a-zA-Z0-9-]+\.)?pornhub\.com/model/([a-zA-Z0-9-_]+)`)
)

var (
	pornhubJSONLD = chain("video metadata", `(?s)<script type="application/ld\+json">(.*?)</script>`)

	pornhubModelName   = chain("model name", `(?s)<span[^>]*?class="[^"]*?js-profile-header-title[^"]*?"[^>]*?>(.*?)</span>`)
	pornhubSubscribers = chain("subscribers", `(?s)<span class="[^"]*?bold[^"]*?">([\d\.KkMm]+)</span>\s*<span>Subscribers</span>`)
	pornhubAvatar      = chain("avatar", `<img[^>]*?id="getAvatar"[^>]*?src="(.*?)"`)
	pornhubModelViews  = chain("video views", `(?i)<span>Video Views:</span>\s*<span[^>]*?>([\d,KkMm\.]+)`)
)

var pornhubStatus = statusMessages{
	rejected: "Access Denied (403). Pornhub refused the request.",
	notFound: "Content not found (404).",
}

// flexString decodes a JSON-LD value that may be a string, a number, an array
// or an object with a name.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())

		return nil
	}

	var list []flexString
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) > 0 {
			*f = list[0]
		}

		return nil
	}

	var named struct {
		Name string `json:"name"`
	}

	if err := json.Unmarshal(data, &named); err != nil {
		return fmt.Errorf("decode json-ld value: %w", err)
	}

	*f = flexString(named.Name)

	return nil
}

type pornhubLD struct {
	Name         string     `json:"name"`
	Author       flexString `json:"author"`
	ThumbnailURL flexString `json:"thumbnailUrl"`
	UploadDate   string     `json:"uploadDate"`
	ContentURL   string     `json:"contentUrl"`
	Description  string     `json:"description"`
	Interactions []struct {
		Type  string     `json:"interactionType"`
		Count flexString `json:"userInteractionCount"`
	} `json:"interactionStatistic"`
}

func (ld pornhubLD) views() string {
	for _, s := range ld.Interactions {
		if s.Type == pornhubWatchAction && s.Count != "" {
			return groupDigits(string(s.Count))
		}
	}

	return unknownValue
}

func (ld pornhubLD) uploaded() string {
	if ld.UploadDate == "" {
		return "Unknown Date"
	}

	ts, err := dateparse.ParseAny(ld.UploadDate)
	if err != nil {
		return ld.UploadDate
	}

	return ts.Format(pornhubDateLayout)
}

// groupDigits adds thousands separators to plain integers and leaves
// anything else untouched.
func groupDigits(s string) string {
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return s
	}

	return counts.Sprintf("%d", n)
}

func parsePornhubVideo(html string) (pornhubLD, error) {
	raw, ok := pornhubJSONLD.find(html)
	if !ok {
		return pornhubLD{}, apperrors.NotFound("Video not found or is private")
	}

	var ld pornhubLD
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &ld); err != nil {
		return pornhubLD{}, &apperrors.ScrapeError{
			Kind:    apperrors.KindParse,
			Message: "Could not extract video metadata.",
			Err:     err,
		}
	}

	return ld, nil
}

type pornhubModel struct {
	name        string
	subscribers string
	views       string
	avatar      string
}

func parsePornhubModel(html string) (pornhubModel, error) {
	name, ok := pornhubModelName.find(html)
	if !ok || strings.TrimSpace(name) == "" {
		return pornhubModel{}, apperrors.NotFound("Model not found or profile is private")
	}

	return pornhubModel{
		name:        htmlutils.CleanText(name),
		subscribers: pornhubSubscribers.or(html, unknownValue),
		views:       pornhubModelViews.or(html, unknownValue),
		avatar:      htmlutils.DecodeEntities(pornhubAvatar.or(html, "")),
	}, nil
}

// PornhubVideo previews video pages from their JSON-LD block.
type PornhubVideo struct {
	base
}

// NewPornhubVideo creates the Pornhub video scraper.
func NewPornhubVideo(fetcher Fetcher, logger *zerolog.Logger, opts ...Option) *PornhubVideo {
	return &PornhubVideo{base: newBase(preview.SourcePHVideo, pornhubColor, fetcher, logger, pornhubDefaultBase, opts)}
}

// Name returns the display name.
func (p *PornhubVideo) Name() string { return pornhubName }

// Match extracts the viewkey from a video link.
func (p *PornhubVideo) Match(text string) (string, bool) {
	m := pornhubVideoLink.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// Preview renders the video card for the first video link in text.
func (p *PornhubVideo) Preview(ctx context.Context, text string) (preview.Preview, bool) {
	key, ok := p.Match(text)
	if !ok {
		return preview.Preview{}, false
	}

	return p.PreviewID(ctx, key), true
}

// PreviewID renders the video card for viewkey key.
func (p *PornhubVideo) PreviewID(ctx context.Context, key string) preview.Preview {
	if emptyID(key) {
		return preview.Failed(p.source, pornhubErrorColor, invalidIDMessage)
	}

	body, err := p.fetcher.Fetch(ctx, p.url("/view_video.php?viewkey="+key))
	if err != nil {
		return p.failed(key, pornhubStatus.describe(fmt.Errorf("fetch pornhub video %s: %w", key, err)))
	}

	ld, err := parsePornhubVideo(string(body))
	if err != nil {
		return p.failed(key, err)
	}

	link := ld.ContentURL
	if link == "" {
		link = pornhubSite + "/view_video.php?viewkey=" + key
	}

	author := string(ld.Author)
	if author == "" {
		author = unknownValue
	}

	var components []ui.Component
	if ld.ThumbnailURL != "" {
		components = append(components, ui.Media(string(ld.ThumbnailURL), false))
	}

	components = append(components, ui.Text(fmt.Sprintf("### [%s](%s)\n**%s Views** • %s\nby **%s**",
		htmlutils.DecodeEntities(ld.Name), link, ld.views(), ld.uploaded(), htmlutils.DecodeEntities(author))))

	return preview.New(p.source, p.color, components...).WithNSFW(true)
}

func (p *PornhubVideo) failed(key string, err error) preview.Preview {
	out := p.fail(key, err, "Failed to fetch video info")
	out.Color = pornhubErrorColor

	return out
}

// PornhubModel previews model profile pages.
type PornhubModel struct {
	base
}

// NewPornhubModel creates the Pornhub model profile scraper.
func NewPornhubModel(fetcher Fetcher, logger *zerolog.Logger, opts ...Option) *PornhubModel {
	return &PornhubModel{base: newBase(preview.SourcePHModel, pornhubColor, fetcher, logger, pornhubDefaultBase, opts)}
}

// Name returns the display name.
func (p *PornhubModel) Name() string { return pornhubName }

// Match extracts the username from a model link.
func (p *PornhubModel) Match(text string) (string, bool) {
	m := pornhubModelLink.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// Preview renders the profile card for the first model link in text.
func (p *PornhubModel) Preview(ctx context.Context, text string) (preview.Preview, bool) {
	name, ok := p.Match(text)
	if !ok {
		return preview.Preview{}, false
	}

	return p.PreviewID(ctx, name), true
}

// PreviewID renders the profile card for username.
func (p *PornhubModel) PreviewID(ctx context.Context, username string) preview.Preview {
	if emptyID(username) {
		return preview.Failed(p.source, pornhubErrorColor, invalidIDMessage)
	}

	body, err := p.fetcher.Fetch(ctx, p.url("/model/"+username))
	if err != nil {
		return p.failed(username, pornhubStatus.describe(fmt.Errorf("fetch pornhub model %s: %w", username, err)))
	}

	m, err := parsePornhubModel(string(body))
	if err != nil {
		return p.failed(username, err)
	}

	var components []ui.Component
	if m.avatar != "" {
		components = append(components, ui.Media(m.avatar, false))
	}

	components = append(components, ui.Text(fmt.Sprintf("### [%s](%s/model/%s)\n**%s Subscribers** • **%s Video Views**",
		m.name, pornhubSite, username, m.subscribers, m.views)))

	return preview.New(p.source, p.color, components...).WithNSFW(true)
}

func (p *PornhubModel) failed(username string, err error) preview.Preview {
	out := p.fail(username, err, "Failed to fetch model info")
	out.Color = pornhubErrorColor

	return out
}
