package previewers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
	"github.com/meoww-bot/meoww/internal/platform/htmlutils"
)

const (
	twitterColor       = 0x1DA1F2
	twitterErrorColor  = 0xFF0000
	twitterDefaultBase = "https://api.fxtwitter.com"
	twitterDateLayout  = "Jan 2, 2006 15:04 MST"
)

var twitterLink = regexp.MustCompile(`https?://(?:www\.)?(?:x\.com|twitter\.com)/[a-zA-Z0-9_]+/status/([0-9]+)`)

var twitterStatus = statusMessages{
	notFound: "Tweet not found (404). It may have been deleted or made private.",
}

var counts = message.NewPrinter(language.English)

type fxTweetResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Tweet   *fxTweet `json:"tweet"`
}

type fxTweet struct {
	URL    string `json:"url"`
	Text   string `json:"text"`
	Author struct {
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
	} `json:"author"`
	Media *struct {
		All []struct {
			Type         string `json:"type"`
			URL          string `json:"url"`
			ThumbnailURL string `json:"thumbnail_url"`
		} `json:"all"`
	} `json:"media"`
	Replies           int    `json:"replies"`
	Retweets          int    `json:"retweets"`
	Likes             int    `json:"likes"`
	Views             *int   `json:"views"`
	CreatedAt         string `json:"created_at"`
	PossiblySensitive bool   `json:"possibly_sensitive"`
}

func (t fxTweet) stats() string {
	views := "N/A"
	if t.Views != nil {
		views = counts.Sprintf("%d", *t.Views)
	}

	return counts.Sprintf("❤️ **%d**  🔁 **%d**  💬 **%d**  👁️ **%s**\n%s",
		t.Likes, t.Retweets, t.Replies, views, tweetTime(t.CreatedAt))
}

func tweetTime(raw string) string {
	ts, err := dateparse.ParseAny(raw)
	if err != nil {
		return raw
	}

	return ts.UTC().Format(twitterDateLayout)
}

// Twitter previews X/Twitter posts through the fxtwitter API. Posts have no
// pages.
type Twitter struct {
	base
}

// NewTwitter creates the tweet scraper.
func NewTwitter(fetcher Fetcher, logger *zerolog.Logger, opts ...Option) *Twitter {
	return &Twitter{base: newBase(preview.SourceTwitter, twitterColor, fetcher, logger, twitterDefaultBase, opts)}
}

// Name returns the display name.
func (t *Twitter) Name() string { return "Twitter / X" }

// Match extracts the status id from a twitter.com or x.com link.
func (t *Twitter) Match(text string) (string, bool) {
	m := twitterLink.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// Preview renders the tweet for the first status link in text.
func (t *Twitter) Preview(ctx context.Context, text string) (preview.Preview, bool) {
	id, ok := t.Match(text)
	if !ok {
		return preview.Preview{}, false
	}

	return t.PreviewID(ctx, id), true
}

// PreviewID renders the tweet with status id.
func (t *Twitter) PreviewID(ctx context.Context, id string) preview.Preview {
	if emptyID(id) {
		return preview.Failed(t.source, twitterErrorColor, invalidIDMessage)
	}

	var resp fxTweetResponse

	if err := t.fetcher.FetchJSON(ctx, t.url("/status/"+id), &resp); err != nil {
		return t.failed(id, twitterStatus.describe(fmt.Errorf("fetch tweet %s: %w", id, err)))
	}

	if resp.Code != http.StatusOK || resp.Tweet == nil {
		msg := resp.Message
		if msg == "" {
			msg = "Unknown error"
		}

		t.logger.Warn().Str(logFieldContentID, id).Int(logFieldStatus, resp.Code).Str("message", msg).Msg("fxtwitter returned an error")

		return preview.Failed(t.source, twitterErrorColor, msg)
	}

	tweet := resp.Tweet

	components := []ui.Component{
		ui.Text(fmt.Sprintf("**%s** (@%s)", htmlutils.DecodeEntities(tweet.Author.Name), tweet.Author.ScreenName)),
	}

	if text := htmlutils.Truncate(htmlutils.DecodeEntities(tweet.Text), htmlutils.DescriptionLimit); text != "" {
		components = append(components, ui.Text(text))
	}

	if tweet.Media != nil && len(tweet.Media.All) > 0 {
		gallery := ui.MediaGallery{}
		for _, m := range tweet.Media.All {
			gallery.Items = append(gallery.Items, ui.MediaItem{URL: m.URL})
		}

		components = append(components, gallery)
	}

	components = append(components,
		ui.Text(tweet.stats()),
		ui.Text(fmt.Sprintf("[View on X](%s)", tweet.URL)),
	)

	return preview.New(t.source, t.color, components...).WithNSFW(tweet.PossiblySensitive)
}

func (t *Twitter) failed(id string, err error) preview.Preview {
	p := t.fail(id, err, "Failed to fetch tweet info")
	p.Color = twitterErrorColor

	return p
}

