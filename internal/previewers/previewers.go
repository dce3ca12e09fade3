// Package previewers implements one preview.Previewer per supported platform.
//
// Every scraper fetches through a shared Fetcher, extracts fields with
// ordered regular expression chains and never returns a Go error to its
// caller: failures become error previews.
package previewers

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/meoww-bot/meoww/internal/core/errors"
	"github.com/meoww-bot/meoww/internal/core/fetch"
	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
)

// Log field names.
const (
	logFieldSource    = "source"
	logFieldContentID = "content_id"
	logFieldPage      = "page"
	logFieldKind      = "kind"
	logFieldStatus    = "status"
)

// Fetcher is the upstream HTTP client used by scrapers.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts ...fetch.RequestOption) ([]byte, error)
	FetchJSON(ctx context.Context, rawURL string, dst any, opts ...fetch.RequestOption) error
}

// Option configures a scraper.
type Option func(*options)

type options struct {
	baseURL        string
	jumpMinPages   int
	imageProxy     string
	pageCache      *PageCache
	disableJumpRow bool
}

// WithBaseURL points the scraper at a different upstream host.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(u, "/")
	}
}

// WithJumpMinPages sets the page count from which the jump selector is shown.
// Zero or less disables it.
func WithJumpMinPages(n int) Option {
	return func(o *options) {
		o.jumpMinPages = n
		o.disableJumpRow = n <= 0
	}
}

// WithImageProxy sets the URL prefix that wraps gallery images.
func WithImageProxy(prefix string) Option {
	return func(o *options) {
		o.imageProxy = prefix
	}
}

// WithPageCache shares a page-list cache with the scraper.
func WithPageCache(c *PageCache) Option {
	return func(o *options) {
		o.pageCache = c
	}
}

const defaultJumpMinPages = 10

func buildOptions(defaultBase string, opts []Option) options {
	o := options{baseURL: defaultBase, jumpMinPages: defaultJumpMinPages}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// base carries what every scraper shares.
type base struct {
	source  preview.Source
	color   int
	fetcher Fetcher
	logger  *zerolog.Logger
	opts    options
}

func newBase(source preview.Source, color int, fetcher Fetcher, logger *zerolog.Logger, defaultBase string, opts []Option) base {
	l := logger.With().Str(logFieldSource, string(source)).Logger()

	return base{
		source:  source,
		color:   color,
		fetcher: fetcher,
		logger:  &l,
		opts:    buildOptions(defaultBase, opts),
	}
}

// Source identifies the scraper in identifiers and metrics.
func (b base) Source() preview.Source {
	return b.source
}

func (b base) url(path string) string {
	return b.opts.baseURL + path
}

// fail logs err and converts it into an error preview.
func (b base) fail(contentID string, err error, fallback string) preview.Preview {
	var se *apperrors.ScrapeError

	evt := b.logger.Warn().Err(err).Str(logFieldContentID, contentID).Str(logFieldKind, apperrors.KindOf(err).String())
	if apperrors.As(err, &se) && se.Status != 0 {
		evt = evt.Int(logFieldStatus, se.Status)
	}

	evt.Msg("preview failed")

	return preview.FromError(b.source, b.color, err, fallback)
}

// pager builds the page state for a gallery view.
func (b base) pager(contentID string, current, total, first int) preview.Pager {
	return preview.Pager{Source: b.source, ContentID: contentID, Current: current, Total: total, Base: first}
}

// navigation returns the navigation row and, for large galleries, the jump
// selector.
func (b base) navigation(p preview.Pager) []ui.Component {
	var rows []ui.Component

	if row, ok := preview.NavigationRow(p); ok {
		rows = append(rows, row)
	}

	if b.opts.disableJumpRow {
		return rows
	}

	if row, ok := preview.JumpRow(p, b.opts.jumpMinPages); ok {
		rows = append(rows, row)
	}

	return rows
}

// statusMessages rewrites generic fetch errors into platform wording.
type statusMessages struct {
	rejected string
	notFound string
}

func (m statusMessages) describe(err error) error {
	var se *apperrors.ScrapeError
	if !apperrors.As(err, &se) {
		return err
	}

	switch se.Kind {
	case apperrors.KindRejected:
		if m.rejected != "" {
			return &apperrors.ScrapeError{Kind: se.Kind, Status: se.Status, Message: m.rejected, Err: se}
		}
	case apperrors.KindNotFound:
		if m.notFound != "" {
			return &apperrors.ScrapeError{Kind: se.Kind, Status: se.Status, Message: m.notFound, Err: se}
		}
	}

	return err
}

const invalidIDMessage = "Invalid or missing content id."

// emptyID reports whether id is blank; such requests never reach the network.
func emptyID(id string) bool {
	return strings.TrimSpace(id) == ""
}

var errNoPages = apperrors.ParseFailure("page list")

// atoiDefault parses s or returns fallback.
func atoiDefault(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}

	return n
}
