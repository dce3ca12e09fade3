// Package fetch performs rate-limited upstream HTTP requests and classifies
// their failures into scrape error kinds.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	apperrors "github.com/meoww-bot/meoww/internal/core/errors"
	"github.com/meoww-bot/meoww/internal/platform/observability"
)

const (
	defaultFetchTimeoutSeconds = 15
	globalLimiterBurst         = 5
	maxRedirects               = 5
	maxBodySizeMB              = 5
	maxBodySizeBytes           = maxBodySizeMB * 1024 * 1024
	domainLimiterRate          = 2
	domainLimiterBurst         = 4

	// DefaultUserAgent mimics a desktop browser; several upstreams reject bot agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptJSON = "application/json"
)

// RequestOption customizes a single request.
type RequestOption func(*http.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithReferer sets the Referer header.
func WithReferer(referer string) RequestOption {
	return WithHeader("Referer", referer)
}

type WebFetcher struct {
	client         *http.Client
	globalLimiter  *rate.Limiter
	domainLimiters map[string]*rate.Limiter
	domainRate     rate.Limit
	mu             sync.RWMutex
	userAgent      string
}

// NewWebFetcher creates a fetcher. rps <= 0 disables rate limiting.
func NewWebFetcher(rps float64, timeout time.Duration, userAgent string) *WebFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeoutSeconds * time.Second
	}

	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	globalRate := rate.Limit(rps)
	domainRate := rate.Limit(domainLimiterRate)

	if rps <= 0 {
		globalRate = rate.Inf
		domainRate = rate.Inf
	}

	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck // never fails

	return &WebFetcher{
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return apperrors.ErrTooManyRedirects
				}

				return nil
			},
		},
		globalLimiter:  rate.NewLimiter(globalRate, globalLimiterBurst),
		domainLimiters: make(map[string]*rate.Limiter),
		domainRate:     domainRate,
		userAgent:      userAgent,
	}
}

// Fetch GETs rawURL and returns the body. Non-2xx statuses are returned as
// *errors.ScrapeError classified by status code.
func (f *WebFetcher) Fetch(ctx context.Context, rawURL string, opts ...RequestOption) ([]byte, error) {
	return f.get(ctx, rawURL, acceptHTML, opts)
}

// FetchJSON GETs rawURL and decodes the JSON body into dst.
func (f *WebFetcher) FetchJSON(ctx context.Context, rawURL string, dst any, opts ...RequestOption) error {
	body, err := f.get(ctx, rawURL, acceptJSON, opts)
	if err != nil {
		return err
	}

	if len(body) == 0 {
		return &apperrors.ScrapeError{
			Kind:    apperrors.KindParse,
			Message: "Content not found or parsing failed.",
			Err:     apperrors.ErrEmptyResponse,
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &apperrors.ScrapeError{
			Kind:    apperrors.KindParse,
			Message: "Content not found or parsing failed.",
			Err:     fmt.Errorf("decode json: %w", err),
		}
	}

	return nil
}

func (f *WebFetcher) get(ctx context.Context, rawURL, accept string, opts []RequestOption) ([]byte, error) {
	if err := f.globalLimiter.Wait(ctx); err != nil {
		return nil, unreachable(fmt.Errorf("global rate limiter wait: %w", err))
	}

	domain := f.extractDomain(rawURL)

	domainLimiter := f.getDomainLimiter(domain)
	if err := domainLimiter.Wait(ctx); err != nil {
		return nil, unreachable(fmt.Errorf("domain rate limiter wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, unreachable(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()

	resp, err := f.client.Do(req)

	observability.FetchDuration.WithLabelValues(domain).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.FetchRequests.WithLabelValues(domain, "error").Inc()

		return nil, unreachable(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	observability.FetchRequests.WithLabelValues(domain, strconv.Itoa(resp.StatusCode)).Inc()

	if err := Classify(resp.StatusCode); err != nil {
		return nil, err
	}

	// Limit to 5MB
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySizeBytes))
	if err != nil {
		return nil, unreachable(fmt.Errorf("read response body: %w", err))
	}

	return body, nil
}

// Classify maps an HTTP status to a scrape error, or nil for 2xx.
func Classify(status int) *apperrors.ScrapeError {
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusForbidden:
		return &apperrors.ScrapeError{
			Kind:    apperrors.KindRejected,
			Status:  status,
			Message: "Access Denied (403). The site might be behind Cloudflare verification.",
			Err:     apperrors.ErrAccessDenied,
		}
	case status == http.StatusNotFound:
		return apperrors.NotFound("Content not found (404).")
	default:
		return apperrors.Unavailable(status)
	}
}

func unreachable(err error) *apperrors.ScrapeError {
	return &apperrors.ScrapeError{
		Kind:    apperrors.KindUnavailable,
		Message: "Failed to reach the upstream site.",
		Err:     err,
	}
}

func (f *WebFetcher) getDomainLimiter(domain string) *rate.Limiter {
	f.mu.RLock()
	limiter, exists := f.domainLimiters[domain]
	f.mu.RUnlock()

	if exists {
		return limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check
	if limiter, exists := f.domainLimiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(f.domainRate, domainLimiterBurst)
	f.domainLimiters[domain] = limiter

	return limiter
}

func (f *WebFetcher) extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Host)
}
