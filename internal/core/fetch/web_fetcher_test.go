package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/meoww-bot/meoww/internal/core/errors"
)

const (
	testDomain      = "example.com"
	headerUserAgent = "User-Agent"
	headerAccept    = "Accept"
	testHTMLBody    = "<html><body>Test content</body></html>"
)

func TestNewWebFetcher(t *testing.T) {
	tests := []struct {
		name      string
		rps       float64
		timeout   time.Duration
		userAgent string
		wantUA    string
	}{
		{name: "default timeout", rps: 2.0, timeout: 0, wantUA: DefaultUserAgent},
		{name: "custom agent", rps: 5.0, timeout: 10 * time.Second, userAgent: "meoww/1.0", wantUA: "meoww/1.0"},
		{name: "unlimited", rps: 0, timeout: -1 * time.Second, wantUA: DefaultUserAgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := NewWebFetcher(tt.rps, tt.timeout, tt.userAgent)

			require.NotNil(t, fetcher.client)
			require.NotNil(t, fetcher.client.Jar, "cookie jar is nil")
			require.NotNil(t, fetcher.globalLimiter)
			require.NotNil(t, fetcher.domainLimiters)
			require.Equal(t, tt.wantUA, fetcher.userAgent)
			require.Positive(t, fetcher.client.Timeout)
		})
	}
}

func TestWebFetcherExtractDomain(t *testing.T) {
	fetcher := NewWebFetcher(1, time.Second, "")

	tests := []struct {
		name   string
		rawURL string
		want   string
	}{
		{name: "simple domain", rawURL: "https://example.com/page", want: "example.com"},
		{name: "domain with port", rawURL: "https://example.com:8080/page", want: "example.com:8080"},
		{name: "uppercase domain normalized", rawURL: "https://EXAMPLE.COM/page", want: "example.com"},
		{name: "empty URL", rawURL: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, fetcher.extractDomain(tt.rawURL))
		})
	}
}

func TestWebFetcherGetDomainLimiter(t *testing.T) {
	fetcher := NewWebFetcher(1, time.Second, "")

	limiter1 := fetcher.getDomainLimiter(testDomain)
	require.NotNil(t, limiter1)
	require.Same(t, limiter1, fetcher.getDomainLimiter(testDomain))
	require.NotSame(t, limiter1, fetcher.getDomainLimiter("other.com"))
}

func TestWebFetcherFetch(t *testing.T) {
	t.Run("successful fetch with options", func(t *testing.T) {
		var got http.Header

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()

			_, _ = w.Write([]byte(testHTMLBody))
		}))
		defer server.Close()

		fetcher := NewWebFetcher(0, 5*time.Second, "")

		body, err := fetcher.Fetch(context.Background(), server.URL,
			WithReferer("https://18comic.vip/"), WithHeader("X-Test", "1"))
		require.NoError(t, err)
		require.Equal(t, testHTMLBody, string(body))

		require.NotEmpty(t, got.Get(headerUserAgent))
		require.NotEmpty(t, got.Get(headerAccept))
		require.Equal(t, "https://18comic.vip/", got.Get("Referer"))
		require.Equal(t, "1", got.Get("X-Test"))
	})

	t.Run("canceled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		fetcher := NewWebFetcher(10, 5*time.Second, "")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fetcher.Fetch(ctx, server.URL)
		require.Error(t, err)
		require.Equal(t, apperrors.KindUnavailable, apperrors.KindOf(err))
	})

	t.Run("invalid URL", func(t *testing.T) {
		fetcher := NewWebFetcher(10, 5*time.Second, "")

		_, err := fetcher.Fetch(context.Background(), "://invalid-url")
		require.Error(t, err)
	})
}

func TestWebFetcherStatusClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantKind   apperrors.Kind
		wantStatus int
	}{
		{name: "forbidden", status: http.StatusForbidden, wantKind: apperrors.KindRejected, wantStatus: http.StatusForbidden},
		{name: "not found", status: http.StatusNotFound, wantKind: apperrors.KindNotFound, wantStatus: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError, wantKind: apperrors.KindUnavailable, wantStatus: http.StatusInternalServerError},
		{name: "rate limited", status: http.StatusTooManyRequests, wantKind: apperrors.KindUnavailable, wantStatus: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := NewWebFetcher(0, time.Second, "").Fetch(context.Background(), server.URL)
			require.Error(t, err)

			var se *apperrors.ScrapeError
			require.ErrorAs(t, err, &se)
			require.Equal(t, tt.wantKind, se.Kind)
			require.Equal(t, tt.wantStatus, se.Status)
		})
	}
}

func TestClassifySuccess(t *testing.T) {
	require.Nil(t, Classify(http.StatusOK))
	require.Nil(t, Classify(http.StatusNoContent))
}

func TestFetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"num_pages": 20, "title": "Sample"}`))
		case "/empty":
			w.WriteHeader(http.StatusOK)
		default:
			_, _ = w.Write([]byte(`<html>challenge</html>`))
		}
	}))
	defer server.Close()

	fetcher := NewWebFetcher(0, time.Second, "")

	var payload struct {
		NumPages int    `json:"num_pages"`
		Title    string `json:"title"`
	}

	require.NoError(t, fetcher.FetchJSON(context.Background(), server.URL+"/ok", &payload))
	require.Equal(t, 20, payload.NumPages)
	require.Equal(t, "Sample", payload.Title)

	err := fetcher.FetchJSON(context.Background(), server.URL+"/empty", &payload)
	require.Equal(t, apperrors.KindParse, apperrors.KindOf(err))

	err = fetcher.FetchJSON(context.Background(), server.URL+"/html", &payload)
	require.Equal(t, apperrors.KindParse, apperrors.KindOf(err))
}

func TestWebFetcherRedirectLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/redirect", http.StatusFound)
	}))
	defer server.Close()

	_, err := NewWebFetcher(0, 5*time.Second, "").Fetch(context.Background(), server.URL)
	require.ErrorIs(t, err, apperrors.ErrTooManyRedirects)
}

func TestWebFetcherKeepsCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/watch" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			return
		}

		c, err := r.Cookie("session")
		if err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
	}))
	defer server.Close()

	fetcher := NewWebFetcher(0, time.Second, "")

	_, err := fetcher.Fetch(context.Background(), server.URL+"/watch")
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), server.URL+"/download")
	require.NoError(t, err)
}
