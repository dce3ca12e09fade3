package previewers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/meoww-bot/meoww/internal/core/fetch"
	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()

	return &l
}

func newTestFetcher() *fetch.WebFetcher {
	return fetch.NewWebFetcher(0, 5*time.Second, "")
}

// route maps a request path plus raw query ("/watch?v=1") to a response body.
// A body starting with a three digit status and a space sets that status.
type route map[string]string

func newUpstream(t *testing.T, routes route) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}

		body, ok := routes[key]
		if !ok {
			http.NotFound(w, r)

			return
		}

		if len(body) >= 4 && body[3] == ' ' {
			switch body[:3] {
			case "403":
				w.WriteHeader(http.StatusForbidden)
				return
			case "404":
				w.WriteHeader(http.StatusNotFound)
				return
			case "500":
				w.WriteHeader(http.StatusInternalServerError)
				return
			case "503":
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}

		if strings.HasPrefix(strings.TrimSpace(body), "{") {
			w.Header().Set("Content-Type", "application/json")
		}

		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func actionRows(p preview.Preview) []ui.ActionRow {
	var rows []ui.ActionRow

	for _, c := range p.Components {
		if row, ok := c.(ui.ActionRow); ok {
			rows = append(rows, row)
		}
	}

	return rows
}

func rowButtons(t *testing.T, row ui.ActionRow) []ui.Button {
	t.Helper()

	out := make([]ui.Button, 0, len(row.Children))

	for _, c := range row.Children {
		b, ok := c.(ui.Button)
		require.True(t, ok, "expected a button, got %T", c)

		out = append(out, b)
	}

	return out
}

func textBlocks(p preview.Preview) []string {
	var out []string

	for _, c := range p.Components {
		if td, ok := c.(ui.TextDisplay); ok {
			out = append(out, td.Content)
		}
	}

	return out
}

func mediaURLs(p preview.Preview) []string {
	var out []string

	for _, c := range p.Components {
		if mg, ok := c.(ui.MediaGallery); ok {
			for _, it := range mg.Items {
				out = append(out, it.URL)
			}
		}
	}

	return out
}

func countKind(p preview.Preview, kind string) int {
	n := 0

	for _, c := range p.Components {
		if c.Kind() == kind {
			n++
		}
	}

	return n
}

func jumpSelect(p preview.Preview) (ui.StringSelect, bool) {
	for _, row := range actionRows(p) {
		for _, c := range row.Children {
			if s, ok := c.(ui.StringSelect); ok {
				return s, true
			}
		}
	}

	return ui.StringSelect{}, false
}

// failingFetcher fails the test on any network access.
type failingFetcher struct{ t *testing.T }

func (f failingFetcher) Fetch(context.Context, string, ...fetch.RequestOption) ([]byte, error) {
	f.t.Fatal("unexpected fetch")

	return nil, nil
}

func (f failingFetcher) FetchJSON(context.Context, string, any, ...fetch.RequestOption) error {
	f.t.Fatal("unexpected fetch")

	return nil
}
