package preview

import (
	"context"
	"fmt"

	apperrors "github.com/meoww-bot/meoww/internal/core/errors"
	"github.com/meoww-bot/meoww/internal/platform/observability"
)

// Previewer scrapes one platform.
type Previewer interface {
	Source() Source
	// Name is the platform name listed on the "no links" card.
	Name() string
	// Match extracts the content id referenced by text.
	Match(text string) (string, bool)
	// Preview returns false when text does not reference the platform.
	Preview(ctx context.Context, text string) (Preview, bool)
	// PreviewID builds the preview card for a known content id.
	PreviewID(ctx context.Context, contentID string) Preview
}

// Viewer is a Previewer with paginated galleries.
type Viewer interface {
	Previewer
	// View always returns a preview; page is clamped to the gallery's range.
	View(ctx context.Context, contentID string, page int) Preview
}

// Registry holds previewers in fixed priority order. It is built once at
// start-up and read-only afterwards.
type Registry struct {
	ordered  []Previewer
	bySource map[Source]Previewer
}

// NewRegistry registers previewers in the given order. Later duplicates of a
// source are rejected.
func NewRegistry(previewers ...Previewer) (*Registry, error) {
	r := &Registry{bySource: make(map[Source]Previewer, len(previewers))}

	for _, p := range previewers {
		if _, dup := r.bySource[p.Source()]; dup {
			return nil, fmt.Errorf("%w: %s registered twice", apperrors.ErrInvalidInput, p.Source())
		}

		r.ordered = append(r.ordered, p)
		r.bySource[p.Source()] = p
	}

	return r, nil
}

// Match is the result of the aggregator: the preview and the content id it
// was built for.
type Match struct {
	Preview   Preview
	ContentID string
}

// Any tries each previewer in priority order and returns the first match.
func (r *Registry) Any(ctx context.Context, text string) (Preview, bool) {
	m, ok := r.Find(ctx, text)
	return m.Preview, ok
}

// Find is Any that also reports the matched content id.
func (r *Registry) Find(ctx context.Context, text string) (Match, bool) {
	for _, p := range r.ordered {
		id, ok := p.Match(text)
		if !ok {
			continue
		}

		res, ok := p.Preview(ctx, text)
		if !ok {
			continue
		}

		outcome := observability.OutcomeOK
		if res.IsError() {
			outcome = observability.OutcomeError
		}

		observability.PreviewsRendered.WithLabelValues(string(p.Source()), outcome).Inc()

		return Match{Preview: res, ContentID: id}, true
	}

	observability.PreviewsRendered.WithLabelValues("", observability.OutcomeNoMatch).Inc()

	return Match{}, false
}

// Lookup returns the previewer for source.
func (r *Registry) Lookup(source Source) (Previewer, bool) {
	p, ok := r.bySource[source]
	return p, ok
}

// Viewer returns the paginated previewer for source.
func (r *Registry) Viewer(source Source) (Viewer, bool) {
	p, ok := r.bySource[source]
	if !ok {
		return nil, false
	}

	v, ok := p.(Viewer)

	return v, ok
}

// Sources lists registered sources in priority order.
func (r *Registry) Sources() []Source {
	out := make([]Source, 0, len(r.ordered))
	for _, p := range r.ordered {
		out = append(out, p.Source())
	}

	return out
}

// SupportedPlatforms lists display names in priority order, without repeats.
func (r *Registry) SupportedPlatforms() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(r.ordered))

	for _, p := range r.ordered {
		if seen[p.Name()] {
			continue
		}

		seen[p.Name()] = true
		out = append(out, p.Name())
	}

	return out
}
