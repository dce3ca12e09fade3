// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires the fetcher, the page cache and the scraper registry
// together and exposes the operational modes:
//
//   - Serve mode: Discord gateway bot plus the health and metrics server
//   - Preview mode: run the aggregator once over a piece of text
//   - View mode: render one page of a paginated gallery
//
// The one-shot modes print the message component tree as JSON and need no
// Discord token.
package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	apperrors "github.com/meoww-bot/meoww/internal/core/errors"
	"github.com/meoww-bot/meoww/internal/core/fetch"
	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
	"github.com/meoww-bot/meoww/internal/discordbot"
	"github.com/meoww-bot/meoww/internal/platform/config"
	"github.com/meoww-bot/meoww/internal/platform/observability"
	"github.com/meoww-bot/meoww/internal/previewers"
)

const errBotInit = "bot initialization failed: %w"

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	registry *preview.Registry
	logger   *zerolog.Logger
}

// New builds the scraper registry from cfg.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	return NewWithFetcher(cfg, fetch.NewWebFetcher(cfg.Fetch.RPS, cfg.Fetch.Timeout, cfg.Fetch.UserAgent), logger)
}

// NewWithFetcher is New with an explicit upstream fetcher.
func NewWithFetcher(cfg *config.Config, fetcher previewers.Fetcher, logger *zerolog.Logger, extra ...previewers.Option) (*App, error) {
	opts := []previewers.Option{
		previewers.WithJumpMinPages(cfg.Preview.JumpSelectMinPages),
		previewers.WithImageProxy(cfg.Preview.JMComicImageProxy),
		previewers.WithPageCache(previewers.NewPageCache(cfg.Preview.PageCacheTTL, cfg.Preview.PageCacheMaxEntries)),
	}

	registry, err := previewers.NewRegistry(fetcher, logger, cfg.SourceEnabled, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("app init: %w", err)
	}

	logger.Info().Strs("sources", sourceNames(registry.Sources())).Msg("preview registry ready")

	return &App{cfg: cfg, registry: registry, logger: logger}, nil
}

func sourceNames(sources []preview.Source) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		out = append(out, string(s))
	}

	return out
}

// Registry returns the scraper registry.
func (a *App) Registry() *preview.Registry {
	return a.registry
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context, ready observability.ReadyFunc) error {
	srv := observability.NewServer(a.cfg.HealthPort, ready, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunBot runs the Discord bot and the health server until ctx is done.
func (a *App) RunBot(ctx context.Context) error {
	a.logger.Info().Msg("Starting bot mode")

	b, err := discordbot.New(a.cfg, a.registry, a.logger)
	if err != nil {
		return fmt.Errorf(errBotInit, err)
	}

	go func() {
		if err := a.StartHealthServer(ctx, b.Ready); err != nil {
			a.logger.Error().Err(err).Msg("health check server error")
		}
	}()

	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("bot run: %w", err)
	}

	return nil
}

// Preview runs the aggregator over text. Text without a supported link
// renders the "no links" card.
func (a *App) Preview(ctx context.Context, text string) ([]byte, error) {
	p, ok := a.registry.Any(ctx, text)
	if !ok {
		return render(preview.NoLinksCard(a.registry.SupportedPlatforms()))
	}

	return render(preview.Format(p))
}

// View renders one page of a paginated gallery.
func (a *App) View(ctx context.Context, source, contentID string, page int) ([]byte, error) {
	viewer, ok := a.registry.Viewer(preview.Source(source))
	if !ok {
		return nil, fmt.Errorf("%w: %q has no gallery viewer", apperrors.ErrUnknownSource, source)
	}

	if !isGalleryID(contentID) {
		return nil, fmt.Errorf("%w: %q is not a gallery id", apperrors.ErrInvalidID, contentID)
	}

	return render(preview.Format(viewer.View(ctx, contentID, page)))
}

// isGalleryID reports whether id is a positive decimal number, the form
// every paginated source uses.
func isGalleryID(id string) bool {
	n, err := strconv.ParseUint(id, 10, 64)

	return err == nil && n > 0
}

func render(c ui.Container) ([]byte, error) {
	out, err := ui.MarshalJSON([]ui.Component{c})
	if err != nil {
		return nil, fmt.Errorf("encoding components: %w", err)
	}

	return out, nil
}
