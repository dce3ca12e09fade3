package previewers

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/meoww-bot/meoww/internal/core/preview"
)

// All returns every scraper in aggregator priority order.
func All(fetcher Fetcher, logger *zerolog.Logger, opts ...Option) []preview.Previewer {
	return []preview.Previewer{
		NewTwitter(fetcher, logger, opts...),
		NewPixiv(fetcher, logger, opts...),
		NewNHentai(fetcher, logger, opts...),
		NewJMComic(fetcher, logger, opts...),
		NewWNACG(fetcher, logger, opts...),
		NewHanime(fetcher, logger, opts...),
		NewPornhubVideo(fetcher, logger, opts...),
		NewPornhubModel(fetcher, logger, opts...),
	}
}

// NewRegistry builds the registry of enabled scrapers. A nil enabled func
// keeps every source.
func NewRegistry(fetcher Fetcher, logger *zerolog.Logger, enabled func(string) bool, opts ...Option) (*preview.Registry, error) {
	var kept []preview.Previewer

	for _, p := range All(fetcher, logger, opts...) {
		if enabled != nil && !enabled(string(p.Source())) {
			logger.Info().Str(logFieldSource, string(p.Source())).Msg("source disabled")

			continue
		}

		kept = append(kept, p)
	}

	reg, err := preview.NewRegistry(kept...)
	if err != nil {
		return nil, fmt.Errorf("build preview registry: %w", err)
	}

	return reg, nil
}
