package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Preview outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeNoMatch  = "no_match"
	OutcomeBlocked  = "nsfw_blocked"
	OutcomeFallback = "fallback"
)

var (
	FetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meoww_fetch_requests_total",
		Help: "Upstream fetches by host and status class",
	}, []string{"host", "status"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meoww_fetch_duration_seconds",
		Help:    "Duration of upstream fetches",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"host"})

	PreviewsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meoww_previews_total",
		Help: "Previews produced by source and outcome",
	}, []string{"source", "outcome"})

	InteractionsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meoww_interactions_total",
		Help: "Inbound Discord events by kind and route",
	}, []string{"kind", "route"})

	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meoww_page_cache_lookups_total",
		Help: "Gallery page-list cache lookups by result",
	}, []string{"result"})

	PageCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meoww_page_cache_entries",
		Help: "Gallery page lists currently cached",
	})
)
