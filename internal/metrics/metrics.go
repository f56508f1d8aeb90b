// Package metrics exposes Prometheus collectors for the paste engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PastesCreated counts successful paste submissions.
	PastesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkbin_pastes_created_total",
		Help: "Number of pastes created.",
	})

	// PasteEdits counts successful paste updates.
	PasteEdits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkbin_paste_edits_total",
		Help: "Number of paste edits.",
	})

	// PasteRemovals counts removals and deletions by kind.
	PasteRemovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkbin_paste_removals_total",
		Help: "Number of paste removals, labelled by removal state and purge.",
	}, []string{"state", "purge"})

	// CacheLookups counts text/envelope cache lookups by outcome.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkbin_cache_lookups_total",
		Help: "Cache lookups on paste read paths, labelled hit or miss.",
	}, []string{"outcome"})

	// RenderFailures counts degraded submissions whose format had no lexer.
	RenderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkbin_render_failures_total",
		Help: "Number of submissions stored unformatted because rendering failed.",
	})

	// HTTPRequests counts handled requests by route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkbin_http_requests_total",
		Help: "HTTP requests handled, labelled by route, method and status.",
	}, []string{"route", "method", "status"})

	// HTTPDuration observes request latency per route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkbin_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Handler returns the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
