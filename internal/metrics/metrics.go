// Package metrics provides Prometheus metrics for pipeline runs. Runs are
// short-lived batch invocations, so metrics are pushed to a Pushgateway at
// the end of a run instead of being scraped.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// Listing source metrics
	PagesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpulse_pages_fetched_total",
			Help: "Listing API pages fetched successfully",
		},
	)

	PageFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpulse_page_failures_total",
			Help: "Listing API pages that failed and ended pagination early",
		},
	)

	ListingsFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpulse_listings_fetched_total",
			Help: "Raw listings returned by the listing API",
		},
	)

	ListingsKeptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpulse_listings_kept_total",
			Help: "Listings that survived category, locale, and price filtering",
		},
	)

	// Snapshot metrics
	SnapshotSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_snapshot_saves_total",
			Help: "Snapshot save attempts by result",
		},
		[]string{"result"}, // "ok", "duplicate", "error"
	)

	SnapshotListings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketpulse_snapshot_listings",
			Help: "Filtered listing count of the most recent snapshot",
		},
	)

	SnapshotAvgPrice = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketpulse_snapshot_avg_price_usd",
			Help: "Average price of the most recent snapshot",
		},
	)

	// Delivery metrics
	ReportsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_reports_sent_total",
			Help: "Report delivery attempts by result",
		},
		[]string{"result"}, // "ok", "failed"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketpulse_run_duration_seconds",
			Help:    "Wall-clock duration of one pipeline run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)
)

// Push sends the default registry to the Pushgateway under the given job
// name. An empty URL disables the push.
func Push(url, job string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(prometheus.DefaultGatherer).Push()
}
