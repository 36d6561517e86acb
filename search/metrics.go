package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of search requests by outcome",
		},
		[]string{"outcome"}, // ok, invalid, no_criteria, unavailable, error
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_duration_seconds",
			Help:    "Duration of search requests including reconciliation",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	ReconcileDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_reconcile_dropped_total",
			Help: "Search hits dropped because the note no longer exists or is no longer readable",
		},
	)

	SyncFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_sync_failures_total",
			Help: "Search index writes that failed after the note was stored",
		},
		[]string{"operation"}, // create, update, delete, repair
	)

	ResyncDocumentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_resync_documents_total",
			Help: "Documents written to the search index by resync",
		},
	)

	OrphansPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_orphans_pruned_total",
			Help: "Index documents deleted because their note no longer exists",
		},
	)
)

// TrackSearchOutcome increments the search request counter
func TrackSearchOutcome(outcome string) {
	SearchRequestsTotal.WithLabelValues(outcome).Inc()
}

// TrackSyncFailure increments the sync failure counter
func TrackSyncFailure(operation string) {
	SyncFailuresTotal.WithLabelValues(operation).Inc()
}
