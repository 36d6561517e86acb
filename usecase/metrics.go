package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var NotesOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notes_operations_total",
		Help: "Total number of note operations",
	},
	[]string{"operation"}, // create, update, delete, pin, move, share, unshare, image
)

// TrackNoteOperation increments the notes operation counter
func TrackNoteOperation(operation string) {
	NotesOperationsTotal.WithLabelValues(operation).Inc()
}
