// Package metrics provides Prometheus metrics for the thistle service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// OperationsTotal tracks sync operations by operation and outcome
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "thistle",
			Subsystem: "sync",
			Name:      "operations_total",
			Help:      "Total number of sync operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// OperationDuration tracks sync operation duration in seconds, commit included
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "thistle",
			Subsystem: "sync",
			Name:      "operation_duration_seconds",
			Help:      "Duration of sync operations in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	// RowsCreated tracks rows created by merges and resets
	RowsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "thistle",
			Subsystem: "sync",
			Name:      "rows_created_total",
			Help:      "Total number of rows created by merges and resets",
		},
		[]string{"element_type"},
	)

	// RowsRemoved tracks rows removed by merges and resets
	RowsRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "thistle",
			Subsystem: "sync",
			Name:      "rows_removed_total",
			Help:      "Total number of rows removed by merges and resets",
		},
		[]string{"element_type"},
	)

	// EventsPublished tracks domain events written to kafka
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "thistle",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of domain events published",
		},
		[]string{"event_type"},
	)

	// EventPublishFailures tracks batches that could not be published after commit
	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "thistle",
			Subsystem: "events",
			Name:      "publish_failures_total",
			Help:      "Total number of event batches that failed to publish",
		},
		[]string{"operation"},
	)

	// ReferenceDataLookups tracks reference code lookups by cache result
	ReferenceDataLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "thistle",
			Subsystem: "refdata",
			Name:      "lookups_total",
			Help:      "Total number of reference code lookups by cache result",
		},
		[]string{"result"},
	)
)
