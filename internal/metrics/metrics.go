// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

// Package metrics holds the Prometheus instruments for EasyFlix.
//
// All collectors register with the default registry through promauto and are
// exposed by the HTTP adapter at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Command dispatch
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "easyflix_commands_total",
			Help: "Commands dispatched, by command and outcome",
		},
		[]string{"command", "outcome"}, // outcome: "ok" or an error kind
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "easyflix_command_duration_seconds",
			Help:    "Duration of command handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	TransportFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "easyflix_transport_failures_total",
			Help: "Encrypted transport failures by stage (decode, encode)",
		},
		[]string{"stage"},
	)

	// Store
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "easyflix_db_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "easyflix_db_operation_errors_total",
			Help: "Store operations that failed, by error kind",
		},
		[]string{"operation", "kind"},
	)

	DBTransactionRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "easyflix_db_transaction_retries_total",
			Help: "DuckDB transaction conflicts that were retried",
		},
		[]string{"operation"},
	)

	// Snapshot aggregation
	SnapshotRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "easyflix_snapshot_runs_total",
			Help: "Snapshot recomputes, by trigger and result",
		},
		[]string{"trigger", "result"}, // trigger: command, queue, schedule; result: success, error, rejected
	)

	SnapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "easyflix_snapshot_duration_seconds",
			Help:    "Duration of snapshot recomputes in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	SnapshotLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "easyflix_snapshot_last_success_timestamp_seconds",
			Help: "Unix time of the last successful snapshot recompute",
		},
	)

	FavouritesUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "easyflix_favourite_genres_updated_total",
			Help: "Accounts whose inferred favourite genre was rewritten",
		},
	)

	SnapshotQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "easyflix_snapshot_queue_dropped_total",
			Help: "Snapshot triggers dropped because the queue was full or closed",
		},
	)

	SnapshotQueueCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "easyflix_snapshot_queue_coalesced_total",
			Help: "Queued snapshot triggers folded into an already pending recompute",
		},
	)

	SnapshotBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "easyflix_snapshot_breaker_state",
			Help: "Snapshot circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// HTTP adapter
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "easyflix_api_requests_total",
			Help: "HTTP requests, by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "easyflix_api_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordCommand records one dispatched command. outcome is "ok" or the error kind.
func RecordCommand(command, outcome string, duration time.Duration) {
	CommandsTotal.WithLabelValues(command, outcome).Inc()
	CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordDBOperation records a store operation. kind is "" on success.
func RecordDBOperation(operation string, duration time.Duration, kind string) {
	DBOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if kind != "" {
		DBOperationErrors.WithLabelValues(operation, kind).Inc()
	}
}

// RecordTransactionRetry counts a retried DuckDB transaction conflict.
func RecordTransactionRetry(operation string) {
	DBTransactionRetries.WithLabelValues(operation).Inc()
}

// RecordSnapshot records a recompute attempt.
func RecordSnapshot(trigger string, duration time.Duration, favourites int, err error) {
	if err != nil {
		SnapshotRuns.WithLabelValues(trigger, "error").Inc()
		return
	}
	SnapshotRuns.WithLabelValues(trigger, "success").Inc()
	SnapshotDuration.Observe(duration.Seconds())
	SnapshotLastSuccess.SetToCurrentTime()
	FavouritesUpdated.Add(float64(favourites))
}

// RecordSnapshotRejected counts a recompute skipped by an open breaker.
func RecordSnapshotRejected(trigger string) {
	SnapshotRuns.WithLabelValues(trigger, "rejected").Inc()
}

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
