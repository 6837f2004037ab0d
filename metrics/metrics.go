package metrics

import (
	"context"

	"lineswipe/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SwipesRecorded counts admitted swipes by direction, updates included
	SwipesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineswipe_swipes_recorded_total",
		Help: "Swipes admitted to the ledger, labeled by direction",
	}, []string{"direction"})

	// FirstSwipes counts admissions that consumed quota
	FirstSwipes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lineswipe_first_swipes_total",
		Help: "First-time line engagements, the ones that consume quota",
	})

	// SwipesRemoved counts swipes users took back
	SwipesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lineswipe_swipes_removed_total",
		Help: "Swipes removed from the ledger",
	})

	// QuotaDenials counts admissions refused for a spent allowance
	QuotaDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lineswipe_quota_denials_total",
		Help: "Swipe attempts denied because the period allowance was spent",
	})

	// AdmissionConflicts counts admissions that failed even after retries
	AdmissionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lineswipe_admission_conflicts_total",
		Help: "Swipe admissions abandoned after exhausting conflict retries",
	})

	// TierChanges counts subscription tier transitions
	TierChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineswipe_tier_changes_total",
		Help: "Subscription tier changes, labeled by the new tier",
	}, []string{"tier"})

	// SnapshotLines counts per-line outcomes of daily snapshot runs
	SnapshotLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineswipe_snapshot_lines_total",
		Help: "Lines processed by snapshot runs, labeled by outcome",
	}, []string{"outcome"})

	// HTTPRequests counts API requests by route and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineswipe_http_requests_total",
		Help: "HTTP requests served, labeled by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPDuration tracks API latency by route
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lineswipe_http_request_duration_seconds",
		Help:    "HTTP request latency, labeled by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// ObserveBus wires the domain counters to the event bus. Denials and
// conflicts never reach the bus (their transactions roll back), those
// are counted at the API boundary instead.
func ObserveBus(bus *events.Bus) {
	bus.Subscribe(events.EventTypeSwipeRecorded, func(_ context.Context, e events.Event) {
		if recorded, ok := e.(events.SwipeRecordedEvent); ok {
			SwipesRecorded.WithLabelValues(string(recorded.Direction)).Inc()
			if recorded.FirstSwipe {
				FirstSwipes.Inc()
			}
		}
	})

	bus.Subscribe(events.EventTypeSwipeRemoved, func(_ context.Context, e events.Event) {
		if _, ok := e.(events.SwipeRemovedEvent); ok {
			SwipesRemoved.Inc()
		}
	})

	bus.Subscribe(events.EventTypeTierChanged, func(_ context.Context, e events.Event) {
		if changed, ok := e.(events.TierChangedEvent); ok {
			TierChanges.WithLabelValues(string(changed.NewTier)).Inc()
		}
	})

	bus.Subscribe(events.EventTypeSnapshotRunCompleted, func(_ context.Context, e events.Event) {
		if run, ok := e.(events.SnapshotRunCompletedEvent); ok {
			SnapshotLines.WithLabelValues("captured").Add(float64(run.LinesCaptured))
			SnapshotLines.WithLabelValues("skipped").Add(float64(run.LinesSkipped))
			SnapshotLines.WithLabelValues("failed").Add(float64(run.LinesFailed))
		}
	})
}
