// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus instrumentation for the arbitration
// engine: package-level promauto vars,
// small Observe*/Inc* helper functions, nothing exported but the helpers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notifierQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arbiter_notifier_queue_depth",
		Help: "Number of events currently queued per zone and family, awaiting flush.",
	}, []string{"zone", "family"})

	notifierEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbiter_notifier_events_total",
		Help: "Total notifier events queued, labeled by zone, family and event kind.",
	}, []string{"zone", "family", "event"})

	notifierDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbiter_notifier_dropped_total",
		Help: "Total notifier events removed before being flushed to a sink.",
	}, []string{"zone", "family", "reason"})

	grantsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbiter_grants_total",
		Help: "Total resource grants, labeled by zone and family.",
	}, []string{"zone", "family"})

	revokesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbiter_revokes_total",
		Help: "Total resource revokes, labeled by zone and family.",
	}, []string{"zone", "family"})

	disableTouchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbiter_disable_touched_total",
		Help: "Total resources whose disable mask changed on a disable/enable call.",
	}, []string{"family", "type"})

	zorderRebaseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arbiter_zorder_rebase_total",
		Help: "Total times an area's zorder counter was rebased after overflow.",
	}, []string{"area"})

	commitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arbiter_commit_duration_seconds",
		Help:    "Wall-clock duration of a single commit (grant pass + flush) per zone and family.",
		Buckets: prometheus.DefBuckets,
	}, []string{"zone", "family"})
)

func SetNotifierQueueDepth(zone, family string, depth int) {
	notifierQueueDepth.WithLabelValues(zone, family).Set(float64(depth))
}

func IncNotifierEvent(zone, family, event string) {
	notifierEventsTotal.WithLabelValues(zone, family, event).Inc()
}

func IncNotifierDropped(zone, family, reason string) {
	notifierDroppedTotal.WithLabelValues(zone, family, reason).Inc()
}

func IncGrant(zone, family string) {
	grantsTotal.WithLabelValues(zone, family).Inc()
}

func IncRevoke(zone, family string) {
	revokesTotal.WithLabelValues(zone, family).Inc()
}

func IncDisableTouched(family, ruleType string, n int) {
	disableTouchedTotal.WithLabelValues(family, ruleType).Add(float64(n))
}

func IncZorderRebase(area string) {
	zorderRebaseTotal.WithLabelValues(area).Inc()
}

// ObserveCommitDuration records how long a commit took. Callers typically
// defer metrics.ObserveCommitDuration(zone, family, time.Now()).
func ObserveCommitDuration(zone, family string, start time.Time) {
	commitDuration.WithLabelValues(zone, family).Observe(time.Since(start).Seconds())
}
