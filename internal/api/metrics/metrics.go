// Package metrics defines all custom Prometheus metrics for the tracking
// core. It is the single source of truth for metric names, labels, and help
// strings; registration happens via promauto at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking"

// ── Reporting pipeline ────────────────────────────────────────────────────────

// PositionsReportedTotal counts primary position writes by outcome.
// Label:
//   - outcome: "success" or "error"
var PositionsReportedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "positions_reported_total",
		Help:      "Total primary position writes, by outcome.",
	},
	[]string{"outcome"},
)

// PositionVerifyMismatchTotal counts read-back verifications whose stored
// coordinates diverged from the sent coordinates beyond the epsilon.
var PositionVerifyMismatchTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "position_verify_mismatch_total",
		Help:      "Total read-back verifications that found diverging coordinates.",
	},
)

// ── Proximity engine ──────────────────────────────────────────────────────────

// ProximityChecksTotal counts detection cycles by result.
// Label:
//   - result: "debounced", "busy", "presenting", "no_match", "matched", "error"
var ProximityChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proximity_checks_total",
		Help:      "Total proximity detection cycles, by result.",
	},
	[]string{"result"},
)

// PresentationsTotal counts marker presentation attempts by status.
// Label:
//   - status: "ok" or "error"
var PresentationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "presentations_total",
		Help:      "Total marker presentation attempts, by status.",
	},
	[]string{"status"},
)

// ── Notification pipeline ─────────────────────────────────────────────────────

// NotificationsIngestedTotal counts events seen by the feed's two ingestion
// paths.
// Labels:
//   - source: "push" or "poll"
//   - result: "new" or "duplicate"
var NotificationsIngestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_ingested_total",
		Help:      "Total events ingested by the notification feed, by source and dedup result.",
	},
	[]string{"source", "result"},
)

// NotificationsUnread tracks the current unread count of the feed.
var NotificationsUnread = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_unread",
		Help:      "Current number of unread notifications in the feed.",
	},
)
