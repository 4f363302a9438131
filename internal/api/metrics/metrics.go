// Package metrics defines and registers all custom Prometheus metrics for the
// portfolio API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto, so they are available before the HTTP server starts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portfolio"

// ── Contact metrics ───────────────────────────────────────────────────────────

// ContactsSubmittedTotal counts contact submissions that were persisted.
var ContactsSubmittedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contacts_submitted_total",
		Help:      "Total number of contact submissions stored.",
	},
)

// ContactsDeletedTotal counts contacts removed by the admin, one per record.
var ContactsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contacts_deleted_total",
		Help:      "Total number of contacts deleted by the admin.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts admin login attempts.
// Label:
//   - result: "success", "invalid" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of admin login attempts, by result.",
	},
	[]string{"result"},
)

// ActiveSessions tracks the number of live admin sessions after each sweep.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Current number of unexpired admin sessions.",
	},
)

// RateLimitedTotal counts requests rejected with 429.
// Label:
//   - limiter: "general" or "auth"
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by a rate limiter.",
	},
	[]string{"limiter"},
)

// ── Email metrics ─────────────────────────────────────────────────────────────

// EmailNotificationsTotal counts notification outcomes.
// Label:
//   - result: "sent", "failed", "skipped" or "dropped"
var EmailNotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_notifications_total",
		Help:      "Total number of contact notification emails, by result.",
	},
	[]string{"result"},
)

// EmailQueueDepth is the number of notifications waiting for a worker.
var EmailQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "email_queue_depth",
		Help:      "Current number of notifications pending in the dispatcher queue.",
	},
)

// EmailSendDuration measures a delivery including its retries.
var EmailSendDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "email_send_duration_seconds",
		Help:      "Duration of notification delivery, retries included.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	},
)
