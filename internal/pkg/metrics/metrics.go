// Package metrics defines and registers the custom Prometheus metrics of the
// admin API. It is the single source of truth for metric names, labels and
// help strings.
//
// All metrics register with the default registry on package init; the
// /metrics route serves that registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "admin"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", "throttled" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// CredentialFailuresTotal records why credential validation failed. Callers
// only ever see "invalid credentials"; this is where the distinction lives.
// Label:
//   - reason: "unknown_email" or "wrong_secret"
var CredentialFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "credential_failures_total",
		Help:      "Total number of failed credential validations, by internal reason.",
	},
	[]string{"reason"},
)

// UsersCreatedTotal counts user creation attempts.
// Label:
//   - result: "created", "duplicate_email" or "error"
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "users_created_total",
		Help:      "Total number of user creation attempts, by result.",
	},
	[]string{"result"},
)

// GuardRejectionsTotal counts requests turned away by the auth middleware.
// Label:
//   - reason: "missing_header", "bad_scheme", "malformed", "invalid" or "expired"
var GuardRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "guard_rejections_total",
		Help:      "Total number of requests rejected before reaching a protected handler.",
	},
	[]string{"reason"},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// ProductMutationsTotal counts successful catalog writes.
// Label:
//   - op: "create", "update" or "delete"
var ProductMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "product_mutations_total",
		Help:      "Total number of successful product writes, by operation.",
	},
	[]string{"op"},
)

// ImageCleanupQueueDepth tracks images waiting for deletion in each worker channel.
var ImageCleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "image_cleanup_queue_depth",
		Help:      "Current number of image deletions pending in each cleanup worker channel.",
	},
	[]string{"worker_id"},
)

// ImageCleanupErrorsTotal counts failed asynchronous image deletions.
var ImageCleanupErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "image_cleanup_errors_total",
		Help:      "Total number of orphaned images that could not be deleted.",
	},
)
