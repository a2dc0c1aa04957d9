// Package metrics defines the custom Prometheus metrics of the escrow API.
// HTTP request metrics come from the echoprometheus middleware; the
// collectors here describe business outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "escrow"

// ── Escrow metrics ────────────────────────────────────────────────────────────

// EscrowsCreatedTotal counts escrows opened by buyers.
// Label:
//   - payment_method: the method chosen at creation (e.g. "crypto")
var EscrowsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "escrows_created_total",
		Help:      "Total number of escrows created, by payment method.",
	},
	[]string{"payment_method"},
)

// TransitionsTotal counts state machine operations.
// Labels:
//   - op: the operation (e.g. "release_funds", "seller_reject")
//   - result: "ok", "invalid_transition", "not_found" or "error"
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of escrow status transitions attempted, by operation and result.",
	},
	[]string{"op", "result"},
)

// TransitionDuration measures a transition from request to commit.
// Label:
//   - op: the operation
var TransitionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transition_duration_seconds",
		Help:      "Duration of escrow status transitions.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// IdempotencyTotal counts createEscrow requests that carried an Idempotency-Key.
// Label:
//   - result: "replayed" or "created"
var IdempotencyTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_total",
		Help:      "Total number of keyed createEscrow requests, by result.",
	},
	[]string{"result"},
)

// AttachmentsTotal counts attachments accepted for storage.
// Label:
//   - purpose: "delivery" or "kyc"
var AttachmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attachments_total",
		Help:      "Total number of attachments uploaded, by purpose.",
	},
	[]string{"purpose"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)
