// Package metrics holds the service's prometheus collectors, exposed on
// /metrics by the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClaimToggles counts check/uncheck calls by whether they applied a change
// or hit the idempotent no-op path.
var ClaimToggles = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mealcheck_claim_toggles_total",
	Help: "Claim toggle operations by action and outcome.",
}, []string{"action", "outcome"})

// AuditWrites counts audit records persisted by the worker.
var AuditWrites = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mealcheck_audit_writes_total",
	Help: "Claim audit records written.",
})

const (
	OutcomeApplied = "applied"
	OutcomeNoop    = "noop"
)
