/*
metrics.go - Prometheus counters for the HTTP surface

PURPOSE:
  Counts what the household actually does with the engine: ledger
  mutations by kind and outcome, ledgers created, ledgers compacted.
  Exposed on GET /metrics.

SEE ALSO:
  - server.go:    /metrics route
  - scheduler.go: Compaction counter
*/
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mutation outcomes.
const (
	outcomeChanged = "changed"
	outcomeNoop    = "noop"
	outcomeError   = "error"
)

// LedgerMutations counts mutation requests by action and outcome.
var LedgerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "quest",
	Name:      "ledger_mutations_total",
	Help:      "Day ledger mutations by action and outcome",
}, []string{"action", "outcome"})

// LedgersCreated counts ledgers created on first access.
var LedgersCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "quest",
	Name:      "ledgers_created_total",
	Help:      "Day ledgers created on first access",
})

// LedgersCompacted counts ledgers folded into compact summaries.
var LedgersCompacted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "quest",
	Name:      "ledgers_compacted_total",
	Help:      "Day ledgers compacted by retention",
})

func observeMutation(action string, changed bool, err error) {
	outcome := outcomeNoop
	switch {
	case err != nil:
		outcome = outcomeError
	case changed:
		outcome = outcomeChanged
	}
	LedgerMutations.WithLabelValues(action, outcome).Inc()
}
