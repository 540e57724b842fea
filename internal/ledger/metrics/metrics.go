package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the ledger.
type Metrics struct {
	Credits   prometheus.Counter
	Debits    prometheus.Counter
	Transfers prometheus.Counter
}

// New creates and registers all ledger metrics.
func New() *Metrics {
	return &Metrics{
		Credits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_ledger_credits_total",
			Help: "Total number of successful ledger credits",
		}),
		Debits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_ledger_debits_total",
			Help: "Total number of successful ledger debits",
		}),
		Transfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_ledger_transfers_total",
			Help: "Total number of successful ledger transfers",
		}),
	}
}
