package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the business registry.
type Metrics struct {
	Created     prometheus.Counter
	Transfers   prometheus.Counter
	Withdrawals prometheus.Counter
}

// New creates and registers all business metrics.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_business_created_total",
			Help: "Total number of businesses created",
		}),
		Transfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_business_transfers_total",
			Help: "Total number of successful ownership transfers",
		}),
		Withdrawals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_business_withdrawals_total",
			Help: "Total number of successful revenue withdrawals",
		}),
	}
}
