package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for employment.
type Metrics struct {
	Payouts     *prometheus.CounterVec
	Assignments prometheus.Counter
}

// New creates and registers all employment metrics.
func New() *Metrics {
	return &Metrics{
		Payouts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "civica_employment_payouts_total",
			Help: "Total number of successful shift payouts by job kind",
		}, []string{"job"}),
		Assignments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_employment_assignments_total",
			Help: "Total number of successful job assignments",
		}),
	}
}
