package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for law enforcement.
type Metrics struct {
	WantedIssued  prometheus.Counter
	WantedCleared prometheus.Counter
	FinesIssued   prometheus.Counter
	FinesSettled  *prometheus.CounterVec
}

// New creates and registers all enforcement metrics.
func New() *Metrics {
	return &Metrics{
		WantedIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_enforcement_wanted_issued_total",
			Help: "Total number of wanted records issued",
		}),
		WantedCleared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_enforcement_wanted_cleared_total",
			Help: "Total number of wanted records cleared",
		}),
		FinesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_enforcement_fines_issued_total",
			Help: "Total number of fines issued",
		}),
		FinesSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "civica_enforcement_fines_settled_total",
			Help: "Total number of fines settled by outcome",
		}, []string{"outcome"}),
	}
}
