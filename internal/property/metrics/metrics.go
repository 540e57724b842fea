package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the property registry.
type Metrics struct {
	Purchases      prometheus.Counter
	Rentals        prometheus.Counter
	Vacancies      prometheus.Counter
	ExpiredRentals prometheus.Counter
}

// New creates and registers all property metrics.
func New() *Metrics {
	return &Metrics{
		Purchases: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_property_purchases_total",
			Help: "Total number of successful property purchases",
		}),
		Rentals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_property_rentals_total",
			Help: "Total number of successful property rentals",
		}),
		Vacancies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_property_vacancies_total",
			Help: "Total number of vacate operations",
		}),
		ExpiredRentals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civica_property_expired_rentals_total",
			Help: "Total number of rentals vacated by the expiry sweep",
		}),
	}
}
