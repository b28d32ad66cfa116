package command

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the order engine counters
type Metrics struct {
	ordersCreated     *prometheus.CounterVec
	ordersConfirmed   prometheus.Counter
	statusTransitions *prometheus.CounterVec
}

// NewMetrics creates the order counters and registers them with reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_created_total",
				Help: "Total number of orders created",
			},
			[]string{"channel"},
		),
		ordersConfirmed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_confirmed_total",
				Help: "Total number of orders confirmed",
			},
		),
		statusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_status_transitions_total",
				Help: "Total number of committed order status transitions",
			},
			[]string{"from", "to"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.ordersCreated, m.ordersConfirmed, m.statusTransitions)
	}
	return m
}
