package command

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the ledger counters
type Metrics struct {
	movementsRecorded *prometheus.CounterVec
	insufficientStock prometheus.Counter
}

// NewMetrics creates the ledger counters and registers them with reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		movementsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_movements_recorded_total",
				Help: "Total number of stock movements appended to the ledger",
			},
			[]string{"type", "ref_type"},
		),
		insufficientStock: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stock_insufficient_rejections_total",
				Help: "Total number of movement batches rejected for insufficient stock",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.movementsRecorded, m.insufficientStock)
	}
	return m
}
