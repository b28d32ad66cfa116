// Package audit follows the ledger and order topics and writes one
// structured log line per committed change.
package audit

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/warehouse-erp/kafka"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// Topics the auditor subscribes to
var Topics = []string{kafka.TopicStockMovements, kafka.TopicOrders}

// Registrar accepts event handlers by type
type Registrar interface {
	RegisterHandler(eventType string, handler kafka.EventHandler)
}

// Auditor turns ledger and order events into audit log lines
type Auditor struct {
	events  *prometheus.CounterVec
	failed  *prometheus.CounterVec
	units   *prometheus.CounterVec
	revenue prometheus.Counter
}

// NewAuditor creates an auditor whose counters go to reg; a nil reg keeps
// them unregistered
func NewAuditor(reg prometheus.Registerer) *Auditor {
	a := &Auditor{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_audit_events_total",
			Help: "Audited events by type",
		}, []string{"event_type"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_audit_decode_failures_total",
			Help: "Events that could not be decoded",
		}, []string{"event_type"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_audit_stock_units_total",
			Help: "Absolute stock units moved by movement type",
		}, []string{"type"}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_audit_confirmed_revenue_total",
			Help: "Sum of confirmed order totals",
		}),
	}
	if reg != nil {
		reg.MustRegister(a.events, a.failed, a.units, a.revenue)
	}
	return a
}

// Register subscribes the auditor to every event type it understands
func (a *Auditor) Register(r Registrar) {
	r.RegisterHandler(kafka.EventTypeStockMovementRecorded, a.StockMovementRecorded)
	r.RegisterHandler(kafka.EventTypeOrderConfirmed, a.OrderConfirmed)
	r.RegisterHandler(kafka.EventTypeOrderStatusChanged, a.OrderStatusChanged)
}

func (a *Auditor) decode(msg kafka.Message, v interface{}) error {
	if err := msg.Decode(v); err != nil {
		a.failed.WithLabelValues(msg.Type).Inc()
		return err
	}
	a.events.WithLabelValues(msg.Type).Inc()
	return nil
}

// StockMovementRecorded logs one ledger row
func (a *Auditor) StockMovementRecorded(ctx context.Context, msg kafka.Message) error {
	var event kafka.StockMovementRecordedEvent
	if err := a.decode(msg, &event); err != nil {
		return err
	}
	units, _ := event.Quantity.Abs().Float64()
	a.units.WithLabelValues(event.Type).Add(units)

	logger.Info(ctx).
		Str("event_id", event.EventID).
		Uint("movement_id", event.MovementID).
		Str("sku_code", event.SKUCode).
		Uint("warehouse_id", event.WarehouseID).
		Str("type", event.Type).
		Str("ref_type", event.RefType).
		Str("ref_id", event.RefID).
		Str("delta", event.Delta.String()).
		Str("resulting_quantity", event.ResultingQuantity.String()).
		Uint("actor_id", event.ActorID).
		Msg("Stock movement recorded")

	if event.ResultingQuantity.IsNegative() {
		logger.Warn(ctx).
			Str("sku_code", event.SKUCode).
			Uint("warehouse_id", event.WarehouseID).
			Str("resulting_quantity", event.ResultingQuantity.String()).
			Msg("Stock level went negative")
	}
	return nil
}

// OrderConfirmed logs a confirmed order and its lines
func (a *Auditor) OrderConfirmed(ctx context.Context, msg kafka.Message) error {
	var event kafka.OrderConfirmedEvent
	if err := a.decode(msg, &event); err != nil {
		return err
	}
	total, _ := event.Total.Float64()
	a.revenue.Add(total)

	logger.Info(ctx).
		Str("event_id", event.EventID).
		Str("order_number", event.OrderNumber).
		Uint("warehouse_id", event.WarehouseID).
		Str("channel", event.Channel).
		Str("total", event.Total.String()).
		Int("lines", len(event.Lines)).
		Uint("actor_id", event.ActorID).
		Msg("Order confirmed")
	return nil
}

// OrderStatusChanged logs a status transition
func (a *Auditor) OrderStatusChanged(ctx context.Context, msg kafka.Message) error {
	var event kafka.OrderStatusChangedEvent
	if err := a.decode(msg, &event); err != nil {
		return err
	}

	logger.Info(ctx).
		Str("event_id", event.EventID).
		Str("order_number", event.OrderNumber).
		Str("from", event.From).
		Str("to", event.To).
		Bool("restocked", event.Restocked).
		Uint("actor_id", event.ActorID).
		Msg("Order status changed")
	return nil
}
