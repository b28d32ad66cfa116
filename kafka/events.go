package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeStockMovementRecorded = "stock.movement.recorded"
	EventTypeOrderConfirmed        = "order.confirmed"
	EventTypeOrderStatusChanged    = "order.status.changed"
)

// Kafka topics
const (
	TopicStockMovements = "stock-movements"
	TopicOrders         = "orders"
)

// Metadata is shared by every event
type Metadata struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// StockMovementRecordedEvent is emitted after a movement commits
type StockMovementRecordedEvent struct {
	Metadata
	MovementID        uint            `json:"movement_id"`
	ProductID         uint            `json:"product_id"`
	SKUCode           string          `json:"sku_code"`
	WarehouseID       uint            `json:"warehouse_id"`
	Type              string          `json:"type"`
	RefType           string          `json:"ref_type"`
	RefID             string          `json:"ref_id,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	Delta             decimal.Decimal `json:"delta"`
	ResultingQuantity decimal.Decimal `json:"resulting_quantity"`
	ActorID           uint            `json:"actor_id"`
}

// OrderLineEvent is one line of a confirmed order
type OrderLineEvent struct {
	SKUCode   string          `json:"sku_code"`
	Quantity  decimal.Decimal `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderConfirmedEvent is emitted once an order's stock has been committed
type OrderConfirmedEvent struct {
	Metadata
	OrderID     uint             `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	WarehouseID uint             `json:"warehouse_id"`
	Channel     string           `json:"channel"`
	Total       decimal.Decimal  `json:"total"`
	Lines       []OrderLineEvent `json:"lines"`
	ActorID     uint             `json:"actor_id"`
}

// OrderStatusChangedEvent is emitted for every committed status transition
type OrderStatusChangedEvent struct {
	Metadata
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	From        string `json:"from"`
	To          string `json:"to"`
	Restocked   bool   `json:"restocked"`
	ActorID     uint   `json:"actor_id"`
}
