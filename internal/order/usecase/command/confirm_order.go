package command

import (
	"context"
	"errors"
	"strconv"
	"time"

	inventorydomain "github.com/tair/warehouse-erp/internal/inventory/domain"
	"github.com/tair/warehouse-erp/internal/order/client"
	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/kafka"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/lock"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// ConfirmOrderCommand confirms a draft order and takes its stock
type ConfirmOrderCommand struct {
	ID      uint
	ActorID uint
}

// ConfirmOrderHandler handles confirm order command
type ConfirmOrderHandler struct {
	repo      domain.OrderRepository
	locker    lock.Locker
	ledger    client.StockLedger
	publisher kafka.EventPublisher
	metrics   *Metrics
	now       func() time.Time
}

// NewConfirmOrderHandler creates a new confirm order handler
func NewConfirmOrderHandler(
	repo domain.OrderRepository,
	locker lock.Locker,
	ledger client.StockLedger,
	publisher kafka.EventPublisher,
	metrics *Metrics,
) *ConfirmOrderHandler {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &ConfirmOrderHandler{
		repo:      repo,
		locker:    locker,
		ledger:    ledger,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Handle writes one OUT/SALE movement per line and flips the order to
// CONFIRMED in the same transaction. A second confirmation, concurrent or
// later, fails without touching stock.
func (h *ConfirmOrderHandler) Handle(ctx context.Context, cmd ConfirmOrderCommand) (*domain.Order, error) {
	if cmd.ActorID == 0 {
		return nil, apperr.InvalidField("actor_id", "is required")
	}

	release, err := h.locker.TryAcquire(ctx, orderLockKey(cmd.ID))
	if errors.Is(err, lock.ErrNotObtained) {
		return nil, apperr.Conflict(apperr.CodeOrderLocked, "order %d is being updated", cmd.ID)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer release()

	order, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, apperr.From(err)
	}
	if err := domain.ValidateTransition(order.Status, domain.StatusConfirmed); err != nil {
		return nil, err
	}

	totals, err := domain.ComputeTotals(order.Amounts(), order.DiscountAmount, order.TaxRate)
	if err != nil {
		return nil, err
	}
	if !order.Matches(totals) {
		return nil, apperr.Internal(errors.New("stored order totals do not match its lines"))
	}

	now := h.now()
	err = h.ledger.Commit(ctx, client.StockRequest{
		WarehouseID: order.WarehouseID,
		Type:        inventorydomain.MovementOut,
		RefType:     inventorydomain.RefSale,
		RefID:       strconv.FormatUint(uint64(order.ID), 10),
		Notes:       "order " + order.OrderNumber,
		ActorID:     cmd.ActorID,
		Lines:       stockLines(order),
	}, func(ctx context.Context) error {
		return h.repo.TransitionStatus(ctx, order.ID, domain.StatusDraft, domain.StatusConfirmed, now)
	})
	if err != nil {
		return nil, apperr.From(err)
	}
	order.Status = domain.StatusConfirmed
	order.ConfirmedAt = &now

	h.metrics.ordersConfirmed.Inc()
	h.metrics.statusTransitions.WithLabelValues(string(domain.StatusDraft), string(domain.StatusConfirmed)).Inc()
	logger.Info(ctx).
		Uint("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Uint("actor_id", cmd.ActorID).
		Msg("Order confirmed")

	h.publishConfirmed(ctx, order, cmd.ActorID)
	publishStatusChanged(ctx, h.publisher, order, domain.StatusDraft, false, cmd.ActorID)
	return order, nil
}

func (h *ConfirmOrderHandler) publishConfirmed(ctx context.Context, order *domain.Order, actorID uint) {
	lines := make([]kafka.OrderLineEvent, len(order.Lines))
	for i, l := range order.Lines {
		lines[i] = kafka.OrderLineEvent{SKUCode: l.SKUCode, Quantity: l.Quantity, LineTotal: l.LineTotal}
	}
	err := h.publisher.PublishOrderConfirmed(ctx, kafka.OrderConfirmedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		WarehouseID: order.WarehouseID,
		Channel:     string(order.Channel),
		Total:       order.Total,
		Lines:       lines,
		ActorID:     actorID,
	})
	if err != nil {
		logger.Error(ctx).Err(err).Uint("order_id", order.ID).Msg("Failed to publish order confirmed event")
	}
}

func publishStatusChanged(ctx context.Context, publisher kafka.EventPublisher, order *domain.Order, from domain.Status, restocked bool, actorID uint) {
	err := publisher.PublishOrderStatusChanged(ctx, kafka.OrderStatusChangedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		From:        string(from),
		To:          string(order.Status),
		Restocked:   restocked,
		ActorID:     actorID,
	})
	if err != nil {
		logger.Error(ctx).Err(err).Uint("order_id", order.ID).Msg("Failed to publish order status event")
	}
}

func stockLines(order *domain.Order) []client.StockLine {
	lines := make([]client.StockLine, len(order.Lines))
	for i, l := range order.Lines {
		lines[i] = client.StockLine{ProductID: l.ProductID, SKUCode: l.SKUCode, Quantity: l.Quantity}
	}
	return lines
}
