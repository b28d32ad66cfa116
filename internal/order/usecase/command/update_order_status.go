package command

import (
	"context"
	"strconv"
	"time"

	inventorydomain "github.com/tair/warehouse-erp/internal/inventory/domain"
	"github.com/tair/warehouse-erp/internal/order/client"
	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/kafka"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/database"
	"github.com/tair/warehouse-erp/pkg/lock"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// UpdateOrderStatusCommand moves an order along its lifecycle
type UpdateOrderStatusCommand struct {
	ID      uint          `json:"-"`
	Status  domain.Status `json:"status" validate:"required"`
	ActorID uint          `json:"-"`
}

// UpdateOrderStatusHandler handles update order status command
type UpdateOrderStatusHandler struct {
	repo      domain.OrderRepository
	tx        database.Transactor
	locker    lock.Locker
	ledger    client.StockLedger
	confirm   *ConfirmOrderHandler
	publisher kafka.EventPublisher
	metrics   *Metrics
	now       func() time.Time
}

// NewUpdateOrderStatusHandler creates a new update order status handler
func NewUpdateOrderStatusHandler(
	repo domain.OrderRepository,
	tx database.Transactor,
	locker lock.Locker,
	ledger client.StockLedger,
	confirm *ConfirmOrderHandler,
	publisher kafka.EventPublisher,
	metrics *Metrics,
) *UpdateOrderStatusHandler {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &UpdateOrderStatusHandler{
		repo:      repo,
		tx:        tx,
		locker:    locker,
		ledger:    ledger,
		confirm:   confirm,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Handle applies one transition. Confirmation goes through ConfirmOrderHandler;
// cancelling an order whose stock was taken returns it with IN/RETURN movements.
func (h *UpdateOrderStatusHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) (*domain.Order, error) {
	if err := apperr.ValidateStruct(cmd); err != nil {
		return nil, err
	}
	if !domain.ValidStatus(cmd.Status) {
		return nil, apperr.InvalidField("status", "is not a known order status")
	}
	if cmd.ActorID == 0 {
		return nil, apperr.InvalidField("actor_id", "is required")
	}
	if cmd.Status == domain.StatusConfirmed {
		return h.confirm.Handle(ctx, ConfirmOrderCommand{ID: cmd.ID, ActorID: cmd.ActorID})
	}

	release, err := h.locker.Acquire(ctx, orderLockKey(cmd.ID))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer release()

	order, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, apperr.From(err)
	}
	from := order.Status
	if err := domain.ValidateTransition(from, cmd.Status); err != nil {
		return nil, err
	}

	now := h.now()
	transition := func(ctx context.Context) error {
		return h.repo.TransitionStatus(ctx, order.ID, from, cmd.Status, now)
	}

	restock := cmd.Status == domain.StatusCancelled && domain.RestocksOnCancel(from)
	if restock {
		err = h.ledger.Commit(ctx, client.StockRequest{
			WarehouseID: order.WarehouseID,
			Type:        inventorydomain.MovementIn,
			RefType:     inventorydomain.RefReturn,
			RefID:       strconv.FormatUint(uint64(order.ID), 10),
			Notes:       "cancelled order " + order.OrderNumber,
			ActorID:     cmd.ActorID,
			Lines:       stockLines(order),
		}, transition)
	} else {
		err = h.tx.WithinTransaction(ctx, transition)
	}
	if err != nil {
		return nil, apperr.From(err)
	}
	order.Status = cmd.Status
	order.UpdatedAt = now

	h.metrics.statusTransitions.WithLabelValues(string(from), string(cmd.Status)).Inc()
	logger.Info(ctx).
		Uint("order_id", order.ID).
		Str("from", string(from)).
		Str("to", string(cmd.Status)).
		Bool("restocked", restock).
		Msg("Order status changed")

	publishStatusChanged(ctx, h.publisher, order, from, restock, cmd.ActorID)
	return order, nil
}
