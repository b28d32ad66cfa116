package command

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	inventoryclient "github.com/tair/warehouse-erp/internal/inventory/client"
	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/database"
	"github.com/tair/warehouse-erp/pkg/lock"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// UpdateOrderLinesCommand replaces the lines of a draft order
type UpdateOrderLinesCommand struct {
	ID             uint             `json:"-"`
	Lines          []LineInput      `json:"lines" validate:"dive"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty" validate:"omitempty,gte=0"`
}

// UpdateOrderLinesHandler handles update order lines command
type UpdateOrderLinesHandler struct {
	repo    domain.OrderRepository
	tx      database.Transactor
	locker  lock.Locker
	catalog inventoryclient.CatalogClient
	now     func() time.Time
}

// NewUpdateOrderLinesHandler creates a new update order lines handler
func NewUpdateOrderLinesHandler(repo domain.OrderRepository, tx database.Transactor, locker lock.Locker, catalog inventoryclient.CatalogClient) *UpdateOrderLinesHandler {
	return &UpdateOrderLinesHandler{repo: repo, tx: tx, locker: locker, catalog: catalog, now: time.Now}
}

// Handle recomputes the totals from the new lines. Only DRAFT orders change.
func (h *UpdateOrderLinesHandler) Handle(ctx context.Context, cmd UpdateOrderLinesCommand) (*domain.Order, error) {
	if len(cmd.Lines) == 0 {
		return nil, apperr.New(apperr.KindEmptyOrder, "order must have at least one line")
	}
	normalizeLines(cmd.Lines)
	if err := apperr.ValidateStruct(cmd); err != nil {
		return nil, err
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
	if order.Status != domain.StatusDraft {
		return nil, apperr.New(apperr.KindInvalidTransition, "lines of a %s order cannot change", order.Status)
	}

	lines, err := buildLines(ctx, h.catalog, cmd.Lines)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	discount := order.DiscountAmount
	if cmd.DiscountAmount != nil {
		discount = *cmd.DiscountAmount
	}
	totals, err := domain.ComputeTotals(order.Amounts(), discount, order.TaxRate)
	if err != nil {
		return nil, err
	}
	order.ApplyTotals(totals)
	order.UpdatedAt = h.now()

	err = h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return h.repo.ReplaceLines(ctx, order)
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	logger.Info(ctx).
		Uint("order_id", order.ID).
		Str("total", order.Total.String()).
		Msg("Order lines updated")
	return order, nil
}
