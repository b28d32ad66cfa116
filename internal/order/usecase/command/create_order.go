package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	inventoryclient "github.com/tair/warehouse-erp/internal/inventory/client"
	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/database"
	"github.com/tair/warehouse-erp/pkg/lock"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// maxNumberAttempts bounds retries after an order number collision
const maxNumberAttempts = 3

var errDuplicateNumber = &apperr.Error{Kind: apperr.KindConflict, Code: apperr.CodeDuplicateNumber}

// CreateOrderCommand represents the command to create a draft order
type CreateOrderCommand struct {
	CustomerID     *uint                `json:"customer_id,omitempty"`
	Customer       domain.CustomerInfo  `json:"customer"`
	Lines          []LineInput          `json:"lines" validate:"dive"`
	DiscountAmount decimal.Decimal      `json:"discount_amount" validate:"gte=0"`
	Channel        domain.Channel       `json:"channel" validate:"required,oneof=POS B2B ONLINE"`
	WarehouseID    uint                 `json:"warehouse_id" validate:"required"`
	PaymentMethod  domain.PaymentMethod `json:"payment_method,omitempty" validate:"omitempty,oneof=CASH CARD TRANSFER CREDIT"`
	Notes          string               `json:"notes,omitempty" validate:"max=1000"`
	ActorID        uint                 `json:"-"`
}

// CreateOrderHandler handles create order command
type CreateOrderHandler struct {
	repo       domain.OrderRepository
	tx         database.Transactor
	locker     lock.Locker
	sequence   domain.SequenceAllocator
	catalog    inventoryclient.CatalogClient
	warehouses inventoryclient.WarehouseClient
	metrics    *Metrics
	now        func() time.Time
}

// NewCreateOrderHandler creates a new create order handler
func NewCreateOrderHandler(
	repo domain.OrderRepository,
	tx database.Transactor,
	locker lock.Locker,
	sequence domain.SequenceAllocator,
	catalog inventoryclient.CatalogClient,
	warehouses inventoryclient.WarehouseClient,
	metrics *Metrics,
) *CreateOrderHandler {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &CreateOrderHandler{
		repo:       repo,
		tx:         tx,
		locker:     locker,
		sequence:   sequence,
		catalog:    catalog,
		warehouses: warehouses,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Handle validates the lines, computes totals and stores a DRAFT order
// under a freshly allocated number
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if len(cmd.Lines) == 0 {
		return nil, apperr.New(apperr.KindEmptyOrder, "order must have at least one line")
	}
	cmd.Customer.Name = strings.TrimSpace(cmd.Customer.Name)
	normalizeLines(cmd.Lines)
	if err := apperr.ValidateStruct(cmd); err != nil {
		return nil, err
	}
	if cmd.ActorID == 0 {
		return nil, apperr.InvalidField("actor_id", "is required")
	}

	warehouse, err := h.warehouses.GetWarehouse(ctx, cmd.WarehouseID)
	if err != nil {
		return nil, apperr.From(err)
	}
	if !warehouse.IsActive {
		return nil, apperr.InvalidField("warehouse_id", "warehouse is not active")
	}

	lines, err := buildLines(ctx, h.catalog, cmd.Lines)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		CustomerID:    cmd.CustomerID,
		Customer:      cmd.Customer,
		Lines:         lines,
		Status:        domain.StatusDraft,
		Channel:       cmd.Channel,
		WarehouseID:   cmd.WarehouseID,
		PaymentMethod: cmd.PaymentMethod,
		PaymentStatus: domain.PaymentPending,
		Notes:         strings.TrimSpace(cmd.Notes),
		ActorID:       cmd.ActorID,
	}
	totals, err := domain.ComputeTotals(order.Amounts(), cmd.DiscountAmount, warehouse.DefaultTaxRate)
	if err != nil {
		return nil, err
	}
	order.ApplyTotals(totals)

	for attempt := 1; ; attempt++ {
		err = h.insert(ctx, order)
		if err == nil {
			break
		}
		if !errors.Is(err, errDuplicateNumber) {
			return nil, apperr.From(err)
		}
		if attempt == maxNumberAttempts {
			return nil, apperr.Internal(err)
		}
		logger.Warn(ctx).
			Str("order_number", order.OrderNumber).
			Int("attempt", attempt).
			Msg("Order number collision, retrying")
	}

	h.metrics.ordersCreated.WithLabelValues(string(order.Channel)).Inc()
	logger.Info(ctx).
		Uint("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("total", order.Total.String()).
		Int("line_count", len(order.Lines)).
		Msg("Order created")

	return order, nil
}

// insert allocates the next number of the day and stores the order in one
// transaction, holding the day's lock around both
func (h *CreateOrderHandler) insert(ctx context.Context, order *domain.Order) error {
	order.ID = 0
	for i := range order.Lines {
		order.Lines[i].ID = 0
		order.Lines[i].OrderID = 0
	}

	day := domain.DayKey(h.now())
	release, err := h.locker.Acquire(ctx, "order:seq:"+day)
	if err != nil {
		return apperr.Internal(err)
	}
	defer release()

	return h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		seq, err := h.sequence.Next(ctx, day)
		if err != nil {
			return err
		}
		number, err := domain.FormatOrderNumber(day, seq)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		return h.repo.Create(ctx, order)
	})
}
