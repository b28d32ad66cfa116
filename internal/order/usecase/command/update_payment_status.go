package command

import (
	"context"

	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/lock"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// UpdatePaymentStatusCommand records a payment state change
type UpdatePaymentStatusCommand struct {
	ID            uint                 `json:"-"`
	PaymentStatus domain.PaymentStatus `json:"payment_status" validate:"required,oneof=PENDING PAID PARTIAL REFUNDED"`
	PaymentMethod domain.PaymentMethod `json:"payment_method,omitempty" validate:"omitempty,oneof=CASH CARD TRANSFER CREDIT"`
}

// UpdatePaymentStatusHandler handles update payment status command
type UpdatePaymentStatusHandler struct {
	repo   domain.OrderRepository
	locker lock.Locker
}

// NewUpdatePaymentStatusHandler creates a new update payment status handler
func NewUpdatePaymentStatusHandler(repo domain.OrderRepository, locker lock.Locker) *UpdatePaymentStatusHandler {
	return &UpdatePaymentStatusHandler{repo: repo, locker: locker}
}

// Handle stores the payment status. A refunded order stays refunded.
func (h *UpdatePaymentStatusHandler) Handle(ctx context.Context, cmd UpdatePaymentStatusCommand) (*domain.Order, error) {
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
	if order.PaymentStatus == domain.PaymentRefunded && cmd.PaymentStatus != domain.PaymentRefunded {
		return nil, apperr.InvalidTransition(string(order.PaymentStatus), string(cmd.PaymentStatus))
	}

	if err := h.repo.UpdatePayment(ctx, order.ID, cmd.PaymentStatus, cmd.PaymentMethod); err != nil {
		return nil, apperr.From(err)
	}
	order.PaymentStatus = cmd.PaymentStatus
	if cmd.PaymentMethod != "" {
		order.PaymentMethod = cmd.PaymentMethod
	}

	logger.Info(ctx).
		Uint("order_id", order.ID).
		Str("payment_status", string(order.PaymentStatus)).
		Msg("Order payment updated")
	return order, nil
}
