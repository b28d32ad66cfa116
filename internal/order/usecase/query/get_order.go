package query

import (
	"context"
	"strings"

	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
)

// GetOrderHandler handles get order queries
type GetOrderHandler struct {
	repo domain.OrderRepository
}

// NewGetOrderHandler creates a new get order handler
func NewGetOrderHandler(repo domain.OrderRepository) *GetOrderHandler {
	return &GetOrderHandler{repo: repo}
}

// Handle returns the order with its lines
func (h *GetOrderHandler) Handle(ctx context.Context, id uint) (*domain.Order, error) {
	if id == 0 {
		return nil, apperr.InvalidField("id", "is required")
	}
	order, err := h.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.From(err)
	}
	return order, nil
}

// ByNumber returns the order with the given ORD- number
func (h *GetOrderHandler) ByNumber(ctx context.Context, number string) (*domain.Order, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, apperr.InvalidField("order_number", "is required")
	}
	order, err := h.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, apperr.From(err)
	}
	return order, nil
}
