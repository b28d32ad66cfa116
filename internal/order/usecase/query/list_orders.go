package query

import (
	"context"
	"time"

	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/pagination"
)

// ListOrdersQuery represents the order listing query
type ListOrdersQuery struct {
	pagination.Params
	Status        domain.Status
	Channel       domain.Channel
	PaymentStatus domain.PaymentStatus
	WarehouseID   uint
	CustomerID    *uint
	DateFrom      *time.Time
	DateTo        *time.Time
}

// ListOrdersHandler handles list orders query
type ListOrdersHandler struct {
	repo domain.OrderRepository
}

// NewListOrdersHandler creates a new list orders handler
func NewListOrdersHandler(repo domain.OrderRepository) *ListOrdersHandler {
	return &ListOrdersHandler{repo: repo}
}

// Handle returns one page of orders, newest first
func (h *ListOrdersHandler) Handle(ctx context.Context, q ListOrdersQuery) (*pagination.Page[domain.Order], error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	if q.Status != "" && !domain.ValidStatus(q.Status) {
		return nil, apperr.InvalidField("status", "is not a known order status")
	}
	if q.DateFrom != nil && q.DateTo != nil && q.DateTo.Before(*q.DateFrom) {
		return nil, apperr.InvalidField("date_to", "must not be before date_from")
	}

	orders, total, err := h.repo.List(ctx, domain.OrderFilter{
		Status:        q.Status,
		Channel:       q.Channel,
		PaymentStatus: q.PaymentStatus,
		WarehouseID:   q.WarehouseID,
		CustomerID:    q.CustomerID,
		DateFrom:      q.DateFrom,
		DateTo:        q.DateTo,
		Page:          q.Page,
		Limit:         q.Limit,
	})
	if err != nil {
		return nil, apperr.From(err)
	}
	return &pagination.Page[domain.Order]{
		Items: orders,
		Meta:  pagination.NewMeta(q.Params, total),
	}, nil
}
