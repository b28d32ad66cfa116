package query

import (
	"context"

	"github.com/tair/warehouse-erp/internal/catalog/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/pagination"
)

// ListProductsQuery represents the product listing query
type ListProductsQuery struct {
	pagination.Params
	Search     string
	Brand      string
	CategoryID *uint
	Status     domain.SKUStatus
	IsActive   *bool
	Sort       string
}

// ListProductsHandler handles list products query
type ListProductsHandler struct {
	repo domain.ProductRepository
}

// NewListProductsHandler creates a new list products handler
func NewListProductsHandler(repo domain.ProductRepository) *ListProductsHandler {
	return &ListProductsHandler{repo: repo}
}

// Handle executes the list products query
func (h *ListProductsHandler) Handle(ctx context.Context, q ListProductsQuery) (*pagination.Page[domain.Product], error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	switch q.Status {
	case "", domain.SKUStatusActive, domain.SKUStatusArchived:
	default:
		return nil, apperr.InvalidField("status", "must be one of [ACTIVE ARCHIVED]")
	}

	products, total, err := h.repo.List(ctx, domain.ProductFilter{
		Search:     q.Search,
		Brand:      q.Brand,
		CategoryID: q.CategoryID,
		Status:     q.Status,
		IsActive:   q.IsActive,
		Sort:       q.Sort,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	return &pagination.Page[domain.Product]{
		Items: products,
		Meta:  pagination.NewMeta(q.Params, total),
	}, nil
}
