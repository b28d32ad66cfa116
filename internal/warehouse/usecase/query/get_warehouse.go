package query

import (
	"context"

	"github.com/tair/warehouse-erp/internal/warehouse/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/pagination"
)

// GetWarehouseHandler handles get warehouse query
type GetWarehouseHandler struct {
	repo domain.WarehouseRepository
}

// NewGetWarehouseHandler creates a new get warehouse handler
func NewGetWarehouseHandler(repo domain.WarehouseRepository) *GetWarehouseHandler {
	return &GetWarehouseHandler{repo: repo}
}

// Handle returns the warehouse by id
func (h *GetWarehouseHandler) Handle(ctx context.Context, id uint) (*domain.Warehouse, error) {
	if id == 0 {
		return nil, apperr.InvalidField("warehouse_id", "is required")
	}
	warehouse, err := h.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.From(err)
	}
	return warehouse, nil
}

// ByCode returns the warehouse with the given code
func (h *GetWarehouseHandler) ByCode(ctx context.Context, code string) (*domain.Warehouse, error) {
	warehouse, err := h.repo.FindByCode(ctx, domain.NormalizeCode(code))
	if err != nil {
		return nil, apperr.From(err)
	}
	return warehouse, nil
}

// ListWarehousesQuery represents the warehouse listing query
type ListWarehousesQuery struct {
	pagination.Params
	IsActive *bool
	Search   string
}

// ListWarehousesHandler handles list warehouses query
type ListWarehousesHandler struct {
	repo domain.WarehouseRepository
}

// NewListWarehousesHandler creates a new list warehouses handler
func NewListWarehousesHandler(repo domain.WarehouseRepository) *ListWarehousesHandler {
	return &ListWarehousesHandler{repo: repo}
}

// Handle executes the list warehouses query
func (h *ListWarehousesHandler) Handle(ctx context.Context, q ListWarehousesQuery) (*pagination.Page[domain.Warehouse], error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	warehouses, total, err := h.repo.List(ctx, domain.WarehouseFilter{
		IsActive: q.IsActive,
		Search:   q.Search,
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, apperr.From(err)
	}
	return &pagination.Page[domain.Warehouse]{
		Items: warehouses,
		Meta:  pagination.NewMeta(q.Params, total),
	}, nil
}
