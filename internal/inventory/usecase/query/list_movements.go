package query

import (
	"context"
	"strings"
	"time"

	"github.com/tair/warehouse-erp/internal/inventory/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/pagination"
)

// ListMovementsQuery filters the stock ledger
type ListMovementsQuery struct {
	pagination.Params
	ProductID   uint
	SKUCode     string
	Type        domain.MovementType
	RefType     domain.RefType
	RefID       string
	WarehouseID uint
	ActorID     uint
	DateFrom    *time.Time
	DateTo      *time.Time
}

// ListMovementsHandler handles list movements query
type ListMovementsHandler struct {
	repo domain.StockRepository
}

// NewListMovementsHandler creates a new list movements handler
func NewListMovementsHandler(repo domain.StockRepository) *ListMovementsHandler {
	return &ListMovementsHandler{repo: repo}
}

// Handle returns one page of movements, newest first
func (h *ListMovementsHandler) Handle(ctx context.Context, q ListMovementsQuery) (*pagination.Page[domain.StockMovement], error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	if q.Type != "" && !domain.ValidMovementType(q.Type) {
		return nil, apperr.InvalidField("type", "must be one of IN OUT ADJ")
	}
	if q.RefType != "" && !domain.ValidRefType(q.RefType) {
		return nil, apperr.InvalidField("ref_type", "is not a known reference type")
	}
	if q.DateFrom != nil && q.DateTo != nil && q.DateTo.Before(*q.DateFrom) {
		return nil, apperr.InvalidField("date_to", "must not be before date_from")
	}

	movements, total, err := h.repo.ListMovements(ctx, domain.MovementFilter{
		ProductID:   q.ProductID,
		SKUCode:     strings.ToUpper(strings.TrimSpace(q.SKUCode)),
		Type:        q.Type,
		RefType:     q.RefType,
		RefID:       q.RefID,
		WarehouseID: q.WarehouseID,
		ActorID:     q.ActorID,
		DateFrom:    q.DateFrom,
		DateTo:      q.DateTo,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		return nil, apperr.From(err)
	}
	return &pagination.Page[domain.StockMovement]{
		Items: movements,
		Meta:  pagination.NewMeta(q.Params, total),
	}, nil
}
