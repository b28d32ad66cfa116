package query

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tair/warehouse-erp/internal/inventory/client"
	"github.com/tair/warehouse-erp/internal/inventory/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// GetStockLevelHandler returns the on-hand quantity of a SKU in a warehouse
type GetStockLevelHandler struct {
	repo       domain.StockRepository
	catalog    client.CatalogClient
	warehouses client.WarehouseClient
}

// NewGetStockLevelHandler creates a new get stock level handler
func NewGetStockLevelHandler(repo domain.StockRepository, catalog client.CatalogClient, warehouses client.WarehouseClient) *GetStockLevelHandler {
	return &GetStockLevelHandler{repo: repo, catalog: catalog, warehouses: warehouses}
}

// Handle returns the level; a SKU that never moved reports zero
func (h *GetStockLevelHandler) Handle(ctx context.Context, skuCode string, warehouseID uint) (*domain.StockLevel, error) {
	sku, err := h.catalog.ResolveSKU(ctx, 0, skuCode)
	if err != nil {
		return nil, apperr.From(err)
	}
	if _, err := h.warehouses.GetWarehouse(ctx, warehouseID); err != nil {
		return nil, apperr.From(err)
	}

	level, err := h.repo.GetLevel(ctx, domain.LevelKey{SKUCode: sku.Code, WarehouseID: warehouseID})
	if apperr.IsKind(err, apperr.KindNotFound) {
		return &domain.StockLevel{
			SKUCode:     sku.Code,
			WarehouseID: warehouseID,
			ProductID:   sku.ProductID,
			Quantity:    decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, apperr.From(err)
	}
	return level, nil
}

// ListStockLevelsHandler lists cached levels
type ListStockLevelsHandler struct {
	repo domain.StockRepository
}

// NewListStockLevelsHandler creates a new list stock levels handler
func NewListStockLevelsHandler(repo domain.StockRepository) *ListStockLevelsHandler {
	return &ListStockLevelsHandler{repo: repo}
}

// Handle returns every level matching the filter
func (h *ListStockLevelsHandler) Handle(ctx context.Context, filter domain.LevelFilter) ([]domain.StockLevel, error) {
	filter.SKUCode = strings.ToUpper(strings.TrimSpace(filter.SKUCode))
	levels, err := h.repo.ListLevels(ctx, filter)
	if err != nil {
		return nil, apperr.From(err)
	}
	return levels, nil
}

// Verification compares a cached level with its ledger
type Verification struct {
	SKUCode       string          `json:"sku_code"`
	WarehouseID   uint            `json:"warehouse_id"`
	Cached        decimal.Decimal `json:"cached_quantity"`
	LedgerSum     decimal.Decimal `json:"ledger_quantity"`
	MovementCount int64           `json:"movement_count"`
	Consistent    bool            `json:"consistent"`
}

// VerifyStockLevelHandler audits a cached level against the movement history
type VerifyStockLevelHandler struct {
	repo domain.StockRepository
}

// NewVerifyStockLevelHandler creates a new verify handler
func NewVerifyStockLevelHandler(repo domain.StockRepository) *VerifyStockLevelHandler {
	return &VerifyStockLevelHandler{repo: repo}
}

// Handle sums the ledger and compares it with the cached quantity
func (h *VerifyStockLevelHandler) Handle(ctx context.Context, skuCode string, warehouseID uint) (*Verification, error) {
	key := domain.LevelKey{SKUCode: strings.ToUpper(strings.TrimSpace(skuCode)), WarehouseID: warehouseID}
	if key.SKUCode == "" || key.WarehouseID == 0 {
		return nil, apperr.Validation(map[string]string{
			"sku_code":     "is required",
			"warehouse_id": "is required",
		})
	}

	cached := decimal.Zero
	level, err := h.repo.GetLevel(ctx, key)
	switch {
	case err == nil:
		cached = level.Quantity
	case !apperr.IsKind(err, apperr.KindNotFound):
		return nil, apperr.From(err)
	}

	sum, count, err := h.repo.SumDeltas(ctx, key)
	if err != nil {
		return nil, apperr.From(err)
	}

	v := &Verification{
		SKUCode:       key.SKUCode,
		WarehouseID:   key.WarehouseID,
		Cached:        cached,
		LedgerSum:     sum,
		MovementCount: count,
		Consistent:    cached.Equal(sum),
	}
	if !v.Consistent {
		logger.Warn(ctx).
			Str("sku_code", key.SKUCode).
			Uint("warehouse_id", key.WarehouseID).
			Str("cached", cached.String()).
			Str("ledger", sum.String()).
			Msg("Stock level drifted from ledger")
	}
	return v, nil
}
