package client

import (
	"context"

	"github.com/shopspring/decimal"

	warehousequery "github.com/tair/warehouse-erp/internal/warehouse/usecase/query"
)

// WarehouseInfo carries the warehouse policy the ledger and orders apply
type WarehouseInfo struct {
	ID                 uint
	Code               string
	IsActive           bool
	AllowNegativeStock bool
	DefaultTaxRate     decimal.Decimal
}

// WarehouseClient looks up warehouses
type WarehouseClient interface {
	GetWarehouse(ctx context.Context, id uint) (*WarehouseInfo, error)
}

// WarehouseQueryClient answers through the in-process warehouse query handler
type WarehouseQueryClient struct {
	get *warehousequery.GetWarehouseHandler
}

// NewWarehouseQueryClient creates a new warehouse client
func NewWarehouseQueryClient(get *warehousequery.GetWarehouseHandler) *WarehouseQueryClient {
	return &WarehouseQueryClient{get: get}
}

// GetWarehouse returns the warehouse policy, NOT_FOUND when absent
func (c *WarehouseQueryClient) GetWarehouse(ctx context.Context, id uint) (*WarehouseInfo, error) {
	w, err := c.get.Handle(ctx, id)
	if err != nil {
		return nil, err
	}
	return &WarehouseInfo{
		ID:                 w.ID,
		Code:               w.Code,
		IsActive:           w.IsActive,
		AllowNegativeStock: w.Policy.AllowNegativeStock,
		DefaultTaxRate:     w.Policy.DefaultTaxRate,
	}, nil
}
