package client

import (
	"context"

	"github.com/shopspring/decimal"

	catalogquery "github.com/tair/warehouse-erp/internal/catalog/usecase/query"
)

// SKUInfo is what the ledger and the order engine need to know about a SKU
type SKUInfo struct {
	ProductID   uint
	ProductName string
	Code        string
	Active      bool
	Cost        decimal.Decimal
	RetailPrice decimal.Decimal
}

// CatalogClient resolves SKU references against the catalog
type CatalogClient interface {
	// ResolveSKU returns the SKU when code belongs to productID.
	// A productID of zero accepts any owner.
	ResolveSKU(ctx context.Context, productID uint, code string) (*SKUInfo, error)
}

// CatalogQueryClient answers through the in-process catalog query handlers
type CatalogQueryClient struct {
	resolve *catalogquery.ResolveSKUHandler
}

// NewCatalogQueryClient creates a new catalog client
func NewCatalogQueryClient(resolve *catalogquery.ResolveSKUHandler) *CatalogQueryClient {
	return &CatalogQueryClient{resolve: resolve}
}

// ResolveSKU resolves a SKU reference
func (c *CatalogQueryClient) ResolveSKU(ctx context.Context, productID uint, code string) (*SKUInfo, error) {
	ref, err := c.resolve.Handle(ctx, productID, code)
	if err != nil {
		return nil, err
	}
	return &SKUInfo{
		ProductID:   ref.ProductID,
		ProductName: ref.ProductName,
		Code:        ref.SKU.Code,
		Active:      ref.SKU.IsActive(),
		Cost:        ref.SKU.Cost,
		RetailPrice: ref.SKU.PriceList.Retail,
	}, nil
}
