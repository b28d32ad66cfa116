// Package seed builds a database with catalog and warehouse data for use
// case tests of the stock ledger and the order engine.
package seed

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	catalogdomain "github.com/tair/warehouse-erp/internal/catalog/domain"
	catalogrepo "github.com/tair/warehouse-erp/internal/catalog/repository"
	catalogquery "github.com/tair/warehouse-erp/internal/catalog/usecase/query"
	"github.com/tair/warehouse-erp/internal/inventory/client"
	"github.com/tair/warehouse-erp/internal/testutil"
	warehousedomain "github.com/tair/warehouse-erp/internal/warehouse/domain"
	warehouserepo "github.com/tair/warehouse-erp/internal/warehouse/repository"
	warehousequery "github.com/tair/warehouse-erp/internal/warehouse/usecase/query"
	"github.com/tair/warehouse-erp/pkg/database"
)

// RetailPrice is the retail price of every seeded SKU
var RetailPrice = decimal.RequireFromString("149.99")

// Env is a migrated database with catalog and warehouse access
type Env struct {
	DB              *gorm.DB
	Tx              *database.GormTransactor
	Products        catalogdomain.ProductRepository
	Warehouses      warehousedomain.WarehouseRepository
	CatalogClient   *client.CatalogQueryClient
	WarehouseClient *client.WarehouseQueryClient
}

// NewEnv migrates the catalog, warehouse and any extra models
func NewEnv(t testing.TB, models ...interface{}) *Env {
	t.Helper()
	all := append([]interface{}{&catalogdomain.Product{}, &catalogdomain.SKU{}, &warehousedomain.Warehouse{}}, models...)
	db := testutil.NewDB(t, all...)

	products := catalogrepo.NewGormProductRepository(db)
	warehouses := warehouserepo.NewGormWarehouseRepository(db)
	return &Env{
		DB:              db,
		Tx:              database.NewGormTransactor(db),
		Products:        products,
		Warehouses:      warehouses,
		CatalogClient:   client.NewCatalogQueryClient(catalogquery.NewResolveSKUHandler(products)),
		WarehouseClient: client.NewWarehouseQueryClient(warehousequery.NewGetWarehouseHandler(warehouses)),
	}
}

// Product stores an active product owning one active SKU per code
func (e *Env) Product(t testing.TB, name string, codes ...string) *catalogdomain.Product {
	t.Helper()
	ctx := context.Background()

	product := &catalogdomain.Product{
		Name:     name,
		Tags:     datatypes.NewJSONType([]string{}),
		IsActive: true,
	}
	require.NoError(t, e.Products.Create(ctx, product))

	skus := make([]catalogdomain.SKU, 0, len(codes))
	for _, code := range codes {
		skus = append(skus, catalogdomain.SKU{
			Code:       catalogdomain.NormalizeCode(code),
			Attributes: datatypes.NewJSONType(catalogdomain.Attributes{}),
			Cost:       decimal.NewFromInt(80),
			PriceList:  catalogdomain.PriceList{Retail: RetailPrice},
			Status:     catalogdomain.SKUStatusActive,
			Vendors:    datatypes.NewJSONType([]catalogdomain.VendorLink{}),
		})
	}
	require.NoError(t, e.Products.AddSKUs(ctx, product.ID, skus))
	product.SKUs = skus
	return product
}

// Warehouse stores an active warehouse with the default tax rate
func (e *Env) Warehouse(t testing.TB, code string, allowNegative bool) *warehousedomain.Warehouse {
	t.Helper()
	w := &warehousedomain.Warehouse{
		Code:     warehousedomain.NormalizeCode(code),
		Name:     code,
		Address:  warehousedomain.Address{Country: warehousedomain.DefaultCountry},
		IsActive: true,
		Policy: warehousedomain.Policy{
			AllowNegativeStock: allowNegative,
			DefaultTaxRate:     warehousedomain.DefaultTaxRate,
		},
	}
	require.NoError(t, e.Warehouses.Create(context.Background(), w))
	return w
}
