// Package app composes the catalog, warehouse, inventory and order modules
// into one HTTP API.
package app

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	catalogHTTP "github.com/tair/warehouse-erp/internal/catalog/delivery/http"
	catalogdomain "github.com/tair/warehouse-erp/internal/catalog/domain"
	catalogrepo "github.com/tair/warehouse-erp/internal/catalog/repository"
	catalogcommand "github.com/tair/warehouse-erp/internal/catalog/usecase/command"
	catalogquery "github.com/tair/warehouse-erp/internal/catalog/usecase/query"
	inventoryclient "github.com/tair/warehouse-erp/internal/inventory/client"
	inventoryHTTP "github.com/tair/warehouse-erp/internal/inventory/delivery/http"
	inventorydomain "github.com/tair/warehouse-erp/internal/inventory/domain"
	inventoryrepo "github.com/tair/warehouse-erp/internal/inventory/repository"
	inventorycommand "github.com/tair/warehouse-erp/internal/inventory/usecase/command"
	inventoryquery "github.com/tair/warehouse-erp/internal/inventory/usecase/query"
	orderclient "github.com/tair/warehouse-erp/internal/order/client"
	orderHTTP "github.com/tair/warehouse-erp/internal/order/delivery/http"
	orderdomain "github.com/tair/warehouse-erp/internal/order/domain"
	orderrepo "github.com/tair/warehouse-erp/internal/order/repository"
	ordercommand "github.com/tair/warehouse-erp/internal/order/usecase/command"
	orderquery "github.com/tair/warehouse-erp/internal/order/usecase/query"
	warehouseHTTP "github.com/tair/warehouse-erp/internal/warehouse/delivery/http"
	warehousedomain "github.com/tair/warehouse-erp/internal/warehouse/domain"
	warehouserepo "github.com/tair/warehouse-erp/internal/warehouse/repository"
	warehousecommand "github.com/tair/warehouse-erp/internal/warehouse/usecase/command"
	warehousequery "github.com/tair/warehouse-erp/internal/warehouse/usecase/query"
	"github.com/tair/warehouse-erp/pkg/config"
	"github.com/tair/warehouse-erp/pkg/database"
	"github.com/tair/warehouse-erp/pkg/lock"
)

// Redis key prefixes
const (
	LockPrefix     = "warehouse:lock:"
	SequencePrefix = "warehouse:order-seq:"
)

// Handlers groups the HTTP handlers of every module
type Handlers struct {
	Products   *catalogHTTP.ProductHandler
	Warehouses *warehouseHTTP.WarehouseHandler
	Inventory  *inventoryHTTP.InventoryHandler
	Orders     *orderHTTP.OrderHandler
}

// ProvideTransactor provides the gorm transactor
func ProvideTransactor(db *gorm.DB) database.Transactor {
	return database.NewGormTransactor(db)
}

// ProvideLocker shares locks through Redis when it is configured and falls
// back to an in-process mutex for single-instance deployments
func ProvideLocker(cfg config.Config, rdb redis.UniversalClient) lock.Locker {
	if cfg.Redis.Addr == "" || rdb == nil {
		return lock.NewKeyedMutex()
	}
	return lock.NewRedisLocker(rdb, LockPrefix, cfg.Orders.ConfirmLockTTL)
}

// Repository Providers
func ProvideProductRepository(db *gorm.DB) catalogdomain.ProductRepository {
	return catalogrepo.NewTracingProductRepository(catalogrepo.NewGormProductRepository(db))
}

func ProvideWarehouseRepository(db *gorm.DB) warehousedomain.WarehouseRepository {
	return warehouserepo.NewTracingWarehouseRepository(warehouserepo.NewGormWarehouseRepository(db))
}

func ProvideStockRepository(db *gorm.DB) inventorydomain.StockRepository {
	return inventoryrepo.NewTracingStockRepository(inventoryrepo.NewGormStockRepository(db))
}

func ProvideOrderRepository(db *gorm.DB) orderdomain.OrderRepository {
	return orderrepo.NewTracingOrderRepository(orderrepo.NewGormOrderRepository(db))
}

// ProvideSequenceAllocator picks the order number source from orders.sequence
func ProvideSequenceAllocator(
	cfg config.Config,
	db *gorm.DB,
	rdb redis.UniversalClient,
	orders orderdomain.OrderRepository,
) orderdomain.SequenceAllocator {
	if cfg.Orders.Sequence == "redis" && rdb != nil {
		return orderrepo.NewRedisSequenceAllocator(rdb, orders, SequencePrefix)
	}
	return orderrepo.NewGormSequenceAllocator(db, orders)
}

// Cross-module client Providers
func ProvideCatalogClient(resolve *catalogquery.ResolveSKUHandler) inventoryclient.CatalogClient {
	return inventoryclient.NewCatalogQueryClient(resolve)
}

func ProvideWarehouseClient(get *warehousequery.GetWarehouseHandler) inventoryclient.WarehouseClient {
	return inventoryclient.NewWarehouseQueryClient(get)
}

func ProvideStockLedger(batch *inventorycommand.AppendMovementsHandler) orderclient.StockLedger {
	return orderclient.NewInventoryLedgerClient(batch)
}

// Metrics Providers
func ProvideInventoryMetrics(reg prometheus.Registerer) *inventorycommand.Metrics {
	return inventorycommand.NewMetrics(reg)
}

func ProvideOrderMetrics(reg prometheus.Registerer) *ordercommand.Metrics {
	return ordercommand.NewMetrics(reg)
}

// Wire sets
var InfrastructureSet = wire.NewSet(
	ProvideTransactor,
	ProvideLocker,
	ProvideInventoryMetrics,
	ProvideOrderMetrics,
)

var RepositorySet = wire.NewSet(
	ProvideProductRepository,
	ProvideWarehouseRepository,
	ProvideStockRepository,
	ProvideOrderRepository,
	ProvideSequenceAllocator,
)

var CatalogSet = wire.NewSet(
	catalogcommand.NewCreateProductHandler,
	catalogcommand.NewUpdateProductHandler,
	catalogcommand.NewDeleteProductHandler,
	catalogcommand.NewSetSKUStatusHandler,
	catalogquery.NewGetProductHandler,
	catalogquery.NewListProductsHandler,
	catalogquery.NewFindBySKUHandler,
	catalogquery.NewFindByBarcodeHandler,
	catalogquery.NewResolveSKUHandler,
	catalogHTTP.NewProductHandler,
)

var WarehouseSet = wire.NewSet(
	warehousecommand.NewCreateWarehouseHandler,
	warehousecommand.NewUpdateWarehouseHandler,
	warehousequery.NewGetWarehouseHandler,
	warehousequery.NewListWarehousesHandler,
	warehouseHTTP.NewWarehouseHandler,
)

var InventorySet = wire.NewSet(
	ProvideCatalogClient,
	ProvideWarehouseClient,
	inventorycommand.NewLedger,
	inventorycommand.NewAppendMovementHandler,
	inventorycommand.NewAppendMovementsHandler,
	inventorycommand.NewTransferStockHandler,
	inventoryquery.NewListMovementsHandler,
	inventoryquery.NewGetStockLevelHandler,
	inventoryquery.NewListStockLevelsHandler,
	inventoryquery.NewVerifyStockLevelHandler,
	inventoryHTTP.NewInventoryHandler,
)

var OrderSet = wire.NewSet(
	ProvideStockLedger,
	ordercommand.NewCreateOrderHandler,
	ordercommand.NewUpdateOrderLinesHandler,
	ordercommand.NewConfirmOrderHandler,
	ordercommand.NewUpdateOrderStatusHandler,
	ordercommand.NewUpdatePaymentStatusHandler,
	orderquery.NewGetOrderHandler,
	orderquery.NewListOrdersHandler,
	orderHTTP.NewOrderHandler,
)

var AllHandlersSet = wire.NewSet(
	InfrastructureSet,
	RepositorySet,
	CatalogSet,
	WarehouseSet,
	InventorySet,
	OrderSet,
	wire.Struct(new(Handlers), "*"),
)
