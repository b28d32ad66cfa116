package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType is the direction of a stock movement
type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementAdjustment MovementType = "ADJ"
)

// RefType says what business event caused a movement
type RefType string

const (
	RefPurchase   RefType = "PURCHASE"
	RefSale       RefType = "SALE"
	RefTransfer   RefType = "TRANSFER"
	RefAdjustment RefType = "ADJUSTMENT"
	RefReturn     RefType = "RETURN"
)

// StockMovement is one immutable entry of the stock ledger.
// Quantity is kept as submitted; Delta is the signed change it applied.
type StockMovement struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	ProductID         uint                `gorm:"column:product_id;not null;index:idx_movements_product" json:"product_id"`
	SKUCode           string              `gorm:"column:sku_code;size:64;not null;index:idx_movements_sku_wh,priority:1" json:"sku_code"`
	WarehouseID       uint                `gorm:"column:warehouse_id;not null;index:idx_movements_sku_wh,priority:2" json:"warehouse_id"`
	Type              MovementType        `gorm:"column:type;size:3;not null" json:"type"`
	Quantity          decimal.Decimal     `gorm:"column:quantity;type:numeric(20,4);not null" json:"quantity"`
	Delta             decimal.Decimal     `gorm:"column:delta;type:numeric(20,4);not null" json:"delta"`
	ResultingQuantity decimal.Decimal     `gorm:"column:resulting_quantity;type:numeric(20,4);not null" json:"resulting_quantity"`
	RefType           RefType             `gorm:"column:ref_type;size:20;not null" json:"ref_type"`
	RefID             string              `gorm:"column:ref_id;size:64;index:idx_movements_ref" json:"ref_id,omitempty"`
	UnitCost          decimal.NullDecimal `gorm:"column:unit_cost;type:numeric(20,4)" json:"unit_cost"`
	Notes             string              `gorm:"column:notes;size:500" json:"notes,omitempty"`
	ActorID           uint                `gorm:"column:actor_id;not null" json:"actor_id"`
	CreatedAt         time.Time           `gorm:"column:created_at;not null;index:idx_movements_created" json:"timestamp"`
}

// TableName specifies the table name for StockMovement
func (StockMovement) TableName() string {
	return "stock_movements"
}

// StockLevel is the cached on-hand quantity of one SKU in one warehouse
type StockLevel struct {
	SKUCode     string          `gorm:"column:sku_code;size:64;primaryKey" json:"sku_code"`
	WarehouseID uint            `gorm:"column:warehouse_id;primaryKey;autoIncrement:false" json:"warehouse_id"`
	ProductID   uint            `gorm:"column:product_id;not null;index:idx_stock_levels_product" json:"product_id"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(20,4);not null" json:"quantity"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for StockLevel
func (StockLevel) TableName() string {
	return "stock_levels"
}

// LevelKey identifies one stock level
type LevelKey struct {
	SKUCode     string
	WarehouseID uint
}

// MovementFilter narrows a ledger listing
type MovementFilter struct {
	ProductID   uint
	SKUCode     string
	Type        MovementType
	RefType     RefType
	RefID       string
	WarehouseID uint
	ActorID     uint
	DateFrom    *time.Time
	DateTo      *time.Time
	Page        int
	Limit       int
}

// LevelFilter narrows a stock level listing
type LevelFilter struct {
	SKUCode     string
	ProductID   uint
	WarehouseID uint
}

// StockRepository persists the ledger and the cached levels
type StockRepository interface {
	// ApplyMovement reconciles the level for m and appends m. It must run
	// inside a transaction; m.Delta must already be set.
	ApplyMovement(ctx context.Context, m *StockMovement, allowNegative bool) error
	GetLevel(ctx context.Context, key LevelKey) (*StockLevel, error)
	ListLevels(ctx context.Context, filter LevelFilter) ([]StockLevel, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, int64, error)
	SumDeltas(ctx context.Context, key LevelKey) (decimal.Decimal, int64, error)
}
