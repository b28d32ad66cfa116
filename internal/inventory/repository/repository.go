package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/warehouse-erp/internal/inventory/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/database"
)

// ErrNoTransaction is returned when a movement is applied outside a transaction
var ErrNoTransaction = errors.New("stock movements must be applied inside a transaction")

// GormStockRepository implements StockRepository using GORM.
// It is the only writer of the stock_levels table.
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GORM stock repository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// AutoMigrate creates the ledger tables
func (r *GormStockRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.StockLevel{}, &domain.StockMovement{})
}

// ApplyMovement locks the level row, reconciles it and appends the movement
func (r *GormStockRepository) ApplyMovement(ctx context.Context, m *domain.StockMovement, allowNegative bool) error {
	if !database.InTransaction(ctx) {
		return ErrNoTransaction
	}
	db := database.Conn(ctx, r.db)

	seed := domain.StockLevel{
		SKUCode:     m.SKUCode,
		WarehouseID: m.WarehouseID,
		ProductID:   m.ProductID,
		Quantity:    decimal.Zero,
		UpdatedAt:   m.CreatedAt,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return fmt.Errorf("failed to ensure stock level: %w", err)
	}

	var level domain.StockLevel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sku_code = ? AND warehouse_id = ?", m.SKUCode, m.WarehouseID).
		First(&level).Error
	if err != nil {
		return fmt.Errorf("failed to lock stock level: %w", err)
	}

	next, err := domain.Reconcile(level.Quantity, m.Delta, allowNegative)
	if err != nil {
		return err
	}

	err = db.Model(&domain.StockLevel{}).
		Where("sku_code = ? AND warehouse_id = ?", m.SKUCode, m.WarehouseID).
		Updates(map[string]interface{}{"quantity": next, "updated_at": m.CreatedAt}).Error
	if err != nil {
		return fmt.Errorf("failed to update stock level: %w", err)
	}

	m.ResultingQuantity = next
	if err := db.Create(m).Error; err != nil {
		return fmt.Errorf("failed to append stock movement: %w", err)
	}
	return nil
}

// GetLevel returns the cached level of one SKU in one warehouse
func (r *GormStockRepository) GetLevel(ctx context.Context, key domain.LevelKey) (*domain.StockLevel, error) {
	var level domain.StockLevel
	err := database.Conn(ctx, r.db).
		Where("sku_code = ? AND warehouse_id = ?", key.SKUCode, key.WarehouseID).
		First(&level).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("stock level", key.SKUCode)
		}
		return nil, fmt.Errorf("failed to get stock level: %w", err)
	}
	return &level, nil
}

// ListLevels returns every cached level matching the filter
func (r *GormStockRepository) ListLevels(ctx context.Context, filter domain.LevelFilter) ([]domain.StockLevel, error) {
	q := database.Conn(ctx, r.db).Model(&domain.StockLevel{})
	if filter.SKUCode != "" {
		q = q.Where("sku_code = ?", filter.SKUCode)
	}
	if filter.ProductID != 0 {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if filter.WarehouseID != 0 {
		q = q.Where("warehouse_id = ?", filter.WarehouseID)
	}

	var levels []domain.StockLevel
	if err := q.Order("sku_code ASC").Order("warehouse_id ASC").Find(&levels).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock levels: %w", err)
	}
	return levels, nil
}

// ListMovements returns one page of movements, newest first
func (r *GormStockRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, int64, error) {
	q := database.Conn(ctx, r.db).Model(&domain.StockMovement{})
	if filter.ProductID != 0 {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if filter.SKUCode != "" {
		q = q.Where("sku_code = ?", filter.SKUCode)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.RefType != "" {
		q = q.Where("ref_type = ?", filter.RefType)
	}
	if filter.RefID != "" {
		q = q.Where("ref_id = ?", filter.RefID)
	}
	if filter.WarehouseID != 0 {
		q = q.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.ActorID != 0 {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.DateFrom != nil {
		q = q.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("created_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stock movements: %w", err)
	}

	var movements []domain.StockMovement
	err := q.Order("created_at DESC").Order("id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&movements).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, total, nil
}

// SumDeltas totals the ledger for one level, for audit against the cache
func (r *GormStockRepository) SumDeltas(ctx context.Context, key domain.LevelKey) (decimal.Decimal, int64, error) {
	var row struct {
		Total decimal.NullDecimal
		Count int64
	}
	err := database.Conn(ctx, r.db).Model(&domain.StockMovement{}).
		Select("SUM(delta) AS total, COUNT(*) AS count").
		Where("sku_code = ? AND warehouse_id = ?", key.SKUCode, key.WarehouseID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to sum stock movements: %w", err)
	}
	if !row.Total.Valid {
		return decimal.Zero, row.Count, nil
	}
	return row.Total.Decimal, row.Count, nil
}
