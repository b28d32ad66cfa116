package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tair/warehouse-erp/internal/warehouse/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/database"
)

// GormWarehouseRepository implements WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GORM warehouse repository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// AutoMigrate creates the warehouses table
func (r *GormWarehouseRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Warehouse{})
}

func (r *GormWarehouseRepository) Create(ctx context.Context, warehouse *domain.Warehouse) error {
	if err := database.Conn(ctx, r.db).Create(warehouse).Error; err != nil {
		return writeError("create warehouse", warehouse.Code, err)
	}
	return nil
}

func (r *GormWarehouseRepository) Update(ctx context.Context, warehouse *domain.Warehouse) error {
	result := database.Conn(ctx, r.db).Model(&domain.Warehouse{ID: warehouse.ID}).
		Select("name", "address_street", "address_city", "address_postal_code", "address_country",
			"contact_phone", "contact_email", "contact_manager", "is_active",
			"policy_allow_negative_stock", "policy_default_tax_rate", "updated_at").
		Updates(warehouse)
	if result.Error != nil {
		return writeError("update warehouse", warehouse.Code, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("warehouse", warehouse.ID)
	}
	return nil
}

func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uint) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	if err := database.Conn(ctx, r.db).First(&warehouse, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("warehouse", id)
		}
		return nil, fmt.Errorf("failed to find warehouse: %w", err)
	}
	return &warehouse, nil
}

func (r *GormWarehouseRepository) FindByCode(ctx context.Context, code string) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	if err := database.Conn(ctx, r.db).Where("code = ?", code).First(&warehouse).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("warehouse", code)
		}
		return nil, fmt.Errorf("failed to find warehouse by code: %w", err)
	}
	return &warehouse, nil
}

func (r *GormWarehouseRepository) List(ctx context.Context, filter domain.WarehouseFilter) ([]domain.Warehouse, int64, error) {
	q := database.Conn(ctx, r.db).Model(&domain.Warehouse{})
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(code) LIKE ? OR LOWER(name) LIKE ? OR LOWER(address_city) LIKE ?)", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count warehouses: %w", err)
	}

	var warehouses []domain.Warehouse
	err := q.Order("code ASC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&warehouses).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return warehouses, total, nil
}

func writeError(op, code string, err error) error {
	if ok, _ := database.IsUniqueViolation(err); ok {
		return apperr.Conflict(apperr.CodeDuplicateCode, "warehouse code %s already exists", code)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
