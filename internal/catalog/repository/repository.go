package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/warehouse-erp/internal/catalog/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/database"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GORM product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// AutoMigrate creates the catalog tables
func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{}, &domain.SKU{})
}

var productSorts = map[string]string{
	"name":       "name ASC",
	"-name":      "name DESC",
	"createdAt":  "created_at ASC",
	"-createdAt": "created_at DESC",
}

func (r *GormProductRepository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db)
}

// Create inserts the product row only; SKUs are added with AddSKUs once the id is known
func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.conn(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return writeError("create product", err)
	}
	return nil
}

// Update saves the mutable product columns
func (r *GormProductRepository) Update(ctx context.Context, product *domain.Product) error {
	result := r.conn(ctx).Model(&domain.Product{ID: product.ID}).
		Select("name", "description", "category_id", "brand", "barcode", "tags", "is_active", "updated_at").
		Updates(product)
	if result.Error != nil {
		return writeError("update product", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("product", product.ID)
	}
	return nil
}

// AddSKUs inserts new SKUs for a product
func (r *GormProductRepository) AddSKUs(ctx context.Context, productID uint, skus []domain.SKU) error {
	if len(skus) == 0 {
		return nil
	}
	for i := range skus {
		skus[i].ProductID = productID
	}
	if err := r.conn(ctx).Create(&skus).Error; err != nil {
		return writeError("create skus", err)
	}
	return nil
}

// UpdateSKU saves mutable SKU columns; code and owner never change
func (r *GormProductRepository) UpdateSKU(ctx context.Context, sku *domain.SKU) error {
	result := r.conn(ctx).Model(&domain.SKU{ID: sku.ID}).
		Select("barcode", "attributes", "cost", "price_retail", "price_wholesale_tier1",
			"price_wholesale_tier2", "status", "vendors", "updated_at").
		Updates(sku)
	if result.Error != nil {
		return writeError("update sku", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("sku", sku.Code)
	}
	return nil
}

// SetSKUStatus changes the lifecycle state of one SKU
func (r *GormProductRepository) SetSKUStatus(ctx context.Context, code string, status domain.SKUStatus) error {
	result := r.conn(ctx).Model(&domain.SKU{}).
		Where("code = ?", code).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update sku status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("sku", code)
	}
	return nil
}

// ArchiveProduct deactivates a product and archives all of its SKUs
func (r *GormProductRepository) ArchiveProduct(ctx context.Context, productID uint) error {
	db := r.conn(ctx)
	result := db.Model(&domain.Product{}).Where("id = ?", productID).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("product", productID)
	}
	if err := db.Model(&domain.SKU{}).
		Where("product_id = ?", productID).
		Update("status", domain.SKUStatusArchived).Error; err != nil {
		return fmt.Errorf("failed to archive skus: %w", err)
	}
	return nil
}

// FindByID finds a product with its SKUs
func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	err := r.conn(ctx).Preload("SKUs", orderByID).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product", id)
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// FindBySKUCode finds the product owning a SKU code
func (r *GormProductRepository) FindBySKUCode(ctx context.Context, code string) (*domain.Product, error) {
	db := r.conn(ctx)
	owner := db.Session(&gorm.Session{NewDB: true}).Model(&domain.SKU{}).Select("product_id").Where("code = ?", code)

	var product domain.Product
	err := db.Preload("SKUs", orderByID).Where("id = (?)", owner).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("sku", code).WithCode(apperr.CodeUnknownSku)
		}
		return nil, fmt.Errorf("failed to find product by sku: %w", err)
	}
	return &product, nil
}

// FindByBarcode matches SKU barcodes first, then product barcodes
func (r *GormProductRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	db := r.conn(ctx)

	var sku domain.SKU
	err := db.Where("barcode = ?", barcode).First(&sku).Error
	switch {
	case err == nil:
		return r.FindByID(ctx, sku.ProductID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to find sku by barcode: %w", err)
	}

	var product domain.Product
	err = db.Preload("SKUs", orderByID).Where("barcode = ?", barcode).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("barcode", barcode)
		}
		return nil, fmt.Errorf("failed to find product by barcode: %w", err)
	}
	return &product, nil
}

// List returns one page of products and the total match count
func (r *GormProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	db := r.conn(ctx)
	q := db.Model(&domain.Product{})

	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		skuMatch := db.Session(&gorm.Session{NewDB: true}).Model(&domain.SKU{}).
			Select("product_id").Where("LOWER(code) LIKE ?", like)
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR id IN (?))", like, like, skuMatch)
	}
	if filter.Brand != "" {
		q = q.Where("brand = ?", filter.Brand)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Status != "" {
		withStatus := db.Session(&gorm.Session{NewDB: true}).Model(&domain.SKU{}).
			Select("product_id").Where("status = ?", filter.Status)
		q = q.Where("id IN (?)", withStatus)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	order, ok := productSorts[filter.Sort]
	if !ok {
		order = productSorts["-createdAt"]
	}

	var products []domain.Product
	err := q.Preload("SKUs", orderByID).
		Order(order).Order("id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// ExistingSKUCodes returns which of codes are already taken by other products
func (r *GormProductRepository) ExistingSKUCodes(ctx context.Context, codes []string, excludeProductID uint) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	q := r.conn(ctx).Model(&domain.SKU{}).Where("code IN ?", codes)
	if excludeProductID != 0 {
		q = q.Where("product_id <> ?", excludeProductID)
	}
	var taken []string
	if err := q.Pluck("code", &taken).Error; err != nil {
		return nil, fmt.Errorf("failed to check sku codes: %w", err)
	}
	return taken, nil
}

// ExistingBarcodes returns which barcodes are used by other products or their SKUs
func (r *GormProductRepository) ExistingBarcodes(ctx context.Context, barcodes []string, excludeProductID uint) ([]string, error) {
	if len(barcodes) == 0 {
		return nil, nil
	}
	db := r.conn(ctx)

	skuQ := db.Model(&domain.SKU{}).Where("barcode IN ?", barcodes)
	if excludeProductID != 0 {
		skuQ = skuQ.Where("product_id <> ?", excludeProductID)
	}
	var fromSKUs []string
	if err := skuQ.Pluck("barcode", &fromSKUs).Error; err != nil {
		return nil, fmt.Errorf("failed to check sku barcodes: %w", err)
	}

	productQ := r.conn(ctx).Model(&domain.Product{}).Where("barcode IN ?", barcodes)
	if excludeProductID != 0 {
		productQ = productQ.Where("id <> ?", excludeProductID)
	}
	var fromProducts []string
	if err := productQ.Pluck("barcode", &fromProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to check product barcodes: %w", err)
	}

	return append(fromSKUs, fromProducts...), nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// writeError maps unique violations that slipped past the pre-checks to Conflict
func writeError(op string, err error) error {
	if ok, constraint := database.IsUniqueViolation(err); ok {
		if strings.Contains(constraint, "barcode") {
			return apperr.Conflict(apperr.CodeDuplicateBarcode, "barcode already exists")
		}
		return apperr.Conflict(apperr.CodeDuplicateSkuCode, "sku code already exists")
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
