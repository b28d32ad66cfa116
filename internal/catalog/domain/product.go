package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SKUStatus is the lifecycle state of a SKU
type SKUStatus string

const (
	SKUStatusActive   SKUStatus = "ACTIVE"
	SKUStatusArchived SKUStatus = "ARCHIVED"
)

// PriceList holds the selling prices of a SKU
type PriceList struct {
	Retail         decimal.Decimal `gorm:"column:retail;type:numeric(20,4);not null;default:0" json:"retail" validate:"gte=0"`
	WholesaleTier1 decimal.Decimal `gorm:"column:wholesale_tier1;type:numeric(20,4);not null;default:0" json:"wholesale_tier1" validate:"gte=0"`
	WholesaleTier2 decimal.Decimal `gorm:"column:wholesale_tier2;type:numeric(20,4);not null;default:0" json:"wholesale_tier2" validate:"gte=0"`
}

// VendorLink describes a supplier of a SKU
type VendorLink struct {
	VendorID     uint            `json:"vendor_id" validate:"required"`
	Name         string          `json:"name" validate:"required,max=200"`
	VendorSKU    string          `json:"vendor_sku,omitempty" validate:"max=64"`
	LeadTimeDays int             `json:"lead_time_days" validate:"gte=0"`
	LastCost     decimal.Decimal `json:"last_cost" validate:"gte=0"`
	Preferred    bool            `json:"preferred"`
	Email        string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string          `json:"phone,omitempty" validate:"max=50"`
	Notes        string          `json:"notes,omitempty" validate:"max=1000"`
}

// SKU is the sellable variant of a product and the unit stock is kept in
type SKU struct {
	ID         uint                             `gorm:"primaryKey" json:"id"`
	ProductID  uint                             `gorm:"column:product_id;not null;index" json:"product_id"`
	Code       string                           `gorm:"column:code;size:64;not null;uniqueIndex:idx_skus_code" json:"sku_code"`
	Barcode    *string                          `gorm:"column:barcode;size:64;uniqueIndex:idx_skus_barcode" json:"barcode,omitempty"`
	Attributes datatypes.JSONType[Attributes]   `gorm:"column:attributes" json:"attributes"`
	Cost       decimal.Decimal                  `gorm:"column:cost;type:numeric(20,4);not null;default:0" json:"cost"`
	PriceList  PriceList                        `gorm:"embedded;embeddedPrefix:price_" json:"price_list"`
	Status     SKUStatus                        `gorm:"column:status;size:16;not null" json:"status"`
	Vendors    datatypes.JSONType[[]VendorLink] `gorm:"column:vendors" json:"vendors"`
	CreatedAt  time.Time                        `json:"created_at"`
	UpdatedAt  time.Time                        `json:"updated_at"`
}

// TableName specifies the table name for SKU
func (SKU) TableName() string {
	return "skus"
}

// IsActive reports whether the SKU can be sold
func (s SKU) IsActive() bool {
	return s.Status == SKUStatusActive
}

// Product groups SKUs under one catalog entry
type Product struct {
	ID          uint                         `gorm:"primaryKey" json:"id"`
	Name        string                       `gorm:"column:name;size:200;not null" json:"name"`
	Description string                       `gorm:"column:description;size:1000" json:"description,omitempty"`
	CategoryID  *uint                        `gorm:"column:category_id;index" json:"category_id,omitempty"`
	Brand       string                       `gorm:"column:brand;size:100;index" json:"brand,omitempty"`
	Barcode     *string                      `gorm:"column:barcode;size:64;uniqueIndex:idx_products_barcode" json:"barcode,omitempty"`
	Tags        datatypes.JSONType[[]string] `gorm:"column:tags" json:"tags"`
	IsActive    bool                         `gorm:"column:is_active;not null" json:"is_active"`
	SKUs        []SKU                        `gorm:"foreignKey:ProductID" json:"skus"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}

// FindSKU returns the SKU with the given code, if the product owns it
func (p *Product) FindSKU(code string) (*SKU, bool) {
	code = NormalizeCode(code)
	for i := range p.SKUs {
		if p.SKUs[i].Code == code {
			return &p.SKUs[i], true
		}
	}
	return nil, false
}

// NormalizeCode trims and uppercases a SKU code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeBarcode trims a barcode and maps blank to nil
func NormalizeBarcode(barcode *string) *string {
	if barcode == nil {
		return nil
	}
	b := strings.TrimSpace(*barcode)
	if b == "" {
		return nil
	}
	return &b
}

// GenerateSKUCode builds PROD-{last six digits of the product id}-{last six
// digits of the timestamp plus the SKU's position}. The offset keeps codes
// generated in the same millisecond for one product distinct.
func GenerateSKUCode(productID uint, now time.Time, offset int) string {
	id := fmt.Sprintf("%06d", productID)
	stamp := fmt.Sprintf("%d", now.UnixMilli()+int64(offset))
	return fmt.Sprintf("PROD-%s-%s", id[len(id)-6:], stamp[len(stamp)-6:])
}

// ProductFilter narrows a product listing
type ProductFilter struct {
	Search     string
	Brand      string
	CategoryID *uint
	Status     SKUStatus
	IsActive   *bool
	Sort       string
	Page       int
	Limit      int
}

// SKURef is the resolved identity of a SKU used by stock and order flows
type SKURef struct {
	ProductID   uint
	ProductName string
	SKU         SKU
}

// ProductRepository defines the interface for catalog persistence
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	AddSKUs(ctx context.Context, productID uint, skus []SKU) error
	UpdateSKU(ctx context.Context, sku *SKU) error
	SetSKUStatus(ctx context.Context, code string, status SKUStatus) error
	ArchiveProduct(ctx context.Context, productID uint) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	FindBySKUCode(ctx context.Context, code string) (*Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	ExistingSKUCodes(ctx context.Context, codes []string, excludeProductID uint) ([]string, error)
	ExistingBarcodes(ctx context.Context, barcodes []string, excludeProductID uint) ([]string, error)
}
