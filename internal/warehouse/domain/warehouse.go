package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate applies when a warehouse is created without an explicit rate
var DefaultTaxRate = decimal.RequireFromString("0.24")

// DefaultCountry is used when an address omits the country
const DefaultCountry = "Greece"

// Address is the physical location of a warehouse
type Address struct {
	Street     string `gorm:"column:street;size:200" json:"street,omitempty" validate:"max=200"`
	City       string `gorm:"column:city;size:100" json:"city,omitempty" validate:"max=100"`
	PostalCode string `gorm:"column:postal_code;size:20" json:"postal_code,omitempty" validate:"max=20"`
	Country    string `gorm:"column:country;size:100" json:"country" validate:"max=100"`
}

// Contact holds the warehouse contact details
type Contact struct {
	Phone   string `gorm:"column:phone;size:50" json:"phone,omitempty" validate:"max=50"`
	Email   string `gorm:"column:email;size:200" json:"email,omitempty" validate:"omitempty,email"`
	Manager string `gorm:"column:manager;size:100" json:"manager,omitempty" validate:"max=100"`
}

// Policy governs stock and tax behaviour for one warehouse
type Policy struct {
	AllowNegativeStock bool            `gorm:"column:allow_negative_stock;not null" json:"allow_negative_stock"`
	DefaultTaxRate     decimal.Decimal `gorm:"column:default_tax_rate;type:numeric(6,4);not null" json:"default_tax_rate" validate:"gte=0,lte=1"`
}

// Warehouse is a stock location
type Warehouse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"column:code;size:10;not null;uniqueIndex:idx_warehouses_code" json:"code"`
	Name      string    `gorm:"column:name;size:100;not null" json:"name"`
	Address   Address   `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Contact   Contact   `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"is_active"`
	Policy    Policy    `gorm:"embedded;embeddedPrefix:policy_" json:"policy"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Warehouse
func (Warehouse) TableName() string {
	return "warehouses"
}

// NormalizeCode trims and uppercases a warehouse code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// WarehouseFilter narrows a warehouse listing
type WarehouseFilter struct {
	IsActive *bool
	Search   string
	Page     int
	Limit    int
}

// WarehouseRepository defines the interface for warehouse persistence
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *Warehouse) error
	Update(ctx context.Context, warehouse *Warehouse) error
	FindByID(ctx context.Context, id uint) (*Warehouse, error)
	FindByCode(ctx context.Context, code string) (*Warehouse, error)
	List(ctx context.Context, filter WarehouseFilter) ([]Warehouse, int64, error)
}
