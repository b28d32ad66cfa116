package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfilment state of an order
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusConfirmed Status = "CONFIRMED"
	StatusPicking   Status = "PICKING"
	StatusPacked    Status = "PACKED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Channel is where the order was taken
type Channel string

const (
	ChannelPOS    Channel = "POS"
	ChannelB2B    Channel = "B2B"
	ChannelOnline Channel = "ONLINE"
)

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentCredit   PaymentMethod = "CREDIT"
)

// PaymentStatus tracks settlement of an order
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentPartial  PaymentStatus = "PARTIAL"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// CustomerInfo is the customer snapshot stored with the order
type CustomerInfo struct {
	Name    string `gorm:"column:name;size:200;not null" json:"name" validate:"required,max=200"`
	Email   string `gorm:"column:email;size:200" json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `gorm:"column:phone;size:50" json:"phone,omitempty" validate:"max=50"`
	Address string `gorm:"column:address;size:500" json:"address,omitempty" validate:"max=500"`
}

// OrderLine is one SKU on an order
type OrderLine struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"column:order_id;not null;index" json:"order_id"`
	LineNo          int             `gorm:"column:line_no;not null" json:"line_no"`
	ProductID       uint            `gorm:"column:product_id;not null" json:"product_id"`
	SKUCode         string          `gorm:"column:sku_code;size:64;not null" json:"sku_code"`
	Description     string          `gorm:"column:description;size:200" json:"description,omitempty"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric(20,4);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(20,4);not null" json:"unit_price"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(7,4);not null;default:0" json:"discount_percent"`
	LineTotal       decimal.Decimal `gorm:"column:line_total;type:numeric(20,4);not null" json:"line_total"`
}

// TableName specifies the table name for OrderLine
func (OrderLine) TableName() string {
	return "order_lines"
}

// Order is a customer order. Totals are derived from the lines.
type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderNumber    string          `gorm:"column:order_number;size:20;not null;uniqueIndex:idx_orders_number" json:"order_number"`
	CustomerID     *uint           `gorm:"column:customer_id;index" json:"customer_id,omitempty"`
	Customer       CustomerInfo    `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Lines          []OrderLine     `gorm:"foreignKey:OrderID" json:"lines"`
	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(20,4);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(20,4);not null;default:0" json:"discount_amount"`
	TaxRate        decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4);not null" json:"tax_rate"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(20,4);not null" json:"tax_amount"`
	Total          decimal.Decimal `gorm:"column:total;type:numeric(20,4);not null" json:"total"`
	Status         Status          `gorm:"column:status;size:16;not null;index" json:"status"`
	Channel        Channel         `gorm:"column:channel;size:16;not null" json:"channel"`
	WarehouseID    uint            `gorm:"column:warehouse_id;not null;index" json:"warehouse_id"`
	PaymentMethod  PaymentMethod   `gorm:"column:payment_method;size:16" json:"payment_method,omitempty"`
	PaymentStatus  PaymentStatus   `gorm:"column:payment_status;size:16;not null" json:"payment_status"`
	Notes          string          `gorm:"column:notes;size:1000" json:"notes,omitempty"`
	ActorID        uint            `gorm:"column:actor_id;not null" json:"actor_id"`
	ConfirmedAt    *time.Time      `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// Amounts returns the pricing inputs of every line
func (o *Order) Amounts() []LineAmounts {
	amounts := make([]LineAmounts, len(o.Lines))
	for i, l := range o.Lines {
		amounts[i] = LineAmounts{Quantity: l.Quantity, UnitPrice: l.UnitPrice, DiscountPercent: l.DiscountPercent}
	}
	return amounts
}

// ApplyTotals stores computed totals on the order and its lines
func (o *Order) ApplyTotals(t Totals) {
	for i := range o.Lines {
		o.Lines[i].LineNo = i + 1
		o.Lines[i].LineTotal = t.LineTotals[i]
	}
	o.Subtotal = t.Subtotal
	o.DiscountAmount = t.Discount
	o.TaxRate = t.TaxRate
	o.TaxAmount = t.TaxAmount
	o.Total = t.Total
}

// OrderFilter narrows an order listing
type OrderFilter struct {
	Status        Status
	Channel       Channel
	PaymentStatus PaymentStatus
	WarehouseID   uint
	CustomerID    *uint
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	Limit         int
}

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	ReplaceLines(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	// TransitionStatus moves the order from one status to another only if it
	// is still in from; otherwise nothing is written.
	TransitionStatus(ctx context.Context, id uint, from, to Status, at time.Time) error
	UpdatePayment(ctx context.Context, id uint, status PaymentStatus, method PaymentMethod) error
	// MaxSequence returns the highest sequence already used on day (YYYYMMDD)
	MaxSequence(ctx context.Context, day string) (int64, error)
}

// SequenceAllocator hands out per-day order sequence numbers
type SequenceAllocator interface {
	Next(ctx context.Context, day string) (int64, error)
}
