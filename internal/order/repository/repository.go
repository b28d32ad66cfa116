package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/database"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// AutoMigrate creates the order tables
func (r *GormOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Order{}, &domain.OrderLine{}, &OrderSequence{})
}

// Create inserts the order with its lines
func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := database.Conn(ctx, r.db).Create(order).Error; err != nil {
		if ok, _ := database.IsUniqueViolation(err); ok {
			return apperr.Conflict(apperr.CodeDuplicateNumber, "order number %s already exists", order.OrderNumber)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// ReplaceLines swaps the order lines and stores the recomputed totals
func (r *GormOrderRepository) ReplaceLines(ctx context.Context, order *domain.Order) error {
	db := database.Conn(ctx, r.db)

	if err := db.Where("order_id = ?", order.ID).Delete(&domain.OrderLine{}).Error; err != nil {
		return fmt.Errorf("failed to delete order lines: %w", err)
	}
	for i := range order.Lines {
		order.Lines[i].ID = 0
		order.Lines[i].OrderID = order.ID
	}
	if err := db.Create(&order.Lines).Error; err != nil {
		return fmt.Errorf("failed to create order lines: %w", err)
	}

	result := db.Model(&domain.Order{ID: order.ID}).
		Select("subtotal", "discount_amount", "tax_rate", "tax_amount", "total", "updated_at").
		Updates(order)
	if result.Error != nil {
		return fmt.Errorf("failed to update order totals: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("order", order.ID)
	}
	return nil
}

// FindByID finds an order with its lines
func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	if err := database.Conn(ctx, r.db).Preload("Lines", byLineNo).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

// FindByNumber finds an order by its ORD- number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var order domain.Order
	err := database.Conn(ctx, r.db).Preload("Lines", byLineNo).
		Where("order_number = ?", number).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order", number)
		}
		return nil, fmt.Errorf("failed to find order by number: %w", err)
	}
	return &order, nil
}

// List returns one page of orders, newest first
func (r *GormOrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	q := database.Conn(ctx, r.db).Model(&domain.Order{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Channel != "" {
		q = q.Where("channel = ?", filter.Channel)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.WarehouseID != 0 {
		q = q.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.DateFrom != nil {
		q = q.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("created_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []domain.Order
	err := q.Preload("Lines", byLineNo).
		Order("created_at DESC").Order("id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// TransitionStatus is a compare-and-set on the status column
func (r *GormOrderRepository) TransitionStatus(ctx context.Context, id uint, from, to domain.Status, at time.Time) error {
	updates := map[string]interface{}{"status": to, "updated_at": at}
	if to == domain.StatusConfirmed {
		updates["confirmed_at"] = at
	}

	db := database.Conn(ctx, r.db)
	result := db.Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var current domain.Order
	if err := db.Select("id", "status").First(&current, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("order", id)
		}
		return fmt.Errorf("failed to read order status: %w", err)
	}
	return apperr.InvalidTransition(string(current.Status), string(to))
}

// UpdatePayment stores the payment status and, when given, the method
func (r *GormOrderRepository) UpdatePayment(ctx context.Context, id uint, status domain.PaymentStatus, method domain.PaymentMethod) error {
	updates := map[string]interface{}{"payment_status": status}
	if method != "" {
		updates["payment_method"] = method
	}
	result := database.Conn(ctx, r.db).Model(&domain.Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("order", id)
	}
	return nil
}

// MaxSequence returns the highest sequence already issued on day
func (r *GormOrderRepository) MaxSequence(ctx context.Context, day string) (int64, error) {
	var numbers []string
	err := database.Conn(ctx, r.db).Model(&domain.Order{}).
		Where("order_number LIKE ?", domain.NumberPrefix(day)+"%").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read last order number: %w", err)
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	seq, _ := domain.ParseSequence(numbers[0], day)
	return seq, nil
}

func byLineNo(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}
