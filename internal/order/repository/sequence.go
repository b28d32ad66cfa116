package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/pkg/database"
)

// OrderSequence is the last sequence issued for one day
type OrderSequence struct {
	Day       string `gorm:"column:day;size:8;primaryKey"`
	LastValue int64  `gorm:"column:last_value;not null"`
}

// TableName specifies the table name for OrderSequence
func (OrderSequence) TableName() string {
	return "order_sequences"
}

// GormSequenceAllocator increments a per-day counter row. Run inside the
// order transaction, the row lock taken by the increment serializes
// allocations for the same day until the order commits. The counter never
// issues a number at or below the highest one already stored, so a row that
// fell behind the orders table catches up on the next allocation.
type GormSequenceAllocator struct {
	db     *gorm.DB
	orders domain.OrderRepository
}

// NewGormSequenceAllocator creates a database sequence allocator
func NewGormSequenceAllocator(db *gorm.DB, orders domain.OrderRepository) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db, orders: orders}
}

// Next returns the next sequence for day
func (a *GormSequenceAllocator) Next(ctx context.Context, day string) (int64, error) {
	db := database.Conn(ctx, a.db)

	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&OrderSequence{Day: day, LastValue: 0}).Error
	if err != nil {
		return 0, fmt.Errorf("failed to seed order sequence: %w", err)
	}

	err = db.Model(&OrderSequence{}).
		Where("day = ?", day).
		Update("last_value", gorm.Expr("last_value + 1")).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment order sequence: %w", err)
	}

	var seq OrderSequence
	if err := db.Where("day = ?", day).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("failed to read order sequence: %w", err)
	}

	last, err := a.orders.MaxSequence(ctx, day)
	if err != nil {
		return 0, err
	}
	if seq.LastValue > last {
		return seq.LastValue, nil
	}

	next := last + 1
	err = db.Model(&OrderSequence{}).
		Where("day = ?", day).
		Update("last_value", next).Error
	if err != nil {
		return 0, fmt.Errorf("failed to advance order sequence: %w", err)
	}
	return next, nil
}

// RedisSequenceAllocator uses INCR on a per-day key shared by every instance
type RedisSequenceAllocator struct {
	rdb    redis.UniversalClient
	orders domain.OrderRepository
	prefix string
	ttl    time.Duration
}

// NewRedisSequenceAllocator creates a Redis sequence allocator
func NewRedisSequenceAllocator(rdb redis.UniversalClient, orders domain.OrderRepository, prefix string) *RedisSequenceAllocator {
	return &RedisSequenceAllocator{rdb: rdb, orders: orders, prefix: prefix, ttl: 48 * time.Hour}
}

// Next returns the next sequence for day. The key is seeded from the
// highest stored number so a flushed Redis never reissues a number.
func (a *RedisSequenceAllocator) Next(ctx context.Context, day string) (int64, error) {
	key := a.prefix + day

	n, err := a.rdb.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read order sequence: %w", err)
	}
	if n == 0 {
		last, err := a.orders.MaxSequence(ctx, day)
		if err != nil {
			return 0, err
		}
		if err := a.rdb.SetNX(ctx, key, last, a.ttl).Err(); err != nil {
			return 0, fmt.Errorf("failed to seed order sequence: %w", err)
		}
	}

	seq, err := a.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment order sequence: %w", err)
	}
	return seq, nil
}
