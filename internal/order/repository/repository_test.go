package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/internal/testutil"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/database"
)

func newOrder(number string) *domain.Order {
	price := decimal.RequireFromString("10.5")
	return &domain.Order{
		OrderNumber: number,
		Customer:    domain.CustomerInfo{Name: "Walk-in"},
		Lines: []domain.OrderLine{{
			LineNo: 1, ProductID: 1, SKUCode: "A-1",
			Quantity: decimal.NewFromInt(2), UnitPrice: price, LineTotal: decimal.NewFromInt(21),
		}},
		Subtotal:      decimal.NewFromInt(21),
		TaxRate:       decimal.RequireFromString("0.24"),
		TaxAmount:     decimal.RequireFromString("5.04"),
		Total:         decimal.RequireFromString("26.04"),
		Status:        domain.StatusDraft,
		Channel:       domain.ChannelPOS,
		WarehouseID:   1,
		PaymentStatus: domain.PaymentPending,
		ActorID:       1,
	}
}

func newRepo(t *testing.T) *GormOrderRepository {
	db := testutil.NewDB(t)
	repo := NewGormOrderRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newOrder("ORD-20240309-0001")))
	err := repo.Create(ctx, newOrder("ORD-20240309-0001"))

	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindConflict, Code: apperr.CodeDuplicateNumber})
}

func TestFindLoadsLinesInOrder(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	order := newOrder("ORD-20240309-0001")
	order.Lines = append(order.Lines, domain.OrderLine{
		LineNo: 2, ProductID: 1, SKUCode: "A-2",
		Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5), LineTotal: decimal.NewFromInt(5),
	})
	require.NoError(t, repo.Create(ctx, order))

	byID, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, byID.Lines, 2)
	assert.Equal(t, "A-1", byID.Lines[0].SKUCode)
	assert.Equal(t, "A-2", byID.Lines[1].SKUCode)
	assert.True(t, byID.TaxAmount.Equal(decimal.RequireFromString("5.04")))

	byNumber, err := repo.FindByNumber(ctx, "ORD-20240309-0001")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)

	_, err = repo.FindByID(ctx, 404)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = repo.FindByNumber(ctx, "ORD-20240309-9999")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestTransitionStatusIsCompareAndSet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	order := newOrder("ORD-20240309-0001")
	require.NoError(t, repo.Create(ctx, order))
	at := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.TransitionStatus(ctx, order.ID, domain.StatusDraft, domain.StatusConfirmed, at))

	err := repo.TransitionStatus(ctx, order.ID, domain.StatusDraft, domain.StatusConfirmed, at)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	err = repo.TransitionStatus(ctx, 404, domain.StatusDraft, domain.StatusConfirmed, at)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
	require.NotNil(t, stored.ConfirmedAt)
	assert.True(t, stored.ConfirmedAt.Equal(at))
}

func TestReplaceLinesRewritesTotals(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	order := newOrder("ORD-20240309-0001")
	require.NoError(t, repo.Create(ctx, order))

	order.Lines = []domain.OrderLine{{
		LineNo: 1, ProductID: 1, SKUCode: "B-1",
		Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), LineTotal: decimal.NewFromInt(100),
	}}
	order.Subtotal = decimal.NewFromInt(100)
	order.TaxAmount = decimal.NewFromInt(24)
	order.Total = decimal.NewFromInt(124)
	require.NoError(t, database.NewGormTransactor(repo.db).WithinTransaction(ctx, func(ctx context.Context) error {
		return repo.ReplaceLines(ctx, order)
	}))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, "B-1", stored.Lines[0].SKUCode)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(124)))
}

func TestListFiltersAndPages(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		o := newOrder(fmt.Sprintf("ORD-20240309-%04d", i))
		if i%2 == 0 {
			o.Channel = domain.ChannelB2B
		}
		require.NoError(t, repo.Create(ctx, o))
	}

	orders, total, err := repo.List(ctx, domain.OrderFilter{Channel: domain.ChannelB2B, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, orders, 2)

	orders, total, err = repo.List(ctx, domain.OrderFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, orders, 2)
}

func TestMaxSequence(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	for _, n := range []string{"ORD-20240309-0007", "ORD-20240309-0012", "ORD-20240310-0099"} {
		require.NoError(t, repo.Create(ctx, newOrder(n)))
	}

	seq, err := repo.MaxSequence(ctx, "20240309")
	require.NoError(t, err)
	assert.EqualValues(t, 12, seq)

	seq, err = repo.MaxSequence(ctx, "20240311")
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestGormSequenceAllocatorSeedsFromStoredOrders(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newOrder("ORD-20240309-0041")))
	alloc := NewGormSequenceAllocator(repo.db, repo)

	for _, want := range []int64{42, 43} {
		seq, err := alloc.Next(ctx, "20240309")
		require.NoError(t, err)
		assert.Equal(t, want, seq)
	}

	seq, err := alloc.Next(ctx, "20240310")
	require.NoError(t, err)
	assert.EqualValues(t, 1, seq)
}

func TestGormSequenceAllocatorRollsBackWithTransaction(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	alloc := NewGormSequenceAllocator(repo.db, repo)
	tx := database.NewGormTransactor(repo.db)

	_ = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := alloc.Next(ctx, "20240309")
		require.NoError(t, err)
		return assert.AnError
	})

	seq, err := alloc.Next(ctx, "20240309")
	require.NoError(t, err)
	assert.EqualValues(t, 1, seq)
}

func TestGormSequenceAllocatorCatchesUpWithStoredOrders(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	alloc := NewGormSequenceAllocator(repo.db, repo)

	seq, err := alloc.Next(ctx, "20240309")
	require.NoError(t, err)
	require.EqualValues(t, 1, seq)

	// numbers issued elsewhere leave the counter row behind
	require.NoError(t, repo.Create(ctx, newOrder("ORD-20240309-0001")))
	require.NoError(t, repo.Create(ctx, newOrder("ORD-20240309-0002")))

	seq, err = alloc.Next(ctx, "20240309")
	require.NoError(t, err)
	assert.EqualValues(t, 3, seq)

	seq, err = alloc.Next(ctx, "20240309")
	require.NoError(t, err)
	assert.EqualValues(t, 4, seq)
}

func TestRedisSequenceAllocator(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run Redis tests")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })

	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newOrder("ORD-20240309-0005")))

	prefix := fmt.Sprintf("test:%s:%d:", t.Name(), time.Now().UnixNano())
	t.Cleanup(func() { rdb.Del(context.Background(), prefix+"20240309") })
	alloc := NewRedisSequenceAllocator(rdb, repo, prefix)

	for _, want := range []int64{6, 7} {
		seq, err := alloc.Next(ctx, "20240309")
		require.NoError(t, err)
		assert.Equal(t, want, seq)
	}
	ttl, err := rdb.TTL(ctx, prefix+"20240309").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Hour)
}
