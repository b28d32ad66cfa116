package command

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventorydomain "github.com/tair/warehouse-erp/internal/inventory/domain"
	inventoryrepo "github.com/tair/warehouse-erp/internal/inventory/repository"
	inventorycommand "github.com/tair/warehouse-erp/internal/inventory/usecase/command"
	"github.com/tair/warehouse-erp/internal/order/client"
	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/internal/order/repository"
	"github.com/tair/warehouse-erp/internal/testutil/seed"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/lock"
)

const actor = uint(3)

var today = time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

type fixture struct {
	env         *seed.Env
	orders      *repository.GormOrderRepository
	stock       *inventoryrepo.GormStockRepository
	receive     *inventorycommand.AppendMovementHandler
	create      *CreateOrderHandler
	lines       *UpdateOrderLinesHandler
	confirm     *ConfirmOrderHandler
	status      *UpdateOrderStatusHandler
	payment     *UpdatePaymentStatusHandler
	productID   uint
	warehouseID uint
}

func newFixture(t *testing.T) *fixture {
	env := seed.NewEnv(t,
		&inventorydomain.StockLevel{}, &inventorydomain.StockMovement{},
		&domain.Order{}, &domain.OrderLine{}, &repository.OrderSequence{},
	)
	locker := lock.NewKeyedMutex()

	stock := inventoryrepo.NewGormStockRepository(env.DB)
	ledger := inventorycommand.NewLedger(stock, env.Tx, locker, env.CatalogClient, env.WarehouseClient, nil, nil)
	ledgerClient := client.NewInventoryLedgerClient(inventorycommand.NewAppendMovementsHandler(ledger))

	orders := repository.NewGormOrderRepository(env.DB)
	tracedOrders := repository.NewTracingOrderRepository(orders)
	create := NewCreateOrderHandler(tracedOrders, env.Tx, locker,
		repository.NewGormSequenceAllocator(env.DB, orders), env.CatalogClient, env.WarehouseClient, nil)
	create.now = func() time.Time { return today }
	confirm := NewConfirmOrderHandler(tracedOrders, locker, ledgerClient, nil, nil)

	product := env.Product(t, "Wireless Headphones", "WBH-001-BLK", "WBH-001-WHT")
	return &fixture{
		env:         env,
		orders:      orders,
		stock:       stock,
		receive:     inventorycommand.NewAppendMovementHandler(ledger),
		create:      create,
		lines:       NewUpdateOrderLinesHandler(tracedOrders, env.Tx, locker, env.CatalogClient),
		confirm:     confirm,
		status:      NewUpdateOrderStatusHandler(tracedOrders, env.Tx, locker, ledgerClient, confirm, nil, nil),
		payment:     NewUpdatePaymentStatusHandler(tracedOrders, locker),
		productID:   product.ID,
		warehouseID: env.Warehouse(t, "MAIN", false).ID,
	}
}

func (f *fixture) stockIn(t *testing.T, qty int64) {
	t.Helper()
	_, err := f.receive.Handle(context.Background(), inventorycommand.AppendMovementCommand{
		MovementInput: inventorycommand.MovementInput{
			ProductID:   f.productID,
			SKUCode:     "WBH-001-BLK",
			Quantity:    decimal.NewFromInt(qty),
			Type:        inventorydomain.MovementIn,
			WarehouseID: f.warehouseID,
			RefType:     inventorydomain.RefPurchase,
		},
		ActorID: actor,
	})
	require.NoError(t, err)
}

func (f *fixture) level(t *testing.T) decimal.Decimal {
	t.Helper()
	level, err := f.stock.GetLevel(context.Background(), inventorydomain.LevelKey{SKUCode: "WBH-001-BLK", WarehouseID: f.warehouseID})
	if apperr.IsKind(err, apperr.KindNotFound) {
		return decimal.Zero
	}
	require.NoError(t, err)
	return level.Quantity
}

func (f *fixture) orderCmd(qty int64) CreateOrderCommand {
	return CreateOrderCommand{
		Customer:    domain.CustomerInfo{Name: "Maria P."},
		Lines:       []LineInput{{ProductID: f.productID, SKUCode: "wbh-001-blk", Quantity: decimal.NewFromInt(qty)}},
		Channel:     domain.ChannelPOS,
		WarehouseID: f.warehouseID,
		ActorID:     actor,
	}
}

func (f *fixture) draft(t *testing.T, qty int64) *domain.Order {
	t.Helper()
	order, err := f.create.Handle(context.Background(), f.orderCmd(qty))
	require.NoError(t, err)
	return order
}

func (f *fixture) movementCount(t *testing.T, refType inventorydomain.RefType) int64 {
	var n int64
	require.NoError(t, f.env.DB.Model(&inventorydomain.StockMovement{}).Where("ref_type = ?", refType).Count(&n).Error)
	return n
}

func TestCreateOrderComputesTotalsAndNumbers(t *testing.T) {
	f := newFixture(t)

	order := f.draft(t, 2)

	assert.Equal(t, "ORD-20240309-0001", order.OrderNumber)
	assert.Equal(t, domain.StatusDraft, order.Status)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "299.98", order.Subtotal.String())
	assert.Equal(t, "0.24", order.TaxRate.String())
	assert.Equal(t, "71.9952", order.TaxAmount.String())
	assert.Equal(t, "371.9752", order.Total.String())
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "WBH-001-BLK", order.Lines[0].SKUCode)
	assert.Equal(t, 1, order.Lines[0].LineNo)

	stored, err := f.orders.FindByNumber(context.Background(), "ORD-20240309-0001")
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("371.9752")))
	require.Len(t, stored.Lines, 1)
	assert.True(t, stored.Lines[0].LineTotal.Equal(decimal.RequireFromString("299.98")))

	assert.Equal(t, "ORD-20240309-0002", f.draft(t, 1).OrderNumber)
}

func TestCreateOrderRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.env.Products.SetSKUStatus(ctx, "WBH-001-WHT", "ARCHIVED"))

	tests := []struct {
		name string
		mutate func(cmd *CreateOrderCommand)
		kind  apperr.Kind
		field string
	}{
		{name: "no lines", mutate: func(c *CreateOrderCommand) { c.Lines = nil }, kind: apperr.KindEmptyOrder},
		{name: "missing customer", mutate: func(c *CreateOrderCommand) { c.Customer.Name = "  " }, kind: apperr.KindValidation, field: "customer.name"},
		{name: "zero quantity", mutate: func(c *CreateOrderCommand) { c.Lines[0].Quantity = decimal.Zero }, kind: apperr.KindValidation, field: "lines[0].quantity"},
		{name: "bad channel", mutate: func(c *CreateOrderCommand) { c.Channel = "FAX" }, kind: apperr.KindValidation, field: "channel"},
		{name: "archived sku", mutate: func(c *CreateOrderCommand) { c.Lines[0].SKUCode = "WBH-001-WHT" }, kind: apperr.KindValidation, field: "lines[0].sku_code"},
		{name: "unknown sku", mutate: func(c *CreateOrderCommand) { c.Lines[0].SKUCode = "NOPE" }, kind: apperr.KindNotFound},
		{name: "sku of another product", mutate: func(c *CreateOrderCommand) { c.Lines[0].ProductID = 999 }, kind: apperr.KindNotFound},
		{name: "unknown warehouse", mutate: func(c *CreateOrderCommand) { c.WarehouseID = 999 }, kind: apperr.KindNotFound},
		{name: "discount above subtotal", mutate: func(c *CreateOrderCommand) { c.DiscountAmount = decimal.NewFromInt(1000) }, kind: apperr.KindValidation, field: "discount_amount"},
		{name: "missing actor", mutate: func(c *CreateOrderCommand) { c.ActorID = 0 }, kind: apperr.KindValidation, field: "actor_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := f.orderCmd(1)
			tt.mutate(&cmd)

			_, err := f.create.Handle(ctx, cmd)

			assert.Equal(t, tt.kind, apperr.KindOf(err))
			if tt.field != "" {
				var appErr *apperr.Error
				require.ErrorAs(t, err, &appErr)
				assert.Contains(t, appErr.Fields, tt.field)
			}
		})
	}

	var n int64
	require.NoError(t, f.env.DB.Model(&domain.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestOrderSequenceContinuesFromExistingNumbers(t *testing.T) {
	f := newFixture(t)
	existing := f.draft(t, 1)
	require.NoError(t, f.env.DB.Model(&domain.Order{}).
		Where("id = ?", existing.ID).
		Update("order_number", "ORD-20240309-0041").Error)
	require.NoError(t, f.env.DB.Where("1 = 1").Delete(&repository.OrderSequence{}).Error)

	assert.Equal(t, "ORD-20240309-0042", f.draft(t, 1).OrderNumber)
}

func TestConcurrentOrdersGetDistinctNumbers(t *testing.T) {
	f := newFixture(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := f.create.Handle(context.Background(), f.orderCmd(1))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, numbers[order.OrderNumber], "duplicate %s", order.OrderNumber)
			numbers[order.OrderNumber] = true
		}()
	}
	wg.Wait()

	require.Len(t, numbers, 12)
	for i := 1; i <= 12; i++ {
		assert.True(t, numbers[fmt.Sprintf("ORD-20240309-%04d", i)])
	}
}

type scriptedSequence struct {
	mu   sync.Mutex
	next []int64
}

func (s *scriptedSequence) Next(context.Context, string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.next[0]
	if len(s.next) > 1 {
		s.next = s.next[1:]
	}
	return v, nil
}

func TestCreateOrderRetriesNumberCollisions(t *testing.T) {
	f := newFixture(t)
	f.draft(t, 1)

	f.create.sequence = &scriptedSequence{next: []int64{1, 1, 2}}
	order, err := f.create.Handle(context.Background(), f.orderCmd(1))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240309-0002", order.OrderNumber)

	f.create.sequence = &scriptedSequence{next: []int64{1}}
	_, err = f.create.Handle(context.Background(), f.orderCmd(1))
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	f.create.sequence = &scriptedSequence{next: []int64{domain.MaxDailySequence + 1}}
	_, err = f.create.Handle(context.Background(), f.orderCmd(1))
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestCreateOrderRecoversFromStaleSequenceRow(t *testing.T) {
	f := newFixture(t)
	f.draft(t, 1)
	f.draft(t, 1)
	require.NoError(t, f.env.DB.Model(&repository.OrderSequence{}).
		Where("day = ?", "20240309").
		Update("last_value", 0).Error)

	order, err := f.create.Handle(context.Background(), f.orderCmd(1))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240309-0003", order.OrderNumber)
	assert.Equal(t, "ORD-20240309-0004", f.draft(t, 1).OrderNumber)
}

func TestConfirmOrderTakesStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockIn(t, 50)
	order := f.draft(t, 2)

	confirmed, err := f.confirm.Handle(ctx, ConfirmOrderCommand{ID: order.ID, ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)
	assert.True(t, f.level(t).Equal(decimal.NewFromInt(48)))

	var sale inventorydomain.StockMovement
	require.NoError(t, f.env.DB.Where("ref_type = ?", inventorydomain.RefSale).First(&sale).Error)
	assert.Equal(t, fmt.Sprint(order.ID), sale.RefID)
	assert.Equal(t, inventorydomain.MovementOut, sale.Type)

	_, err = f.confirm.Handle(ctx, ConfirmOrderCommand{ID: order.ID, ActorID: actor})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
	assert.True(t, f.level(t).Equal(decimal.NewFromInt(48)))
	assert.EqualValues(t, 1, f.movementCount(t, inventorydomain.RefSale))
}

func TestConfirmOrderIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockIn(t, 1)

	order, err := f.create.Handle(ctx, CreateOrderCommand{
		Customer: domain.CustomerInfo{Name: "B2B client"},
		Lines: []LineInput{
			{ProductID: f.productID, SKUCode: "WBH-001-WHT", Quantity: decimal.NewFromInt(1)},
			{ProductID: f.productID, SKUCode: "WBH-001-BLK", Quantity: decimal.NewFromInt(2)},
		},
		Channel:     domain.ChannelB2B,
		WarehouseID: f.warehouseID,
		ActorID:     actor,
	})
	require.NoError(t, err)

	_, err = f.confirm.Handle(ctx, ConfirmOrderCommand{ID: order.ID, ActorID: actor})
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, stored.Status)
	assert.Nil(t, stored.ConfirmedAt)
	assert.Zero(t, f.movementCount(t, inventorydomain.RefSale))
	assert.True(t, f.level(t).Equal(decimal.NewFromInt(1)))
}

func TestConcurrentConfirmationsSucceedOnce(t *testing.T) {
	f := newFixture(t)
	f.stockIn(t, 10)
	order := f.draft(t, 3)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.confirm.Handle(context.Background(), ConfirmOrderCommand{ID: order.ID, ActorID: actor})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			kind := apperr.KindOf(err)
			assert.True(t, kind == apperr.KindConflict || kind == apperr.KindInvalidTransition, "unexpected %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.True(t, f.level(t).Equal(decimal.NewFromInt(7)))
	assert.EqualValues(t, 1, f.movementCount(t, inventorydomain.RefSale))
}

func TestUpdateOrderStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockIn(t, 5)
	order := f.draft(t, 1)

	move := func(to domain.Status) error {
		_, err := f.status.Handle(ctx, UpdateOrderStatusCommand{ID: order.ID, Status: to, ActorID: actor})
		return err
	}

	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(move(domain.StatusPicking)))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(move("LOST")))

	for _, to := range []domain.Status{domain.StatusConfirmed, domain.StatusPicking, domain.StatusPacked, domain.StatusShipped, domain.StatusDelivered} {
		require.NoError(t, move(to), "to %s", to)
	}
	assert.True(t, f.level(t).Equal(decimal.NewFromInt(4)))

	for _, to := range []domain.Status{domain.StatusCancelled, domain.StatusShipped, domain.StatusDraft} {
		assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(move(to)), "from DELIVERED to %s", to)
	}

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, stored.Status)
}

func TestCancelRestocksOnlyAfterConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockIn(t, 5)

	draft := f.draft(t, 2)
	cancelled, err := f.status.Handle(ctx, UpdateOrderStatusCommand{ID: draft.ID, Status: domain.StatusCancelled, ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Zero(t, f.movementCount(t, inventorydomain.RefReturn))

	order := f.draft(t, 2)
	_, err = f.status.Handle(ctx, UpdateOrderStatusCommand{ID: order.ID, Status: domain.StatusConfirmed, ActorID: actor})
	require.NoError(t, err)
	_, err = f.status.Handle(ctx, UpdateOrderStatusCommand{ID: order.ID, Status: domain.StatusPicking, ActorID: actor})
	require.NoError(t, err)
	assert.True(t, f.level(t).Equal(decimal.NewFromInt(3)))

	_, err = f.status.Handle(ctx, UpdateOrderStatusCommand{ID: order.ID, Status: domain.StatusCancelled, ActorID: actor})
	require.NoError(t, err)
	assert.True(t, f.level(t).Equal(decimal.NewFromInt(5)))
	assert.EqualValues(t, 1, f.movementCount(t, inventorydomain.RefReturn))

	_, err = f.status.Handle(ctx, UpdateOrderStatusCommand{ID: order.ID, Status: domain.StatusCancelled, ActorID: actor})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestUpdateOrderLinesOnlyWhileDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockIn(t, 10)
	order := f.draft(t, 1)

	price := decimal.NewFromInt(100)
	updated, err := f.lines.Handle(ctx, UpdateOrderLinesCommand{
		ID: order.ID,
		Lines: []LineInput{
			{ProductID: f.productID, SKUCode: "WBH-001-BLK", Quantity: decimal.NewFromInt(3), UnitPrice: &price, DiscountPercent: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "270", updated.Subtotal.String())
	assert.Equal(t, "64.8", updated.TaxAmount.String())

	stored, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("334.8")))
	assert.True(t, stored.Lines[0].Quantity.Equal(decimal.NewFromInt(3)))

	_, err = f.lines.Handle(ctx, UpdateOrderLinesCommand{ID: order.ID})
	assert.Equal(t, apperr.KindEmptyOrder, apperr.KindOf(err))

	_, err = f.confirm.Handle(ctx, ConfirmOrderCommand{ID: order.ID, ActorID: actor})
	require.NoError(t, err)
	assert.True(t, f.level(t).Equal(decimal.NewFromInt(7)))

	_, err = f.lines.Handle(ctx, UpdateOrderLinesCommand{
		ID:    order.ID,
		Lines: []LineInput{{ProductID: f.productID, SKUCode: "WBH-001-BLK", Quantity: decimal.NewFromInt(1)}},
	})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))
}

func TestRefundedPaymentIsFinal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.draft(t, 1)

	paid, err := f.payment.Handle(ctx, UpdatePaymentStatusCommand{ID: order.ID, PaymentStatus: domain.PaymentPaid, PaymentMethod: domain.PaymentCard})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCard, paid.PaymentMethod)

	_, err = f.payment.Handle(ctx, UpdatePaymentStatusCommand{ID: order.ID, PaymentStatus: domain.PaymentRefunded})
	require.NoError(t, err)

	_, err = f.payment.Handle(ctx, UpdatePaymentStatusCommand{ID: order.ID, PaymentStatus: domain.PaymentPaid})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	_, err = f.payment.Handle(ctx, UpdatePaymentStatusCommand{ID: order.ID, PaymentStatus: "LOST"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.payment.Handle(ctx, UpdatePaymentStatusCommand{ID: 999, PaymentStatus: domain.PaymentPaid})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestConfirmOrderReportsLockedOrder(t *testing.T) {
	f := newFixture(t)
	order := f.draft(t, 1)

	locker := lock.NewKeyedMutex()
	release, err := locker.TryAcquire(context.Background(), orderLockKey(order.ID))
	require.NoError(t, err)
	defer release()
	f.confirm.locker = locker

	_, err = f.confirm.Handle(context.Background(), ConfirmOrderCommand{ID: order.ID, ActorID: actor})
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindConflict, Code: apperr.CodeOrderLocked})
}
