package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/warehouse-erp/internal/inventory/domain"
	"github.com/tair/warehouse-erp/internal/inventory/repository"
	"github.com/tair/warehouse-erp/internal/testutil/seed"
	"github.com/tair/warehouse-erp/kafka"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/lock"
)

const actor = uint(7)

type recordingPublisher struct {
	kafka.NopPublisher
	mu     sync.Mutex
	events []kafka.StockMovementRecordedEvent
}

func (p *recordingPublisher) PublishStockMovementRecorded(_ context.Context, e kafka.StockMovementRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type fixture struct {
	env       *seed.Env
	repo      *repository.GormStockRepository
	ledger    *Ledger
	metrics   *Metrics
	published *recordingPublisher
	append    *AppendMovementHandler
	batch     *AppendMovementsHandler
	transfer  *TransferStockHandler
	productID uint
	main      uint
	overflow  uint
}

func newFixture(t *testing.T) *fixture {
	env := seed.NewEnv(t, &domain.StockLevel{}, &domain.StockMovement{})
	repo := repository.NewGormStockRepository(env.DB)
	published := &recordingPublisher{}
	metrics := NewMetrics(prometheus.NewRegistry())
	ledger := NewLedger(repository.NewTracingStockRepository(repo), env.Tx, lock.NewKeyedMutex(),
		env.CatalogClient, env.WarehouseClient, published, metrics)

	product := env.Product(t, "Wireless Headphones", "WBH-001-BLK", "WBH-001-WHT")
	return &fixture{
		env:       env,
		repo:      repo,
		ledger:    ledger,
		metrics:   metrics,
		published: published,
		append:    NewAppendMovementHandler(ledger),
		batch:     NewAppendMovementsHandler(ledger),
		transfer:  NewTransferStockHandler(ledger),
		productID: product.ID,
		main:      env.Warehouse(t, "MAIN", false).ID,
		overflow:  env.Warehouse(t, "OVER", true).ID,
	}
}

func (f *fixture) input(typ domain.MovementType, qty string, warehouseID uint) MovementInput {
	return MovementInput{
		ProductID:   f.productID,
		SKUCode:     "wbh-001-blk",
		Quantity:    decimal.RequireFromString(qty),
		Type:        typ,
		WarehouseID: warehouseID,
		RefType:     domain.RefAdjustment,
	}
}

func (f *fixture) move(t *testing.T, typ domain.MovementType, qty string, warehouseID uint) (*domain.StockMovement, error) {
	t.Helper()
	return f.append.Handle(context.Background(), AppendMovementCommand{
		MovementInput: f.input(typ, qty, warehouseID),
		ActorID:       actor,
	})
}

func (f *fixture) level(t *testing.T, sku string, warehouseID uint) decimal.Decimal {
	t.Helper()
	level, err := f.repo.GetLevel(context.Background(), domain.LevelKey{SKUCode: sku, WarehouseID: warehouseID})
	if apperr.IsKind(err, apperr.KindNotFound) {
		return decimal.Zero
	}
	require.NoError(t, err)
	return level.Quantity
}

func (f *fixture) movementCount(t *testing.T) int64 {
	var n int64
	require.NoError(t, f.env.DB.Model(&domain.StockMovement{}).Count(&n).Error)
	return n
}

func TestInsufficientStockLeavesLevelAndLedgerUnchanged(t *testing.T) {
	f := newFixture(t)

	_, err := f.move(t, domain.MovementIn, "50", f.main)
	require.NoError(t, err)

	out, err := f.move(t, domain.MovementOut, "10", f.main)
	require.NoError(t, err)
	assert.True(t, out.Delta.Equal(decimal.NewFromInt(-10)))
	assert.True(t, out.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, out.ResultingQuantity.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "WBH-001-BLK", out.SKUCode)
	assert.False(t, out.CreatedAt.IsZero())
	assert.True(t, f.level(t, "WBH-001-BLK", f.main).Equal(decimal.NewFromInt(40)))

	_, err = f.move(t, domain.MovementOut, "45", f.main)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.True(t, f.level(t, "WBH-001-BLK", f.main).Equal(decimal.NewFromInt(40)))
	assert.EqualValues(t, 2, f.movementCount(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.insufficientStock))
	assert.Len(t, f.published.events, 2)
}

func TestNegativeStockAllowedByWarehousePolicy(t *testing.T) {
	f := newFixture(t)

	m, err := f.move(t, domain.MovementOut, "3", f.overflow)
	require.NoError(t, err)

	assert.True(t, m.ResultingQuantity.Equal(decimal.NewFromInt(-3)))
	assert.True(t, f.level(t, "WBH-001-BLK", f.overflow).Equal(decimal.NewFromInt(-3)))
}

func TestAdjustmentCorrectsWithOppositeSign(t *testing.T) {
	f := newFixture(t)

	_, err := f.move(t, domain.MovementIn, "12.5", f.main)
	require.NoError(t, err)
	m, err := f.move(t, domain.MovementAdjustment, "-2.5", f.main)
	require.NoError(t, err)

	assert.True(t, m.Delta.Equal(decimal.RequireFromString("-2.5")))
	assert.True(t, f.level(t, "WBH-001-BLK", f.main).Equal(decimal.NewFromInt(10)))
}

func TestAppendMovementRejections(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		mutate func(cmd *AppendMovementCommand)
		kind apperr.Kind
		code string
	}{
		{name: "zero quantity", mutate: func(c *AppendMovementCommand) { c.Quantity = decimal.Zero }, kind: apperr.KindInvalidQuantity},
		{name: "negative in", mutate: func(c *AppendMovementCommand) { c.Quantity = decimal.NewFromInt(-1) }, kind: apperr.KindValidation},
		{name: "unknown type", mutate: func(c *AppendMovementCommand) { c.Type = "MOVE" }, kind: apperr.KindValidation},
		{name: "unknown ref type", mutate: func(c *AppendMovementCommand) { c.RefType = "GIFT" }, kind: apperr.KindValidation},
		{name: "missing actor", mutate: func(c *AppendMovementCommand) { c.ActorID = 0 }, kind: apperr.KindValidation},
		{name: "unknown sku", mutate: func(c *AppendMovementCommand) { c.SKUCode = "NOPE" }, kind: apperr.KindNotFound, code: apperr.CodeUnknownSku},
		{name: "sku of another product", mutate: func(c *AppendMovementCommand) { c.ProductID = 999 }, kind: apperr.KindNotFound, code: apperr.CodeUnknownSku},
		{name: "unknown warehouse", mutate: func(c *AppendMovementCommand) { c.WarehouseID = 999 }, kind: apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := AppendMovementCommand{MovementInput: f.input(domain.MovementIn, "5", f.main), ActorID: actor}
			tt.mutate(&cmd)

			_, err := f.append.Handle(context.Background(), cmd)

			assert.Equal(t, tt.kind, apperr.KindOf(err))
			if tt.code != "" {
				assert.ErrorIs(t, err, &apperr.Error{Kind: tt.kind, Code: tt.code})
			}
		})
	}
	assert.Zero(t, f.movementCount(t))
}

func TestArchivedSKUStillAcceptsMovements(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.env.Products.SetSKUStatus(context.Background(), "WBH-001-BLK", "ARCHIVED"))

	_, err := f.move(t, domain.MovementIn, "1", f.main)
	assert.NoError(t, err)
}

func TestBatchIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	white := f.input(domain.MovementIn, "5", f.main)
	white.SKUCode = "WBH-001-WHT"
	_, err := f.batch.Handle(ctx, AppendMovementsCommand{
		Movements: []MovementInput{
			f.input(domain.MovementIn, "5", f.main),
			white,
			f.input(domain.MovementOut, "6", f.main),
		},
		ActorID: actor,
	})
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.Zero(t, f.movementCount(t))
	assert.True(t, f.level(t, "WBH-001-WHT", f.main).IsZero())

	movements, err := f.batch.Handle(ctx, AppendMovementsCommand{
		Movements: []MovementInput{f.input(domain.MovementIn, "5", f.main), f.input(domain.MovementOut, "5", f.main)},
		ActorID:   actor,
	})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.True(t, movements[1].ResultingQuantity.IsZero())
}

func TestBatchValidationNamesTheMovement(t *testing.T) {
	f := newFixture(t)
	bad := f.input(domain.MovementIn, "1", f.main)
	bad.SKUCode = ""

	_, err := f.batch.Handle(context.Background(), AppendMovementsCommand{
		Movements: []MovementInput{f.input(domain.MovementIn, "1", f.main), bad},
		ActorID:   actor,
	})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "movements[1].sku_code")
}

func TestTxHookFailureRollsBackBatch(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("hook failed")

	_, err := f.batch.Handle(context.Background(), AppendMovementsCommand{
		Movements: []MovementInput{f.input(domain.MovementIn, "5", f.main)},
		ActorID:   actor,
	}, WithTxHook(func(ctx context.Context, movements []domain.StockMovement) error {
		require.Len(t, movements, 1)
		assert.NotZero(t, movements[0].ID)
		return boom
	}))

	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.movementCount(t))
	assert.Empty(t, f.published.events)
}

func TestTransferStockMovesBetweenWarehouses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.move(t, domain.MovementIn, "10", f.main)
	require.NoError(t, err)

	transfer, err := f.transfer.Handle(ctx, TransferStockCommand{
		ProductID:       f.productID,
		SKUCode:         "wbh-001-blk",
		FromWarehouseID: f.main,
		ToWarehouseID:   f.overflow,
		Quantity:        decimal.NewFromInt(4),
		ActorID:         actor,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, transfer.RefID)
	assert.Equal(t, transfer.RefID, transfer.Out.RefID)
	assert.Equal(t, transfer.RefID, transfer.In.RefID)
	assert.Equal(t, domain.RefTransfer, transfer.In.RefType)
	assert.True(t, f.level(t, "WBH-001-BLK", f.main).Equal(decimal.NewFromInt(6)))
	assert.True(t, f.level(t, "WBH-001-BLK", f.overflow).Equal(decimal.NewFromInt(4)))

	_, err = f.transfer.Handle(ctx, TransferStockCommand{
		ProductID:       f.productID,
		SKUCode:         "WBH-001-BLK",
		FromWarehouseID: f.main,
		ToWarehouseID:   f.overflow,
		Quantity:        decimal.NewFromInt(7),
		ActorID:         actor,
	})
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.True(t, f.level(t, "WBH-001-BLK", f.overflow).Equal(decimal.NewFromInt(4)))

	_, err = f.transfer.Handle(ctx, TransferStockCommand{
		ProductID:       f.productID,
		SKUCode:         "WBH-001-BLK",
		FromWarehouseID: f.main,
		ToWarehouseID:   f.main,
		Quantity:        decimal.NewFromInt(1),
		ActorID:         actor,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestConcurrentOutMovementsNeverOversell(t *testing.T) {
	f := newFixture(t)
	_, err := f.move(t, domain.MovementIn, "10", f.main)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.move(t, domain.MovementOut, "1", f.main)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperr.IsKind(err, apperr.KindInsufficientStock):
				rejected++
			default:
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 15, rejected)
	assert.True(t, f.level(t, "WBH-001-BLK", f.main).IsZero())

	sum, count, err := f.repo.SumDeltas(context.Background(), domain.LevelKey{SKUCode: "WBH-001-BLK", WarehouseID: f.main})
	require.NoError(t, err)
	assert.EqualValues(t, 11, count)
	assert.True(t, sum.IsZero())
}

func TestApplyMovementRequiresTransaction(t *testing.T) {
	f := newFixture(t)

	err := f.repo.ApplyMovement(context.Background(), &domain.StockMovement{SKUCode: "WBH-001-BLK"}, false)

	assert.ErrorIs(t, err, repository.ErrNoTransaction)
}
