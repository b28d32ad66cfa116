package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/warehouse-erp/internal/inventory/client"
	"github.com/tair/warehouse-erp/internal/inventory/domain"
	"github.com/tair/warehouse-erp/kafka"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/database"
	"github.com/tair/warehouse-erp/pkg/lock"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// MovementInput is one requested stock movement
type MovementInput struct {
	ProductID   uint                `json:"product_id" validate:"required"`
	SKUCode     string              `json:"sku_code" validate:"required,max=64"`
	Quantity    decimal.Decimal     `json:"quantity"`
	Type        domain.MovementType `json:"type" validate:"required,oneof=IN OUT ADJ"`
	WarehouseID uint                `json:"warehouse_id" validate:"required"`
	RefType     domain.RefType      `json:"ref_type" validate:"required,oneof=PURCHASE SALE TRANSFER ADJUSTMENT RETURN"`
	RefID       string              `json:"ref_id,omitempty" validate:"max=64"`
	UnitCost    *decimal.Decimal    `json:"unit_cost,omitempty" validate:"omitempty,gte=0"`
	Notes       string              `json:"notes,omitempty" validate:"max=500"`
}

func (in *MovementInput) normalize() {
	in.SKUCode = strings.ToUpper(strings.TrimSpace(in.SKUCode))
	in.RefID = strings.TrimSpace(in.RefID)
	in.Notes = strings.TrimSpace(in.Notes)
}

// TxHook runs inside the ledger transaction after every movement has been
// applied. Returning an error rolls the whole batch back.
type TxHook func(ctx context.Context, movements []domain.StockMovement) error

// Ledger appends movements and keeps the cached levels reconciled.
// Handlers in this package share one Ledger.
type Ledger struct {
	repo       domain.StockRepository
	tx         database.Transactor
	locker     lock.Locker
	catalog    client.CatalogClient
	warehouses client.WarehouseClient
	publisher  kafka.EventPublisher
	metrics    *Metrics
	now        func() time.Time
}

// NewLedger creates the ledger core
func NewLedger(
	repo domain.StockRepository,
	tx database.Transactor,
	locker lock.Locker,
	catalog client.CatalogClient,
	warehouses client.WarehouseClient,
	publisher kafka.EventPublisher,
	metrics *Metrics,
) *Ledger {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Ledger{
		repo:       repo,
		tx:         tx,
		locker:     locker,
		catalog:    catalog,
		warehouses: warehouses,
		publisher:  publisher,
		metrics:    metrics,
		now:        time.Now,
	}
}

// levelLockKey names the mutex guarding one cached level
func levelLockKey(sku string, warehouseID uint) string {
	return fmt.Sprintf("stock:%s:%d", sku, warehouseID)
}

// record validates the references, then applies all inputs atomically.
// Inputs must already be normalized and tag-validated.
func (l *Ledger) record(ctx context.Context, inputs []MovementInput, actorID uint, hook TxHook) ([]domain.StockMovement, error) {
	if actorID == 0 {
		return nil, apperr.InvalidField("actor_id", "is required")
	}

	now := l.now().UTC()
	movements := make([]domain.StockMovement, 0, len(inputs))
	policies := make(map[uint]*client.WarehouseInfo)
	keys := make([]string, 0, len(inputs))

	for _, in := range inputs {
		delta, err := domain.SignedDelta(in.Type, in.Quantity)
		if err != nil {
			return nil, err
		}
		if !domain.ValidRefType(in.RefType) {
			return nil, apperr.InvalidField("ref_type", "is not a known reference type")
		}

		sku, err := l.catalog.ResolveSKU(ctx, in.ProductID, in.SKUCode)
		if err != nil {
			return nil, apperr.From(err)
		}
		if _, ok := policies[in.WarehouseID]; !ok {
			wh, err := l.warehouses.GetWarehouse(ctx, in.WarehouseID)
			if err != nil {
				return nil, apperr.From(err)
			}
			policies[in.WarehouseID] = wh
		}

		m := domain.StockMovement{
			ProductID:   sku.ProductID,
			SKUCode:     sku.Code,
			WarehouseID: in.WarehouseID,
			Type:        in.Type,
			Quantity:    in.Quantity,
			Delta:       delta,
			RefType:     in.RefType,
			RefID:       in.RefID,
			Notes:       in.Notes,
			ActorID:     actorID,
			CreatedAt:   now,
		}
		if in.UnitCost != nil {
			m.UnitCost = decimal.NewNullDecimal(*in.UnitCost)
		}
		movements = append(movements, m)
		keys = append(keys, levelLockKey(m.SKUCode, m.WarehouseID))
	}

	release, err := l.locker.Acquire(ctx, keys...)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to lock stock levels: %w", err))
	}
	defer release()

	err = l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for i := range movements {
			allowNegative := policies[movements[i].WarehouseID].AllowNegativeStock
			if err := l.repo.ApplyMovement(ctx, &movements[i], allowNegative); err != nil {
				return err
			}
		}
		if hook != nil {
			return hook(ctx, movements)
		}
		return nil
	})
	if err != nil {
		if apperr.IsKind(err, apperr.KindInsufficientStock) {
			l.metrics.insufficientStock.Inc()
			logger.Warn(ctx).Err(err).Int("movement_count", len(movements)).Msg("Stock movement rejected")
		}
		return nil, apperr.From(err)
	}
	release()

	for _, m := range movements {
		l.metrics.movementsRecorded.WithLabelValues(string(m.Type), string(m.RefType)).Inc()
		logger.Info(ctx).
			Uint("movement_id", m.ID).
			Str("sku_code", m.SKUCode).
			Uint("warehouse_id", m.WarehouseID).
			Str("type", string(m.Type)).
			Str("delta", m.Delta.String()).
			Str("resulting_quantity", m.ResultingQuantity.String()).
			Msg("Stock movement recorded")
		l.publish(ctx, m)
	}
	return movements, nil
}

func (l *Ledger) publish(ctx context.Context, m domain.StockMovement) {
	err := l.publisher.PublishStockMovementRecorded(ctx, kafka.StockMovementRecordedEvent{
		MovementID:        m.ID,
		ProductID:         m.ProductID,
		SKUCode:           m.SKUCode,
		WarehouseID:       m.WarehouseID,
		Type:              string(m.Type),
		RefType:           string(m.RefType),
		RefID:             m.RefID,
		Quantity:          m.Quantity,
		Delta:             m.Delta,
		ResultingQuantity: m.ResultingQuantity,
		ActorID:           m.ActorID,
	})
	if err != nil {
		logger.Error(ctx).Err(err).Uint("movement_id", m.ID).Msg("Failed to publish stock movement event")
	}
}
