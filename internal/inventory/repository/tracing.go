package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/warehouse-erp/internal/inventory/domain"
	"github.com/tair/warehouse-erp/pkg/tracing"
)

var tracer = otel.Tracer("inventory-repository")

// TracingStockRepository wraps a StockRepository with spans
type TracingStockRepository struct {
	next domain.StockRepository
}

// NewTracingStockRepository creates a new repository with tracing
func NewTracingStockRepository(next domain.StockRepository) *TracingStockRepository {
	return &TracingStockRepository{next: next}
}

func (r *TracingStockRepository) ApplyMovement(ctx context.Context, m *domain.StockMovement, allowNegative bool) (err error) {
	ctx, span := tracer.Start(ctx, "inventory.repository.ApplyMovement",
		trace.WithAttributes(
			attribute.String("sku.code", m.SKUCode),
			attribute.Int("warehouse.id", int(m.WarehouseID)),
			attribute.String("movement.type", string(m.Type)),
			attribute.String("movement.delta", m.Delta.String()),
			attribute.Bool("warehouse.allow_negative_stock", allowNegative),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	err = r.next.ApplyMovement(ctx, m, allowNegative)
	if err == nil {
		span.SetAttributes(
			attribute.Int("movement.id", int(m.ID)),
			attribute.String("stock.resulting_quantity", m.ResultingQuantity.String()),
		)
	}
	return err
}

func (r *TracingStockRepository) GetLevel(ctx context.Context, key domain.LevelKey) (_ *domain.StockLevel, err error) {
	ctx, span := tracer.Start(ctx, "inventory.repository.GetLevel",
		trace.WithAttributes(
			attribute.String("sku.code", key.SKUCode),
			attribute.Int("warehouse.id", int(key.WarehouseID)),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.GetLevel(ctx, key)
}

func (r *TracingStockRepository) ListLevels(ctx context.Context, filter domain.LevelFilter) (_ []domain.StockLevel, err error) {
	ctx, span := tracer.Start(ctx, "inventory.repository.ListLevels",
		trace.WithAttributes(attribute.String("sku.code", filter.SKUCode)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	levels, err := r.next.ListLevels(ctx, filter)
	span.SetAttributes(attribute.Int("result.count", len(levels)))
	return levels, err
}

func (r *TracingStockRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) (_ []domain.StockMovement, _ int64, err error) {
	ctx, span := tracer.Start(ctx, "inventory.repository.ListMovements",
		trace.WithAttributes(
			attribute.Int("query.page", filter.Page),
			attribute.Int("query.limit", filter.Limit),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	movements, total, err := r.next.ListMovements(ctx, filter)
	span.SetAttributes(attribute.Int64("result.total", total))
	return movements, total, err
}

func (r *TracingStockRepository) SumDeltas(ctx context.Context, key domain.LevelKey) (_ decimal.Decimal, _ int64, err error) {
	ctx, span := tracer.Start(ctx, "inventory.repository.SumDeltas",
		trace.WithAttributes(
			attribute.String("sku.code", key.SKUCode),
			attribute.Int("warehouse.id", int(key.WarehouseID)),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.SumDeltas(ctx, key)
}
