package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/warehouse-erp/internal/warehouse/domain"
	"github.com/tair/warehouse-erp/pkg/tracing"
)

var tracer = otel.Tracer("warehouse-repository")

// TracingWarehouseRepository wraps a WarehouseRepository with spans
type TracingWarehouseRepository struct {
	next domain.WarehouseRepository
}

// NewTracingWarehouseRepository creates a new repository with tracing
func NewTracingWarehouseRepository(next domain.WarehouseRepository) *TracingWarehouseRepository {
	return &TracingWarehouseRepository{next: next}
}

func (r *TracingWarehouseRepository) Create(ctx context.Context, warehouse *domain.Warehouse) (err error) {
	ctx, span := tracer.Start(ctx, "warehouse.repository.Create",
		trace.WithAttributes(attribute.String("warehouse.code", warehouse.Code)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.Create(ctx, warehouse)
}

func (r *TracingWarehouseRepository) Update(ctx context.Context, warehouse *domain.Warehouse) (err error) {
	ctx, span := tracer.Start(ctx, "warehouse.repository.Update",
		trace.WithAttributes(attribute.Int("warehouse.id", int(warehouse.ID))),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.Update(ctx, warehouse)
}

func (r *TracingWarehouseRepository) FindByID(ctx context.Context, id uint) (_ *domain.Warehouse, err error) {
	ctx, span := tracer.Start(ctx, "warehouse.repository.FindByID",
		trace.WithAttributes(attribute.Int("warehouse.id", int(id))),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.FindByID(ctx, id)
}

func (r *TracingWarehouseRepository) FindByCode(ctx context.Context, code string) (_ *domain.Warehouse, err error) {
	ctx, span := tracer.Start(ctx, "warehouse.repository.FindByCode",
		trace.WithAttributes(attribute.String("warehouse.code", code)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.FindByCode(ctx, code)
}

func (r *TracingWarehouseRepository) List(ctx context.Context, filter domain.WarehouseFilter) (_ []domain.Warehouse, _ int64, err error) {
	ctx, span := tracer.Start(ctx, "warehouse.repository.List",
		trace.WithAttributes(
			attribute.Int("page", filter.Page),
			attribute.Int("limit", filter.Limit),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.List(ctx, filter)
}
