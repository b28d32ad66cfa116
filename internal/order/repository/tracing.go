package repository

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/pkg/tracing"
)

var tracer = otel.Tracer("order-repository")

// TracingOrderRepository wraps an OrderRepository with spans
type TracingOrderRepository struct {
	next domain.OrderRepository
}

// NewTracingOrderRepository creates a new repository with tracing
func NewTracingOrderRepository(next domain.OrderRepository) *TracingOrderRepository {
	return &TracingOrderRepository{next: next}
}

func (r *TracingOrderRepository) Create(ctx context.Context, order *domain.Order) (err error) {
	ctx, span := tracer.Start(ctx, "order.repository.Create",
		trace.WithAttributes(
			attribute.String("order.number", order.OrderNumber),
			attribute.Int("order.line_count", len(order.Lines)),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	err = r.next.Create(ctx, order)
	span.SetAttributes(attribute.Int("order.id", int(order.ID)))
	return err
}

func (r *TracingOrderRepository) ReplaceLines(ctx context.Context, order *domain.Order) (err error) {
	ctx, span := tracer.Start(ctx, "order.repository.ReplaceLines",
		trace.WithAttributes(
			attribute.Int("order.id", int(order.ID)),
			attribute.Int("order.line_count", len(order.Lines)),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.ReplaceLines(ctx, order)
}

func (r *TracingOrderRepository) FindByID(ctx context.Context, id uint) (_ *domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.repository.FindByID",
		trace.WithAttributes(attribute.Int("order.id", int(id))),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.FindByID(ctx, id)
}

func (r *TracingOrderRepository) FindByNumber(ctx context.Context, number string) (_ *domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.repository.FindByNumber",
		trace.WithAttributes(attribute.String("order.number", number)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.FindByNumber(ctx, number)
}

func (r *TracingOrderRepository) List(ctx context.Context, filter domain.OrderFilter) (_ []domain.Order, _ int64, err error) {
	ctx, span := tracer.Start(ctx, "order.repository.List",
		trace.WithAttributes(
			attribute.Int("query.page", filter.Page),
			attribute.Int("query.limit", filter.Limit),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	orders, total, err := r.next.List(ctx, filter)
	span.SetAttributes(attribute.Int64("result.total", total))
	return orders, total, err
}

func (r *TracingOrderRepository) TransitionStatus(ctx context.Context, id uint, from, to domain.Status, at time.Time) (err error) {
	ctx, span := tracer.Start(ctx, "order.repository.TransitionStatus",
		trace.WithAttributes(
			attribute.Int("order.id", int(id)),
			attribute.String("order.status.from", string(from)),
			attribute.String("order.status.to", string(to)),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.TransitionStatus(ctx, id, from, to, at)
}

func (r *TracingOrderRepository) UpdatePayment(ctx context.Context, id uint, status domain.PaymentStatus, method domain.PaymentMethod) (err error) {
	ctx, span := tracer.Start(ctx, "order.repository.UpdatePayment",
		trace.WithAttributes(
			attribute.Int("order.id", int(id)),
			attribute.String("order.payment_status", string(status)),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.UpdatePayment(ctx, id, status, method)
}

func (r *TracingOrderRepository) MaxSequence(ctx context.Context, day string) (_ int64, err error) {
	ctx, span := tracer.Start(ctx, "order.repository.MaxSequence",
		trace.WithAttributes(attribute.String("order.day", day)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.MaxSequence(ctx, day)
}
