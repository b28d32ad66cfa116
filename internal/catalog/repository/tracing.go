package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/warehouse-erp/internal/catalog/domain"
	"github.com/tair/warehouse-erp/pkg/tracing"
)

var tracer = otel.Tracer("catalog-repository")

// TracingProductRepository wraps a ProductRepository with spans
type TracingProductRepository struct {
	next domain.ProductRepository
}

// NewTracingProductRepository creates a new repository with tracing
func NewTracingProductRepository(next domain.ProductRepository) *TracingProductRepository {
	return &TracingProductRepository{next: next}
}

func (r *TracingProductRepository) Create(ctx context.Context, product *domain.Product) (err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.Create",
		trace.WithAttributes(attribute.String("product.name", product.Name)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	err = r.next.Create(ctx, product)
	span.SetAttributes(attribute.Int("product.id", int(product.ID)))
	return err
}

func (r *TracingProductRepository) Update(ctx context.Context, product *domain.Product) (err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.Update",
		trace.WithAttributes(attribute.Int("product.id", int(product.ID))),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.Update(ctx, product)
}

func (r *TracingProductRepository) AddSKUs(ctx context.Context, productID uint, skus []domain.SKU) (err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.AddSKUs",
		trace.WithAttributes(
			attribute.Int("product.id", int(productID)),
			attribute.Int("sku.count", len(skus)),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.AddSKUs(ctx, productID, skus)
}

func (r *TracingProductRepository) UpdateSKU(ctx context.Context, sku *domain.SKU) (err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.UpdateSKU",
		trace.WithAttributes(attribute.String("sku.code", sku.Code)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.UpdateSKU(ctx, sku)
}

func (r *TracingProductRepository) SetSKUStatus(ctx context.Context, code string, status domain.SKUStatus) (err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.SetSKUStatus",
		trace.WithAttributes(
			attribute.String("sku.code", code),
			attribute.String("sku.status", string(status)),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.SetSKUStatus(ctx, code, status)
}

func (r *TracingProductRepository) ArchiveProduct(ctx context.Context, productID uint) (err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.ArchiveProduct",
		trace.WithAttributes(attribute.Int("product.id", int(productID))),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.ArchiveProduct(ctx, productID)
}

func (r *TracingProductRepository) FindByID(ctx context.Context, id uint) (_ *domain.Product, err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.FindByID",
		trace.WithAttributes(attribute.Int("product.id", int(id))),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.FindByID(ctx, id)
}

func (r *TracingProductRepository) FindBySKUCode(ctx context.Context, code string) (_ *domain.Product, err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.FindBySKUCode",
		trace.WithAttributes(attribute.String("sku.code", code)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.FindBySKUCode(ctx, code)
}

func (r *TracingProductRepository) FindByBarcode(ctx context.Context, barcode string) (_ *domain.Product, err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.FindByBarcode",
		trace.WithAttributes(attribute.String("barcode", barcode)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.FindByBarcode(ctx, barcode)
}

func (r *TracingProductRepository) List(ctx context.Context, filter domain.ProductFilter) (_ []domain.Product, _ int64, err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.List",
		trace.WithAttributes(
			attribute.Int("page", filter.Page),
			attribute.Int("limit", filter.Limit),
			attribute.String("search", filter.Search),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	products, total, err := r.next.List(ctx, filter)
	span.SetAttributes(attribute.Int64("result.total", total))
	return products, total, err
}

func (r *TracingProductRepository) ExistingSKUCodes(ctx context.Context, codes []string, excludeProductID uint) (_ []string, err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.ExistingSKUCodes",
		trace.WithAttributes(attribute.StringSlice("sku.codes", codes)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.ExistingSKUCodes(ctx, codes, excludeProductID)
}

func (r *TracingProductRepository) ExistingBarcodes(ctx context.Context, barcodes []string, excludeProductID uint) (_ []string, err error) {
	ctx, span := tracer.Start(ctx, "catalog.repository.ExistingBarcodes",
		trace.WithAttributes(attribute.Int("barcode.count", len(barcodes))),
	)
	defer func() { tracing.EndSpan(span, err) }()

	return r.next.ExistingBarcodes(ctx, barcodes, excludeProductID)
}
