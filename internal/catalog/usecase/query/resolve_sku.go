package query

import (
	"context"

	"github.com/tair/warehouse-erp/internal/catalog/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
)

// ResolveSKUHandler checks that a SKU code belongs to a product.
// Archived SKUs still resolve so history that references them stays valid.
type ResolveSKUHandler struct {
	repo domain.ProductRepository
}

// NewResolveSKUHandler creates a new handler
func NewResolveSKUHandler(repo domain.ProductRepository) *ResolveSKUHandler {
	return &ResolveSKUHandler{repo: repo}
}

// Handle returns the resolved SKU or an UNKNOWN_SKU not found error
func (h *ResolveSKUHandler) Handle(ctx context.Context, productID uint, code string) (*domain.SKURef, error) {
	code = domain.NormalizeCode(code)
	product, err := h.repo.FindBySKUCode(ctx, code)
	if err != nil {
		return nil, apperr.From(err)
	}
	sku, ok := product.FindSKU(code)
	if !ok || (productID != 0 && product.ID != productID) {
		return nil, apperr.NotFound("sku", code).WithCode(apperr.CodeUnknownSku)
	}

	return &domain.SKURef{
		ProductID:   product.ID,
		ProductName: product.Name,
		SKU:         *sku,
	}, nil
}
