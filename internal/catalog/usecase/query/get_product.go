package query

import (
	"context"
	"strings"

	"github.com/tair/warehouse-erp/internal/catalog/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
)

// GetProductQuery represents the query to get a product by ID
type GetProductQuery struct {
	ID uint
}

// GetProductHandler handles get product query
type GetProductHandler struct {
	repo domain.ProductRepository
}

// NewGetProductHandler creates a new get product handler
func NewGetProductHandler(repo domain.ProductRepository) *GetProductHandler {
	return &GetProductHandler{repo: repo}
}

// Handle executes the get product query
func (h *GetProductHandler) Handle(ctx context.Context, q GetProductQuery) (*domain.Product, error) {
	if q.ID == 0 {
		return nil, apperr.InvalidField("id", "is required")
	}
	product, err := h.repo.FindByID(ctx, q.ID)
	if err != nil {
		return nil, apperr.From(err)
	}
	return product, nil
}

// FindBySKUHandler looks a product up by one of its SKU codes
type FindBySKUHandler struct {
	repo domain.ProductRepository
}

// NewFindBySKUHandler creates a new handler
func NewFindBySKUHandler(repo domain.ProductRepository) *FindBySKUHandler {
	return &FindBySKUHandler{repo: repo}
}

// Handle matches the code case-insensitively
func (h *FindBySKUHandler) Handle(ctx context.Context, code string) (*domain.Product, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return nil, apperr.InvalidField("sku_code", "is required")
	}
	product, err := h.repo.FindBySKUCode(ctx, code)
	if err != nil {
		return nil, apperr.From(err)
	}
	return product, nil
}

// FindByBarcodeHandler looks a product up by SKU or product barcode
type FindByBarcodeHandler struct {
	repo domain.ProductRepository
}

// NewFindByBarcodeHandler creates a new handler
func NewFindByBarcodeHandler(repo domain.ProductRepository) *FindByBarcodeHandler {
	return &FindByBarcodeHandler{repo: repo}
}

// Handle executes the barcode lookup
func (h *FindByBarcodeHandler) Handle(ctx context.Context, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, apperr.InvalidField("barcode", "is required")
	}
	product, err := h.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, apperr.From(err)
	}
	return product, nil
}
