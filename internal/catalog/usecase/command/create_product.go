package command

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/tair/warehouse-erp/internal/catalog/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/database"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// SKUInput describes one SKU of a new product
type SKUInput struct {
	Code       string              `json:"sku_code" validate:"max=64"`
	Barcode    *string             `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Attributes domain.Attributes   `json:"attributes,omitempty"`
	Cost       decimal.Decimal     `json:"cost" validate:"gte=0"`
	PriceList  domain.PriceList    `json:"price_list"`
	Vendors    []domain.VendorLink `json:"vendors,omitempty" validate:"dive"`
}

// CreateProductCommand represents the command to create a product with its SKUs
type CreateProductCommand struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=1000"`
	CategoryID  *uint      `json:"category_id,omitempty"`
	Brand       string     `json:"brand" validate:"max=100"`
	Barcode     *string    `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Tags        []string   `json:"tags,omitempty" validate:"dive,max=50"`
	SKUs        []SKUInput `json:"skus" validate:"dive"`
}

func (c *CreateProductCommand) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Brand = strings.TrimSpace(c.Brand)
	c.Barcode = domain.NormalizeBarcode(c.Barcode)
	for i := range c.SKUs {
		c.SKUs[i].Code = domain.NormalizeCode(c.SKUs[i].Code)
		c.SKUs[i].Barcode = domain.NormalizeBarcode(c.SKUs[i].Barcode)
	}
}

// CreateProductHandler handles create product command
type CreateProductHandler struct {
	repo domain.ProductRepository
	tx   database.Transactor
	now  func() time.Time
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(repo domain.ProductRepository, tx database.Transactor) *CreateProductHandler {
	return &CreateProductHandler{repo: repo, tx: tx, now: time.Now}
}

// Handle executes the create product command
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	if len(cmd.SKUs) == 0 {
		return nil, apperr.New(apperr.KindEmptyProduct, "product must have at least one sku")
	}

	cmd.normalize()
	if err := apperr.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	var ids identifiers
	ids.addBarcode(cmd.Barcode)
	for _, in := range cmd.SKUs {
		ids.addCode(in.Code)
		ids.addBarcode(in.Barcode)
	}

	product := &domain.Product{
		Name:        cmd.Name,
		Description: cmd.Description,
		CategoryID:  cmd.CategoryID,
		Brand:       cmd.Brand,
		Barcode:     cmd.Barcode,
		Tags:        datatypes.NewJSONType(nonNil(cmd.Tags)),
		IsActive:    true,
	}

	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := ensureUnique(ctx, h.repo, 0, ids); err != nil {
			return err
		}
		if err := h.repo.Create(ctx, product); err != nil {
			return err
		}

		now := h.now()
		skus := make([]domain.SKU, 0, len(cmd.SKUs))
		generated := 0
		for _, in := range cmd.SKUs {
			sku := newSKU(in)
			if sku.Code == "" {
				sku.Code = domain.GenerateSKUCode(product.ID, now, generated)
				generated++
			}
			skus = append(skus, sku)
		}
		if err := h.repo.AddSKUs(ctx, product.ID, skus); err != nil {
			return err
		}
		product.SKUs = skus
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	logger.Info(ctx).
		Uint("product_id", product.ID).
		Int("sku_count", len(product.SKUs)).
		Msg("Product created")

	return product, nil
}

func newSKU(in SKUInput) domain.SKU {
	attrs := in.Attributes
	if attrs == nil {
		attrs = domain.Attributes{}
	}
	return domain.SKU{
		Code:       in.Code,
		Barcode:    in.Barcode,
		Attributes: datatypes.NewJSONType(attrs),
		Cost:       in.Cost,
		PriceList:  in.PriceList,
		Status:     domain.SKUStatusActive,
		Vendors:    datatypes.NewJSONType(nonNil(in.Vendors)),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
