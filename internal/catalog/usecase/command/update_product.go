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

// SKUPatch changes one SKU. A code the product does not own yet, or an
// empty code, adds a new SKU; codes of existing SKUs never change.
type SKUPatch struct {
	Code       string               `json:"sku_code" validate:"max=64"`
	Barcode    *string              `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Attributes *domain.Attributes   `json:"attributes,omitempty"`
	Cost       *decimal.Decimal     `json:"cost,omitempty" validate:"omitempty,gte=0"`
	PriceList  *domain.PriceList    `json:"price_list,omitempty"`
	Vendors    *[]domain.VendorLink `json:"vendors,omitempty" validate:"omitempty,dive"`
}

// UpdateProductCommand represents a partial product update
type UpdateProductCommand struct {
	ID          uint       `json:"-" validate:"required"`
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	CategoryID  *uint      `json:"category_id,omitempty"`
	Brand       *string    `json:"brand,omitempty" validate:"omitempty,max=100"`
	Barcode     *string    `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Tags        []string   `json:"tags,omitempty" validate:"dive,max=50"`
	IsActive    *bool      `json:"is_active,omitempty"`
	SKUs        []SKUPatch `json:"skus,omitempty" validate:"dive"`
}

// UpdateProductHandler handles update product command
type UpdateProductHandler struct {
	repo domain.ProductRepository
	tx   database.Transactor
	now  func() time.Time
}

// NewUpdateProductHandler creates a new update product handler
func NewUpdateProductHandler(repo domain.ProductRepository, tx database.Transactor) *UpdateProductHandler {
	return &UpdateProductHandler{repo: repo, tx: tx, now: time.Now}
}

// Handle executes the update product command
func (h *UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		cmd.Name = &name
	}
	for i := range cmd.SKUs {
		cmd.SKUs[i].Code = domain.NormalizeCode(cmd.SKUs[i].Code)
	}
	if err := apperr.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	var product *domain.Product
	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		product, err = h.repo.FindByID(ctx, cmd.ID)
		if err != nil {
			return err
		}

		applyProductFields(product, cmd)
		changed, added := applySKUPatches(product, cmd.SKUs)

		var ids identifiers
		ids.addBarcode(product.Barcode)
		for _, sku := range product.SKUs {
			ids.addCode(sku.Code)
			ids.addBarcode(sku.Barcode)
		}
		for _, sku := range added {
			ids.addCode(sku.Code)
			ids.addBarcode(sku.Barcode)
		}
		if err := ensureUnique(ctx, h.repo, product.ID, ids); err != nil {
			return err
		}

		if err := h.repo.Update(ctx, product); err != nil {
			return err
		}
		for _, sku := range changed {
			if err := h.repo.UpdateSKU(ctx, sku); err != nil {
				return err
			}
		}

		now := h.now()
		generated := 0
		for i := range added {
			if added[i].Code == "" {
				added[i].Code = domain.GenerateSKUCode(product.ID, now, generated)
				generated++
			}
		}
		if err := h.repo.AddSKUs(ctx, product.ID, added); err != nil {
			return err
		}
		product.SKUs = append(product.SKUs, added...)
		return nil
	})
	if err != nil {
		return nil, apperr.From(err)
	}

	logger.Info(ctx).
		Uint("product_id", product.ID).
		Int("sku_count", len(product.SKUs)).
		Msg("Product updated")

	return product, nil
}

func applyProductFields(p *domain.Product, cmd UpdateProductCommand) {
	if cmd.Name != nil {
		p.Name = *cmd.Name
	}
	if cmd.Description != nil {
		p.Description = *cmd.Description
	}
	if cmd.CategoryID != nil {
		p.CategoryID = cmd.CategoryID
	}
	if cmd.Brand != nil {
		p.Brand = strings.TrimSpace(*cmd.Brand)
	}
	if cmd.Barcode != nil {
		p.Barcode = domain.NormalizeBarcode(cmd.Barcode)
	}
	if cmd.Tags != nil {
		p.Tags = datatypes.NewJSONType(cmd.Tags)
	}
	if cmd.IsActive != nil {
		p.IsActive = *cmd.IsActive
	}
}

// applySKUPatches mutates owned SKUs in place and returns them with the new ones
func applySKUPatches(p *domain.Product, patches []SKUPatch) (changed []*domain.SKU, added []domain.SKU) {
	for _, patch := range patches {
		if patch.Code != "" {
			if sku, ok := p.FindSKU(patch.Code); ok {
				patchSKU(sku, patch)
				changed = append(changed, sku)
				continue
			}
		}

		in := SKUInput{Code: patch.Code, Barcode: domain.NormalizeBarcode(patch.Barcode)}
		if patch.Attributes != nil {
			in.Attributes = *patch.Attributes
		}
		if patch.Cost != nil {
			in.Cost = *patch.Cost
		}
		if patch.PriceList != nil {
			in.PriceList = *patch.PriceList
		}
		if patch.Vendors != nil {
			in.Vendors = *patch.Vendors
		}
		added = append(added, newSKU(in))
	}
	return changed, added
}

func patchSKU(sku *domain.SKU, patch SKUPatch) {
	if patch.Barcode != nil {
		sku.Barcode = domain.NormalizeBarcode(patch.Barcode)
	}
	if patch.Attributes != nil {
		sku.Attributes = datatypes.NewJSONType(*patch.Attributes)
	}
	if patch.Cost != nil {
		sku.Cost = *patch.Cost
	}
	if patch.PriceList != nil {
		sku.PriceList = *patch.PriceList
	}
	if patch.Vendors != nil {
		sku.Vendors = datatypes.NewJSONType(nonNil(*patch.Vendors))
	}
}
