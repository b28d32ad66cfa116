package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	inventoryclient "github.com/tair/warehouse-erp/internal/inventory/client"
	"github.com/tair/warehouse-erp/internal/order/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
)

// LineInput is one requested order line. UnitPrice defaults to the SKU's
// retail price.
type LineInput struct {
	ProductID       uint             `json:"product_id" validate:"required"`
	SKUCode         string           `json:"sku_code" validate:"required,max=64"`
	Quantity        decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	DiscountPercent decimal.Decimal  `json:"discount_percent" validate:"gte=0,lte=100"`
}

func normalizeLines(lines []LineInput) {
	for i := range lines {
		lines[i].SKUCode = strings.ToUpper(strings.TrimSpace(lines[i].SKUCode))
	}
}

// orderLockKey serializes every mutation of one order
func orderLockKey(id uint) string {
	return fmt.Sprintf("order:%d", id)
}

// buildLines resolves every line against the catalog. Only active SKUs
// can be sold.
func buildLines(ctx context.Context, catalog inventoryclient.CatalogClient, inputs []LineInput) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, len(inputs))
	for i, in := range inputs {
		sku, err := catalog.ResolveSKU(ctx, in.ProductID, in.SKUCode)
		if err != nil {
			return nil, apperr.From(err)
		}
		if !sku.Active {
			return nil, apperr.InvalidField(fmt.Sprintf("lines[%d].sku_code", i), "is archived")
		}

		price := sku.RetailPrice
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}
		lines[i] = domain.OrderLine{
			LineNo:          i + 1,
			ProductID:       sku.ProductID,
			SKUCode:         sku.Code,
			Description:     sku.ProductName,
			Quantity:        in.Quantity,
			UnitPrice:       price,
			DiscountPercent: in.DiscountPercent,
		}
	}
	return lines, nil
}
