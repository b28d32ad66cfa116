package command

import (
	"context"
	"sort"
	"strings"

	"github.com/tair/warehouse-erp/internal/catalog/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
)

// identifiers is the final set of codes and barcodes a product will own
type identifiers struct {
	codes    []string
	barcodes []string
}

func (ids *identifiers) addCode(code string) {
	if code != "" {
		ids.codes = append(ids.codes, code)
	}
}

func (ids *identifiers) addBarcode(barcode *string) {
	if barcode != nil {
		ids.barcodes = append(ids.barcodes, *barcode)
	}
}

// ensureUnique rejects identifiers repeated within the request or owned by
// any other product. excludeProductID is 0 on create.
func ensureUnique(ctx context.Context, repo domain.ProductRepository, excludeProductID uint, ids identifiers) error {
	if dup := firstDuplicate(ids.codes); dup != "" {
		return apperr.Conflict(apperr.CodeDuplicateSkuCode, "sku code %s appears more than once", dup)
	}
	if dup := firstDuplicate(ids.barcodes); dup != "" {
		return apperr.Conflict(apperr.CodeDuplicateBarcode, "barcode %s appears more than once", dup)
	}

	taken, err := repo.ExistingSKUCodes(ctx, ids.codes, excludeProductID)
	if err != nil {
		return apperr.Internal(err)
	}
	if len(taken) > 0 {
		sort.Strings(taken)
		return apperr.Conflict(apperr.CodeDuplicateSkuCode, "sku code already exists: %s", strings.Join(taken, ", "))
	}

	taken, err = repo.ExistingBarcodes(ctx, ids.barcodes, excludeProductID)
	if err != nil {
		return apperr.Internal(err)
	}
	if len(taken) > 0 {
		sort.Strings(taken)
		return apperr.Conflict(apperr.CodeDuplicateBarcode, "barcode already exists: %s", strings.Join(taken, ", "))
	}
	return nil
}

func firstDuplicate(values []string) string {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return v
		}
		seen[v] = struct{}{}
	}
	return ""
}
