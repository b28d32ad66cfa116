package command

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tair/warehouse-erp/internal/inventory/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// TransferStockCommand moves stock of one SKU between warehouses
type TransferStockCommand struct {
	ProductID       uint            `json:"product_id" validate:"required"`
	SKUCode         string          `json:"sku_code" validate:"required,max=64"`
	FromWarehouseID uint            `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   uint            `json:"to_warehouse_id" validate:"required,nefield=FromWarehouseID"`
	Quantity        decimal.Decimal `json:"quantity" validate:"gt=0"`
	Notes           string          `json:"notes,omitempty" validate:"max=500"`
	ActorID         uint            `json:"-"`
}

// Transfer is the pair of movements written by a transfer
type Transfer struct {
	RefID string               `json:"ref_id"`
	Out   domain.StockMovement `json:"out"`
	In    domain.StockMovement `json:"in"`
}

// TransferStockHandler handles transfer stock command
type TransferStockHandler struct {
	ledger *Ledger
}

// NewTransferStockHandler creates a new transfer stock handler
func NewTransferStockHandler(ledger *Ledger) *TransferStockHandler {
	return &TransferStockHandler{ledger: ledger}
}

// Handle writes an OUT at the source and an IN at the destination atomically
func (h *TransferStockHandler) Handle(ctx context.Context, cmd TransferStockCommand) (*Transfer, error) {
	cmd.SKUCode = strings.ToUpper(strings.TrimSpace(cmd.SKUCode))
	if cmd.Quantity.IsZero() {
		return nil, apperr.New(apperr.KindInvalidQuantity, "quantity must not be zero")
	}
	if err := apperr.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	refID := uuid.NewString()
	leg := func(t domain.MovementType, warehouseID uint) MovementInput {
		return MovementInput{
			ProductID:   cmd.ProductID,
			SKUCode:     cmd.SKUCode,
			Quantity:    cmd.Quantity,
			Type:        t,
			WarehouseID: warehouseID,
			RefType:     domain.RefTransfer,
			RefID:       refID,
			Notes:       cmd.Notes,
		}
	}

	movements, err := h.ledger.record(ctx, []MovementInput{
		leg(domain.MovementOut, cmd.FromWarehouseID),
		leg(domain.MovementIn, cmd.ToWarehouseID),
	}, cmd.ActorID, nil)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("ref_id", refID).
		Str("sku_code", cmd.SKUCode).
		Uint("from_warehouse_id", cmd.FromWarehouseID).
		Uint("to_warehouse_id", cmd.ToWarehouseID).
		Msg("Stock transferred")

	return &Transfer{RefID: refID, Out: movements[0], In: movements[1]}, nil
}
