package client

import (
	"context"

	"github.com/shopspring/decimal"

	inventorydomain "github.com/tair/warehouse-erp/internal/inventory/domain"
	inventorycommand "github.com/tair/warehouse-erp/internal/inventory/usecase/command"
)

// StockLine is one SKU quantity moved for an order
type StockLine struct {
	ProductID uint
	SKUCode   string
	Quantity  decimal.Decimal
}

// StockRequest moves every line of an order in one direction
type StockRequest struct {
	WarehouseID uint
	Type        inventorydomain.MovementType
	RefType     inventorydomain.RefType
	RefID       string
	Notes       string
	ActorID     uint
	Lines       []StockLine
}

// StockLedger is the order engine's only way to change stock
type StockLedger interface {
	// Commit appends one movement per line and runs inTx in the same
	// transaction; the movements and inTx's writes commit or fail together.
	Commit(ctx context.Context, req StockRequest, inTx func(ctx context.Context) error) error
}

// InventoryLedgerClient records order movements through the stock ledger
type InventoryLedgerClient struct {
	batch *inventorycommand.AppendMovementsHandler
}

// NewInventoryLedgerClient creates a new ledger client
func NewInventoryLedgerClient(batch *inventorycommand.AppendMovementsHandler) *InventoryLedgerClient {
	return &InventoryLedgerClient{batch: batch}
}

// Commit appends the movements of req
func (c *InventoryLedgerClient) Commit(ctx context.Context, req StockRequest, inTx func(ctx context.Context) error) error {
	inputs := make([]inventorycommand.MovementInput, len(req.Lines))
	for i, l := range req.Lines {
		inputs[i] = inventorycommand.MovementInput{
			ProductID:   l.ProductID,
			SKUCode:     l.SKUCode,
			Quantity:    l.Quantity,
			Type:        req.Type,
			WarehouseID: req.WarehouseID,
			RefType:     req.RefType,
			RefID:       req.RefID,
			Notes:       req.Notes,
		}
	}

	_, err := c.batch.Handle(ctx, inventorycommand.AppendMovementsCommand{
		Movements: inputs,
		ActorID:   req.ActorID,
	}, inventorycommand.WithTxHook(func(ctx context.Context, _ []inventorydomain.StockMovement) error {
		return inTx(ctx)
	}))
	return err
}
