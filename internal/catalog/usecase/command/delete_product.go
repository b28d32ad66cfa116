package command

import (
	"context"

	"github.com/tair/warehouse-erp/internal/catalog/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/database"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// DeleteProductCommand represents the command to retire a product.
// Rows are kept so movements and orders that reference its SKUs still resolve.
type DeleteProductCommand struct {
	ID uint
}

// DeleteProductHandler handles delete product command
type DeleteProductHandler struct {
	repo domain.ProductRepository
	tx   database.Transactor
}

// NewDeleteProductHandler creates a new delete product handler
func NewDeleteProductHandler(repo domain.ProductRepository, tx database.Transactor) *DeleteProductHandler {
	return &DeleteProductHandler{repo: repo, tx: tx}
}

// Handle executes the delete product command
func (h *DeleteProductHandler) Handle(ctx context.Context, cmd DeleteProductCommand) error {
	if cmd.ID == 0 {
		return apperr.InvalidField("id", "is required")
	}

	err := h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return h.repo.ArchiveProduct(ctx, cmd.ID)
	})
	if err != nil {
		return apperr.From(err)
	}

	logger.Info(ctx).Uint("product_id", cmd.ID).Msg("Product archived")
	return nil
}
