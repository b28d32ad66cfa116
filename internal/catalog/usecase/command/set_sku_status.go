package command

import (
	"context"

	"github.com/tair/warehouse-erp/internal/catalog/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// SetSKUStatusCommand archives or re-activates a single SKU
type SetSKUStatusCommand struct {
	Code   string           `json:"sku_code" validate:"required"`
	Status domain.SKUStatus `json:"status" validate:"required,oneof=ACTIVE ARCHIVED"`
}

// SetSKUStatusHandler handles the SKU lifecycle command
type SetSKUStatusHandler struct {
	repo domain.ProductRepository
}

// NewSetSKUStatusHandler creates a new handler
func NewSetSKUStatusHandler(repo domain.ProductRepository) *SetSKUStatusHandler {
	return &SetSKUStatusHandler{repo: repo}
}

// Handle executes the command
func (h *SetSKUStatusHandler) Handle(ctx context.Context, cmd SetSKUStatusCommand) error {
	cmd.Code = domain.NormalizeCode(cmd.Code)
	if err := apperr.ValidateStruct(cmd); err != nil {
		return err
	}

	if err := h.repo.SetSKUStatus(ctx, cmd.Code, cmd.Status); err != nil {
		return apperr.From(err)
	}

	logger.Info(ctx).
		Str("sku_code", cmd.Code).
		Str("status", string(cmd.Status)).
		Msg("SKU status changed")
	return nil
}
