package command

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tair/warehouse-erp/internal/warehouse/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// UpdateWarehouseCommand is a partial update; the code cannot change
type UpdateWarehouseCommand struct {
	ID                 uint             `json:"-" validate:"required"`
	Name               *string          `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Address            *domain.Address  `json:"address,omitempty"`
	Contact            *domain.Contact  `json:"contact,omitempty"`
	IsActive           *bool            `json:"is_active,omitempty"`
	AllowNegativeStock *bool            `json:"allow_negative_stock,omitempty"`
	DefaultTaxRate     *decimal.Decimal `json:"default_tax_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// UpdateWarehouseHandler handles update warehouse command
type UpdateWarehouseHandler struct {
	repo domain.WarehouseRepository
}

// NewUpdateWarehouseHandler creates a new update warehouse handler
func NewUpdateWarehouseHandler(repo domain.WarehouseRepository) *UpdateWarehouseHandler {
	return &UpdateWarehouseHandler{repo: repo}
}

// Handle executes the update warehouse command
func (h *UpdateWarehouseHandler) Handle(ctx context.Context, cmd UpdateWarehouseCommand) (*domain.Warehouse, error) {
	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		cmd.Name = &name
	}
	if err := apperr.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	warehouse, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, apperr.From(err)
	}

	if cmd.Name != nil {
		warehouse.Name = *cmd.Name
	}
	if cmd.Address != nil {
		warehouse.Address = *cmd.Address
		if strings.TrimSpace(warehouse.Address.Country) == "" {
			warehouse.Address.Country = domain.DefaultCountry
		}
	}
	if cmd.Contact != nil {
		warehouse.Contact = *cmd.Contact
	}
	if cmd.IsActive != nil {
		warehouse.IsActive = *cmd.IsActive
	}
	if cmd.AllowNegativeStock != nil {
		warehouse.Policy.AllowNegativeStock = *cmd.AllowNegativeStock
	}
	if cmd.DefaultTaxRate != nil {
		warehouse.Policy.DefaultTaxRate = *cmd.DefaultTaxRate
	}

	if err := h.repo.Update(ctx, warehouse); err != nil {
		return nil, apperr.From(err)
	}

	logger.Info(ctx).Uint("warehouse_id", warehouse.ID).Msg("Warehouse updated")
	return warehouse, nil
}
