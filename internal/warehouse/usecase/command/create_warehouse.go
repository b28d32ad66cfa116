package command

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tair/warehouse-erp/internal/warehouse/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/logger"
)

// CreateWarehouseCommand represents the command to create a warehouse
type CreateWarehouseCommand struct {
	Code               string           `json:"code" validate:"required,max=10"`
	Name               string           `json:"name" validate:"required,max=100"`
	Address            domain.Address   `json:"address"`
	Contact            domain.Contact   `json:"contact"`
	AllowNegativeStock bool             `json:"allow_negative_stock"`
	DefaultTaxRate     *decimal.Decimal `json:"default_tax_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// CreateWarehouseHandler handles create warehouse command
type CreateWarehouseHandler struct {
	repo domain.WarehouseRepository
}

// NewCreateWarehouseHandler creates a new create warehouse handler
func NewCreateWarehouseHandler(repo domain.WarehouseRepository) *CreateWarehouseHandler {
	return &CreateWarehouseHandler{repo: repo}
}

// Handle executes the create warehouse command
func (h *CreateWarehouseHandler) Handle(ctx context.Context, cmd CreateWarehouseCommand) (*domain.Warehouse, error) {
	cmd.Code = domain.NormalizeCode(cmd.Code)
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := apperr.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	if _, err := h.repo.FindByCode(ctx, cmd.Code); err == nil {
		return nil, apperr.Conflict(apperr.CodeDuplicateCode, "warehouse code %s already exists", cmd.Code)
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, apperr.From(err)
	}

	rate := domain.DefaultTaxRate
	if cmd.DefaultTaxRate != nil {
		rate = *cmd.DefaultTaxRate
	}
	address := cmd.Address
	if strings.TrimSpace(address.Country) == "" {
		address.Country = domain.DefaultCountry
	}

	warehouse := &domain.Warehouse{
		Code:     cmd.Code,
		Name:     cmd.Name,
		Address:  address,
		Contact:  cmd.Contact,
		IsActive: true,
		Policy: domain.Policy{
			AllowNegativeStock: cmd.AllowNegativeStock,
			DefaultTaxRate:     rate,
		},
	}
	if err := h.repo.Create(ctx, warehouse); err != nil {
		return nil, apperr.From(err)
	}

	logger.Info(ctx).
		Uint("warehouse_id", warehouse.ID).
		Str("code", warehouse.Code).
		Msg("Warehouse created")

	return warehouse, nil
}
