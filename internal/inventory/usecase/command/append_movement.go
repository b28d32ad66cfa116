package command

import (
	"context"

	"github.com/tair/warehouse-erp/internal/inventory/domain"
	"github.com/tair/warehouse-erp/pkg/apperr"
)

// AppendMovementCommand records one stock movement
type AppendMovementCommand struct {
	MovementInput
	ActorID uint `json:"-"`
}

// AppendMovementHandler handles append movement command
type AppendMovementHandler struct {
	ledger *Ledger
}

// NewAppendMovementHandler creates a new append movement handler
func NewAppendMovementHandler(ledger *Ledger) *AppendMovementHandler {
	return &AppendMovementHandler{ledger: ledger}
}

// Handle appends the movement; the cached level reflects it on return
func (h *AppendMovementHandler) Handle(ctx context.Context, cmd AppendMovementCommand) (*domain.StockMovement, error) {
	cmd.normalize()
	if err := apperr.ValidateStruct(cmd.MovementInput); err != nil {
		return nil, err
	}

	movements, err := h.ledger.record(ctx, []MovementInput{cmd.MovementInput}, cmd.ActorID, nil)
	if err != nil {
		return nil, err
	}
	return &movements[0], nil
}

// AppendMovementsCommand records a batch of movements all-or-nothing
type AppendMovementsCommand struct {
	Movements []MovementInput `json:"movements" validate:"required,min=1,max=500,dive"`
	ActorID   uint            `json:"-"`
}

// AppendOption customizes one batch append
type AppendOption func(*appendOptions)

type appendOptions struct {
	hook TxHook
}

// WithTxHook runs hook inside the batch transaction
func WithTxHook(hook TxHook) AppendOption {
	return func(o *appendOptions) { o.hook = hook }
}

// AppendMovementsHandler handles the batch append command
type AppendMovementsHandler struct {
	ledger *Ledger
}

// NewAppendMovementsHandler creates a new batch append handler
func NewAppendMovementsHandler(ledger *Ledger) *AppendMovementsHandler {
	return &AppendMovementsHandler{ledger: ledger}
}

// Handle appends every movement or none of them
func (h *AppendMovementsHandler) Handle(ctx context.Context, cmd AppendMovementsCommand, opts ...AppendOption) ([]domain.StockMovement, error) {
	var o appendOptions
	for _, opt := range opts {
		opt(&o)
	}

	for i := range cmd.Movements {
		cmd.Movements[i].normalize()
	}
	if err := apperr.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	return h.ledger.record(ctx, cmd.Movements, cmd.ActorID, o.hook)
}
