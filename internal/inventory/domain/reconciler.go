package domain

import (
	"github.com/shopspring/decimal"

	"github.com/tair/warehouse-erp/pkg/apperr"
)

// ValidMovementType reports whether t is a known movement type
func ValidMovementType(t MovementType) bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// ValidRefType reports whether t is a known reference type
func ValidRefType(t RefType) bool {
	switch t {
	case RefPurchase, RefSale, RefTransfer, RefAdjustment, RefReturn:
		return true
	}
	return false
}

// SignedDelta derives the change a movement applies to the on-hand quantity.
// IN adds qty, OUT removes it and ADJ applies qty with its own sign.
func SignedDelta(t MovementType, qty decimal.Decimal) (decimal.Decimal, error) {
	if qty.IsZero() {
		return decimal.Zero, apperr.New(apperr.KindInvalidQuantity, "quantity must not be zero")
	}
	switch t {
	case MovementIn:
		if qty.IsNegative() {
			return decimal.Zero, apperr.InvalidField("quantity", "must be positive for IN movements")
		}
		return qty, nil
	case MovementOut:
		if qty.IsNegative() {
			return decimal.Zero, apperr.InvalidField("quantity", "must be positive for OUT movements")
		}
		return qty.Neg(), nil
	case MovementAdjustment:
		return qty, nil
	}
	return decimal.Zero, apperr.InvalidField("type", "must be one of IN OUT ADJ")
}

// Reconcile applies delta to current. The result may only go below zero
// when the warehouse allows negative stock.
func Reconcile(current, delta decimal.Decimal, allowNegative bool) (decimal.Decimal, error) {
	next := current.Add(delta)
	if next.IsNegative() && !allowNegative {
		return current, apperr.New(apperr.KindInsufficientStock,
			"insufficient stock: on hand %s, requested change %s", current.String(), delta.String())
	}
	return next, nil
}
