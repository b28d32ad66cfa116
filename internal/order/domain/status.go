package domain

import (
	"github.com/tair/warehouse-erp/pkg/apperr"
)

// next is the single forward step allowed from each open status
var next = map[Status]Status{
	StatusDraft:     StatusConfirmed,
	StatusConfirmed: StatusPicking,
	StatusPicking:   StatusPacked,
	StatusPacked:    StatusShipped,
	StatusShipped:   StatusDelivered,
}

// ValidStatus reports whether s is a known status
func ValidStatus(s Status) bool {
	_, open := next[s]
	return open || s == StatusDelivered || s == StatusCancelled
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ValidateTransition allows one step forward or cancellation of an open order
func ValidateTransition(from, to Status) error {
	if !ValidStatus(to) {
		return apperr.InvalidField("status", "is not a known order status")
	}
	if from.IsTerminal() {
		return apperr.InvalidTransition(string(from), string(to))
	}
	if to == StatusCancelled || next[from] == to {
		return nil
	}
	return apperr.InvalidTransition(string(from), string(to))
}

// RestocksOnCancel reports whether cancelling from s returns the goods to stock.
// Stock leaves the warehouse at confirmation and is gone once shipped.
func RestocksOnCancel(s Status) bool {
	return s == StatusConfirmed || s == StatusPicking || s == StatusPacked
}
