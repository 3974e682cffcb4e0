package service

import (
	"errors"
	"fmt"
)

// Errors returned by the order engine. Handlers translate these into the
// response envelope: validation and conflict errors map to 400, not-found to
// 404, forbidden to 403; anything else is logged and surfaced as a generic
// 500.
var (
	ErrEmptyItems       = errors.New("order must have at least one item")
	ErrInvalidOrderType = errors.New("invalid order type")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrTableRequired    = errors.New("table is required for Dine-In orders")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidStatus    = errors.New("invalid order status")
	ErrInvalidPayment   = errors.New("payment mode is required")
	ErrReasonRequired   = errors.New("cancellation reason is required")

	ErrTableNotFound = errors.New("table not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrOrderNotFound = errors.New("order not found")

	ErrTableOccupied     = errors.New("table is already occupied")
	ErrOrderCompleted    = errors.New("order is already completed")
	ErrOrderCancelled    = errors.New("order is already cancelled")
	ErrConvertCancelled  = errors.New("cannot convert a cancelled order to bill")
	ErrOnlyCancelledDel  = errors.New("only cancelled orders can be deleted")
	ErrOrderTerminal     = errors.New("order is in a terminal state")
	ErrStatusChanged     = errors.New("order status changed, please retry")
	ErrIllegalTransition = errors.New("illegal status transition")

	ErrNotAuthorized = errors.New("not authorized for this order")
	ErrInvalidToken  = errors.New("invalid confirmation token")

	ErrTableInactive   = errors.New("table is not active")
	ErrItemUnavailable = errors.New("item is not available")
	ErrPriceMismatch   = errors.New("item price has changed, please refresh and try again")
)

// InsufficientStockError reports a requested quantity exceeding a tracked
// item's stock. Untracked items never produce this error.
type InsufficientStockError struct {
	ItemName  string
	Available int32
	Requested int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ItemName, e.Available, e.Requested)
}

// IsValidation reports whether err is a malformed-input error.
func IsValidation(err error) bool {
	var ise *InsufficientStockError
	return errors.Is(err, ErrEmptyItems) ||
		errors.Is(err, ErrInvalidOrderType) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrTableRequired) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidPayment) ||
		errors.Is(err, ErrReasonRequired) ||
		errors.Is(err, ErrTableInactive) ||
		errors.Is(err, ErrItemUnavailable) ||
		errors.Is(err, ErrPriceMismatch) ||
		errors.As(err, &ise)
}

// IsNotFound reports whether err means a referenced entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// IsConflict reports whether err is a state-machine violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrTableOccupied) ||
		errors.Is(err, ErrOrderCompleted) ||
		errors.Is(err, ErrOrderCancelled) ||
		errors.Is(err, ErrConvertCancelled) ||
		errors.Is(err, ErrOnlyCancelledDel) ||
		errors.Is(err, ErrOrderTerminal) ||
		errors.Is(err, ErrStatusChanged) ||
		errors.Is(err, ErrIllegalTransition)
}

// IsForbidden reports whether err is an authorization failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrInvalidToken)
}
