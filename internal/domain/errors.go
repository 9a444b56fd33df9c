package domain

import "errors"

// Error kinds returned by the core. All of them are recoverable by the caller;
// the HTTP layer maps each kind to a status code.
var (
	ErrInvalidQuantity        = errors.New("quantity must be positive")
	ErrProductUnavailable     = errors.New("product is unavailable")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidDiscount        = errors.New("invalid discount")
	ErrEmptyCart              = errors.New("cart is empty, nothing to checkout")
	ErrStockConflict          = errors.New("stock conflict")
	ErrPaymentDeclined        = errors.New("payment declined")
	ErrIllegalStateTransition = errors.New("illegal order status transition")

	ErrCartNotFound    = errors.New("cart not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
)
