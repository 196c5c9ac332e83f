package domain

import "errors"

// Categorized failures surfaced to callers through the response envelope.
// Everything the order placement path can report maps onto one of these.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrOutOfStock         = errors.New("out of stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayDeclined    = errors.New("payment declined by gateway")
	ErrInternal           = errors.New("internal error")
)
