package orders

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrNoQuote           = errors.New("custom order has no quoted price yet")
	ErrInvalidTransition = errors.New("invalid order transition")
	ErrCheckoutFailed    = errors.New("checkout session could not be created")
	ErrNotEligible       = errors.New("order is not eligible for online payment")
)
