package booking

import "errors"

var (
	ErrWorkshopNotFound    = errors.New("workshop not found")
	ErrWorkshopNotBookable = errors.New("workshop is not open for booking")
	ErrCapacityExceeded    = errors.New("not enough capacity")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidTransition   = errors.New("invalid booking transition")
	ErrCheckoutFailed      = errors.New("checkout session could not be created")
)
