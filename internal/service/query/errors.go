package query

import "errors"

var (
	ErrWorkshopNotFound = errors.New("workshop not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrOrderNotFound    = errors.New("order not found")
)
