package owner

import "errors"

var (
	ErrWorkshopNotFound   = errors.New("workshop not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidTransition  = errors.New("invalid workshop transition")
	ErrUnknownPlan        = errors.New("unknown plan or billing interval")
	ErrCheckoutFailed     = errors.New("failed to start subscription checkout")
	ErrWorkshopValidation = errors.New("invalid workshop definition")
)
