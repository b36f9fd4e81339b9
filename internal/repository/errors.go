package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrCapacityExceeded  = errors.New("not enough capacity")
	ErrAlreadySettled    = errors.New("already settled")
	ErrNoQuote           = errors.New("no quoted price")
	ErrInvalidTransition = errors.New("invalid status transition")
)
