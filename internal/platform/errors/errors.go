package apperrors

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyResolved    = errors.New("session already resolved")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrDeliveryFailed     = errors.New("notification delivery failed")
)
