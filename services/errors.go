package services

import "errors"

// Failure taxonomy for the booking core. Controllers translate these into
// HTTP statuses with errors.Is; everything else is treated as an internal
// fault and surfaced generically.
var (
	ErrValidation       = errors.New("missing or malformed input")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrResourceConflict = errors.New("resource is already reserved during the selected time range")
	ErrPaymentFailed    = errors.New("payment failed")
	ErrNotFound         = errors.New("record not found")
	ErrForbidden        = errors.New("you are not authorized to access this record")
	ErrInvalidState     = errors.New("bookings for past dates cannot be modified")
)
