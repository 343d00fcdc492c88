package domain

import "errors"

// Domain errors
var (
	// Lookup errors
	ErrReservationNotFound = errors.New("reservation not found")
	ErrEventStallNotFound  = errors.New("event stall not found")
	ErrHallNotFound        = errors.New("hall not found")
	ErrEventNotFound       = errors.New("event not found")

	// Contention errors
	ErrStallConflict = errors.New("stall already has an active reservation")
	ErrQuotaExceeded = errors.New("vendor reservation quota exceeded")

	// State machine errors
	ErrInvalidTransition   = errors.New("invalid reservation status transition")
	ErrNotReservationOwner = errors.New("actor does not own this reservation")
	ErrAlreadyPaid         = errors.New("reservation is already paid")

	// Payment errors
	ErrAmountMismatch    = errors.New("paid amount is below the billed amount")
	ErrPaymentNotSettled = errors.New("payment intent has not succeeded")

	// Check-in errors
	ErrDuplicateCheckIn = errors.New("reservation already checked in")
	ErrNotPaid          = errors.New("reservation is not paid")

	// Pricing errors (soft; never surfaced to callers)
	ErrGeometryParse = errors.New("malformed layout or geometry")

	// Validation errors
	ErrInvalidVendorID      = errors.New("invalid vendor id")
	ErrInvalidReservationID = errors.New("invalid reservation id")
	ErrInvalidEventID       = errors.New("invalid event id")
	ErrInvalidStallID       = errors.New("invalid event stall id")
	ErrEmptyBatch           = errors.New("reservation batch is empty")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrEventStallNotFound) ||
		errors.Is(err, ErrHallNotFound) ||
		errors.Is(err, ErrEventNotFound)
}

// IsConflictError checks if the error is a contention or duplication error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrStallConflict) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrDuplicateCheckIn)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidVendorID) ||
		errors.Is(err, ErrInvalidReservationID) ||
		errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidStallID) ||
		errors.Is(err, ErrEmptyBatch)
}

// IsTransitionError checks if the error is a state machine violation
func IsTransitionError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrNotReservationOwner) ||
		errors.Is(err, ErrNotPaid)
}

// IsPaymentError checks if the error is a payment verification failure
func IsPaymentError(err error) bool {
	return errors.Is(err, ErrAmountMismatch) ||
		errors.Is(err, ErrPaymentNotSettled)
}
