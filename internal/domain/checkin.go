package domain

import (
	"time"

	"github.com/google/uuid"
)

// CheckInLog is one row per successful gate admission. A unique constraint on
// ReservationID enforces at-most-once check-in; the row is immutable after
// creation.
type CheckInLog struct {
	ID             string    `json:"id"`
	ReservationID  string    `json:"reservation_id"`
	EmployeeID     string    `json:"employee_id"`
	CheckedInAt    time.Time `json:"checked_in_at"`
	OverrideReason string    `json:"override_reason,omitempty"`
}

// NewCheckInLog creates an admission record for a reservation.
func NewCheckInLog(reservationID, employeeID, overrideReason string) *CheckInLog {
	return &CheckInLog{
		ID:             uuid.New().String(),
		ReservationID:  reservationID,
		EmployeeID:     employeeID,
		CheckedInAt:    time.Now(),
		OverrideReason: overrideReason,
	}
}
