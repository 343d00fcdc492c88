package dto

import "time"

// CheckInRequest represents a gate-staff admission scan. Key accepts either
// the QR token or the reservation id typed in manually.
type CheckInRequest struct {
	Key            string `json:"key" binding:"required"`
	OverrideReason string `json:"override_reason,omitempty"`
}

// CheckInResponse represents the result of an admission
type CheckInResponse struct {
	ReservationID string    `json:"reservation_id"`
	VendorID      string    `json:"vendor_id"`
	EventStallID  string    `json:"event_stall_id"`
	EmployeeID    string    `json:"employee_id"`
	CheckedInAt   time.Time `json:"checked_in_at"`
	Overridden    bool      `json:"overridden,omitempty"`
}

// GateLookupResponse represents a dry-run pass inspection before admitting
type GateLookupResponse struct {
	ReservationID string     `json:"reservation_id"`
	VendorID      string     `json:"vendor_id"`
	EventStallID  string     `json:"event_stall_id"`
	Status        string     `json:"status"`
	Admissible    bool       `json:"admissible"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
}
