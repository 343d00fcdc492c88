package dto

import (
	"time"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
)

// CreateReservationRequest represents a vendor's request to reserve stalls
type CreateReservationRequest struct {
	EventID       string   `json:"event_id" binding:"required"`
	EventStallIDs []string `json:"event_stall_ids" binding:"required,min=1,max=10"`
}

// CreateReservationResponse represents the result of an all-or-nothing batch
type CreateReservationResponse struct {
	Reservations     []*ReservationResponse `json:"reservations"`
	TotalBilledCents int64                  `json:"total_billed_cents"`
	PaymentIntentID  string                 `json:"payment_intent_id,omitempty"`
	ClientSecret     string                 `json:"client_secret,omitempty"`
}

// PaymentIntentResponse carries a fresh payment intent for a pending reservation
type PaymentIntentResponse struct {
	ReservationID   string `json:"reservation_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

// ConfirmPaymentRequest represents a request to verify payment on a reservation
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// RefundRequest represents a refund request or settlement
type RefundRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelResponse represents the result of a cancellation
type CancelResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// ReservationResponse represents a reservation in API responses
type ReservationResponse struct {
	ID              string     `json:"id"`
	VendorID        string     `json:"vendor_id"`
	EventID         string     `json:"event_id"`
	EventStallID    string     `json:"event_stall_id"`
	Status          string     `json:"status"`
	BilledCents     int64      `json:"billed_cents"`
	QRToken         string     `json:"qr_token,omitempty"`
	PaymentIntentID string     `json:"payment_intent_id,omitempty"`
	EmailSent       bool       `json:"email_sent"`
	CreatedAt       time.Time  `json:"created_at"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
}

// VendorSummaryResponse represents a vendor's quota usage for an event
type VendorSummaryResponse struct {
	VendorID       string `json:"vendor_id"`
	EventID        string `json:"event_id"`
	ActiveCount    int    `json:"active_count"`
	MaxAllowed     int    `json:"max_allowed"`
	RemainingSlots int    `json:"remaining_slots"`
}

// FromReservation converts a domain Reservation to a ReservationResponse
func FromReservation(r *domain.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ID:              r.ID,
		VendorID:        r.VendorID,
		EventID:         r.EventID,
		EventStallID:    r.EventStallID,
		Status:          r.Status.String(),
		BilledCents:     r.BilledCents,
		QRToken:         r.QRToken,
		PaymentIntentID: r.PaymentIntentID,
		EmailSent:       r.EmailSent,
		CreatedAt:       r.CreatedAt,
		PaidAt:          r.PaidAt,
		CancelledAt:     r.CancelledAt,
	}
}
