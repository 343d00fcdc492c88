package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationPendingPayment ReservationStatus = "PENDING_PAYMENT"
	ReservationPaid           ReservationStatus = "PAID"
	ReservationPendingRefund  ReservationStatus = "PENDING_REFUND"
	ReservationCancelled      ReservationStatus = "CANCELLED"
	ReservationExpired        ReservationStatus = "EXPIRED"
)

// IsValid checks if the status is a valid ReservationStatus
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationPendingPayment, ReservationPaid, ReservationPendingRefund,
		ReservationCancelled, ReservationExpired:
		return true
	}
	return false
}

// String returns the string representation of ReservationStatus
func (s ReservationStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status no longer occupies a stall.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationCancelled || s == ReservationExpired
}

// NonTerminalStatuses lists every status that occupies a stall and counts
// against the vendor quota. PENDING_REFUND is counted: the stall is not
// released until an operator settles the refund.
func NonTerminalStatuses() []ReservationStatus {
	return []ReservationStatus{ReservationPendingPayment, ReservationPaid, ReservationPendingRefund}
}

// Reservation is a vendor's claim on one EventStall. The billed amount is the
// stall's final price frozen at creation time; later repricing never touches
// an existing reservation.
type Reservation struct {
	ID               string            `json:"id"`
	VendorID         string            `json:"vendor_id"`
	EventID          string            `json:"event_id"`
	EventStallID     string            `json:"event_stall_id"`
	Status           ReservationStatus `json:"status"`
	BilledCents      int64             `json:"billed_cents"`
	QRToken          string            `json:"qr_token"`
	PaymentIntentID  string            `json:"payment_intent_id,omitempty"`
	RefundReason     string            `json:"refund_reason,omitempty"`
	EmailSent        bool              `json:"email_sent"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	CancelledAt      *time.Time        `json:"cancelled_at,omitempty"`
	RefundRequestedAt *time.Time       `json:"refund_requested_at,omitempty"`
}

// NewReservation creates a PENDING_PAYMENT reservation with a fresh
// non-guessable QR token and the given frozen price.
func NewReservation(vendorID, eventID, eventStallID string, billedCents int64) *Reservation {
	now := time.Now()
	return &Reservation{
		ID:           uuid.New().String(),
		VendorID:     vendorID,
		EventID:      eventID,
		EventStallID: eventStallID,
		Status:       ReservationPendingPayment,
		BilledCents:  billedCents,
		QRToken:      uuid.New().String(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// BelongsTo checks if the reservation is owned by the given vendor
func (r *Reservation) BelongsTo(vendorID string) bool {
	return r.VendorID == vendorID
}

// IsActive reports whether the reservation still occupies its stall.
func (r *Reservation) IsActive() bool {
	return !r.Status.IsTerminal()
}

// ConfirmPayment transitions PENDING_PAYMENT -> PAID.
func (r *Reservation) ConfirmPayment(paymentIntentID string) error {
	if r.Status != ReservationPendingPayment {
		return ErrInvalidTransition
	}
	now := time.Now()
	r.Status = ReservationPaid
	r.PaymentIntentID = paymentIntentID
	r.PaidAt = &now
	r.UpdatedAt = now
	return nil
}

// Cancel transitions to CANCELLED. The owning vendor may only cancel from
// PENDING_PAYMENT; an administrative actor may cancel from any non-terminal
// state.
func (r *Reservation) Cancel(asAdmin bool) error {
	if r.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	if !asAdmin && r.Status != ReservationPendingPayment {
		return ErrInvalidTransition
	}
	now := time.Now()
	r.Status = ReservationCancelled
	r.CancelledAt = &now
	r.UpdatedAt = now
	return nil
}

// RequestRefund transitions PAID -> PENDING_REFUND. The stall stays occupied;
// settlement is a manual operator action.
func (r *Reservation) RequestRefund(reason string) error {
	if r.Status != ReservationPaid {
		return ErrInvalidTransition
	}
	now := time.Now()
	r.Status = ReservationPendingRefund
	r.RefundReason = reason
	r.RefundRequestedAt = &now
	r.UpdatedAt = now
	return nil
}

// SettleRefund transitions PAID or PENDING_REFUND -> CANCELLED (admin-only
// operation; the caller releases the stall).
func (r *Reservation) SettleRefund(reason string) error {
	if r.Status != ReservationPaid && r.Status != ReservationPendingRefund {
		return ErrInvalidTransition
	}
	now := time.Now()
	r.Status = ReservationCancelled
	if reason != "" {
		r.RefundReason = reason
	}
	r.CancelledAt = &now
	r.UpdatedAt = now
	return nil
}

// Expire transitions PENDING_PAYMENT -> EXPIRED (system-triggered).
func (r *Reservation) Expire() error {
	if r.Status != ReservationPendingPayment {
		return ErrInvalidTransition
	}
	r.Status = ReservationExpired
	r.UpdatedAt = time.Now()
	return nil
}
