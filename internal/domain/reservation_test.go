package domain

import (
	"errors"
	"testing"
)

func TestNewReservation(t *testing.T) {
	res := NewReservation("vendor-001", "event-001", "stall-001", 500000)

	if res.Status != ReservationPendingPayment {
		t.Errorf("Status = %s, want PENDING_PAYMENT", res.Status)
	}
	if res.BilledCents != 500000 {
		t.Errorf("BilledCents = %d, want 500000", res.BilledCents)
	}
	if res.ID == "" {
		t.Error("ID is empty")
	}
	if res.QRToken == "" {
		t.Error("QRToken is empty")
	}
	if res.QRToken == res.ID {
		t.Error("QRToken must differ from the reservation id")
	}
}

func TestReservation_ConfirmPayment(t *testing.T) {
	res := NewReservation("vendor-001", "event-001", "stall-001", 500000)

	if err := res.ConfirmPayment("pi_123"); err != nil {
		t.Fatalf("ConfirmPayment() error = %v", err)
	}
	if res.Status != ReservationPaid {
		t.Errorf("Status = %s, want PAID", res.Status)
	}
	if res.PaymentIntentID != "pi_123" {
		t.Errorf("PaymentIntentID = %s, want pi_123", res.PaymentIntentID)
	}
	if res.PaidAt == nil {
		t.Error("PaidAt not set")
	}

	// Second confirm is an invalid transition at the entity level; the
	// repository maps it to an idempotent no-op.
	if err := res.ConfirmPayment("pi_456"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second ConfirmPayment() error = %v, want ErrInvalidTransition", err)
	}
	if res.PaymentIntentID != "pi_123" {
		t.Errorf("PaymentIntentID overwritten to %s", res.PaymentIntentID)
	}
}

func TestReservation_Cancel(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*Reservation)
		asAdmin bool
		wantErr error
	}{
		{
			name:    "vendor cancels pending payment",
			prepare: func(r *Reservation) {},
			asAdmin: false,
		},
		{
			name: "vendor cannot cancel paid",
			prepare: func(r *Reservation) {
				_ = r.ConfirmPayment("pi_123")
			},
			asAdmin: false,
			wantErr: ErrInvalidTransition,
		},
		{
			name: "admin cancels paid",
			prepare: func(r *Reservation) {
				_ = r.ConfirmPayment("pi_123")
			},
			asAdmin: true,
		},
		{
			name: "admin cancels pending refund",
			prepare: func(r *Reservation) {
				_ = r.ConfirmPayment("pi_123")
				_ = r.RequestRefund("moved cities")
			},
			asAdmin: true,
		},
		{
			name: "nobody cancels a terminal reservation",
			prepare: func(r *Reservation) {
				_ = r.Cancel(false)
			},
			asAdmin: true,
			wantErr: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewReservation("vendor-001", "event-001", "stall-001", 500000)
			tt.prepare(res)

			err := res.Cancel(tt.asAdmin)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Cancel() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Cancel() error = %v", err)
			}
			if res.Status != ReservationCancelled {
				t.Errorf("Status = %s, want CANCELLED", res.Status)
			}
			if res.CancelledAt == nil {
				t.Error("CancelledAt not set")
			}
		})
	}
}

func TestReservation_RefundFlow(t *testing.T) {
	res := NewReservation("vendor-001", "event-001", "stall-001", 500000)

	// Refund requires PAID.
	if err := res.RequestRefund("reason"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("RequestRefund() on PENDING_PAYMENT error = %v, want ErrInvalidTransition", err)
	}

	_ = res.ConfirmPayment("pi_123")
	if err := res.RequestRefund("moved cities"); err != nil {
		t.Fatalf("RequestRefund() error = %v", err)
	}
	if res.Status != ReservationPendingRefund {
		t.Errorf("Status = %s, want PENDING_REFUND", res.Status)
	}
	if res.RefundReason != "moved cities" {
		t.Errorf("RefundReason = %q", res.RefundReason)
	}

	// PENDING_REFUND still occupies the stall.
	if !res.IsActive() {
		t.Error("IsActive() = false for PENDING_REFUND, want true")
	}

	if err := res.SettleRefund(""); err != nil {
		t.Fatalf("SettleRefund() error = %v", err)
	}
	if res.Status != ReservationCancelled {
		t.Errorf("Status = %s, want CANCELLED", res.Status)
	}
	if res.RefundReason != "moved cities" {
		t.Errorf("RefundReason cleared: %q", res.RefundReason)
	}
}

func TestReservation_SettleRefundDirectFromPaid(t *testing.T) {
	res := NewReservation("vendor-001", "event-001", "stall-001", 500000)
	_ = res.ConfirmPayment("pi_123")

	// An operator may settle without the vendor having requested first.
	if err := res.SettleRefund("event cancelled"); err != nil {
		t.Fatalf("SettleRefund() error = %v", err)
	}
	if res.Status != ReservationCancelled {
		t.Errorf("Status = %s, want CANCELLED", res.Status)
	}
	if res.RefundReason != "event cancelled" {
		t.Errorf("RefundReason = %q", res.RefundReason)
	}
}

func TestReservation_Expire(t *testing.T) {
	res := NewReservation("vendor-001", "event-001", "stall-001", 500000)

	if err := res.Expire(); err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if res.Status != ReservationExpired {
		t.Errorf("Status = %s, want EXPIRED", res.Status)
	}

	// Paid reservations never expire.
	paid := NewReservation("vendor-001", "event-001", "stall-002", 500000)
	_ = paid.ConfirmPayment("pi_123")
	if err := paid.Expire(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expire() on PAID error = %v, want ErrInvalidTransition", err)
	}
}

func TestReservationStatus_IsTerminal(t *testing.T) {
	terminal := map[ReservationStatus]bool{
		ReservationPendingPayment: false,
		ReservationPaid:           false,
		ReservationPendingRefund:  false,
		ReservationCancelled:      true,
		ReservationExpired:        true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestNonTerminalStatuses(t *testing.T) {
	statuses := NonTerminalStatuses()
	if len(statuses) != 3 {
		t.Fatalf("NonTerminalStatuses() = %d entries, want 3", len(statuses))
	}
	for _, s := range statuses {
		if s.IsTerminal() {
			t.Errorf("%s listed as non-terminal but IsTerminal() = true", s)
		}
	}
}
