package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/dto"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
)

// MockCheckInRepository is a func-field mock for the check-in repository
type MockCheckInRepository struct {
	CreateFunc           func(ctx context.Context, log *domain.CheckInLog) error
	GetByReservationFunc func(ctx context.Context, reservationID string) (*domain.CheckInLog, error)
}

func (m *MockCheckInRepository) Create(ctx context.Context, log *domain.CheckInLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	return nil
}

func (m *MockCheckInRepository) GetByReservation(ctx context.Context, reservationID string) (*domain.CheckInLog, error) {
	if m.GetByReservationFunc != nil {
		return m.GetByReservationFunc(ctx, reservationID)
	}
	return nil, fmt.Errorf("%w: no check-in log", domain.ErrReservationNotFound)
}

// seedReservation drives a reservation into the given status through the
// reservation service and returns its QR token.
func seedReservation(t *testing.T, repo *repository.MemoryReservationRepository, status domain.ReservationStatus) *dto.ReservationResponse {
	t.Helper()

	repo.SeedStall("stall-gate", "event-001", 500000)
	svc := NewReservationService(repo, newTestGateway(), &ReservationServiceConfig{
		Quota:    3,
		HoldTTL:  15 * time.Minute,
		Currency: "usd",
	})
	ctx := context.Background()

	created, err := svc.CreateReservations(ctx, "vendor-001", &dto.CreateReservationRequest{
		EventID:       "event-001",
		EventStallIDs: []string{"stall-gate"},
	})
	if err != nil {
		t.Fatalf("seed create failed: %v", err)
	}
	res := created.Reservations[0]

	if status == domain.ReservationPendingPayment {
		return res
	}

	paid, err := svc.ConfirmPayment(ctx, res.ID, "vendor-001", &dto.ConfirmPaymentRequest{
		PaymentIntentID: created.PaymentIntentID,
	})
	if err != nil {
		t.Fatalf("seed confirm failed: %v", err)
	}
	if status == domain.ReservationPaid {
		return paid
	}

	refunding, err := svc.RequestRefund(ctx, res.ID, "vendor-001", &dto.RefundRequest{Reason: "moved cities"})
	if err != nil {
		t.Fatalf("seed refund request failed: %v", err)
	}
	return refunding
}

func TestCheckInService_CheckIn(t *testing.T) {
	t.Run("paid reservation admits", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		res := seedReservation(t, repo, domain.ReservationPaid)
		svc := NewCheckInService(repo, &MockCheckInRepository{}, repo.Outbox())

		resp, err := svc.CheckIn(context.Background(), "emp-001", &dto.CheckInRequest{Key: res.QRToken})
		if err != nil {
			t.Fatalf("CheckIn() error = %v", err)
		}
		if resp.ReservationID != res.ID {
			t.Errorf("ReservationID = %s, want %s", resp.ReservationID, res.ID)
		}
		if resp.VendorID != "vendor-001" {
			t.Errorf("VendorID = %s, want vendor-001", resp.VendorID)
		}
		if resp.Overridden {
			t.Error("Overridden = true, want false")
		}
	})

	t.Run("admits by reservation id as well as token", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		res := seedReservation(t, repo, domain.ReservationPaid)
		svc := NewCheckInService(repo, &MockCheckInRepository{}, repo.Outbox())

		if _, err := svc.CheckIn(context.Background(), "emp-001", &dto.CheckInRequest{Key: res.ID}); err != nil {
			t.Errorf("CheckIn() by id error = %v", err)
		}
	})

	t.Run("admission notifies the vendor", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		res := seedReservation(t, repo, domain.ReservationPaid)
		svc := NewCheckInService(repo, &MockCheckInRepository{}, repo.Outbox())

		before := countIntents(repo, domain.IntentNotification)
		if _, err := svc.CheckIn(context.Background(), "emp-001", &dto.CheckInRequest{Key: res.QRToken}); err != nil {
			t.Fatalf("CheckIn() error = %v", err)
		}
		if got := countIntents(repo, domain.IntentNotification); got != before+1 {
			t.Errorf("notification intents = %d, want %d", got, before+1)
		}
	})

	t.Run("unpaid reservation rejected", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		res := seedReservation(t, repo, domain.ReservationPendingPayment)
		svc := NewCheckInService(repo, &MockCheckInRepository{}, repo.Outbox())

		_, err := svc.CheckIn(context.Background(), "emp-001", &dto.CheckInRequest{Key: res.QRToken})
		if !errors.Is(err, domain.ErrNotPaid) {
			t.Errorf("CheckIn() error = %v, want ErrNotPaid", err)
		}
	})

	t.Run("pending payment admits with override", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		res := seedReservation(t, repo, domain.ReservationPendingPayment)
		svc := NewCheckInService(repo, &MockCheckInRepository{}, repo.Outbox())

		resp, err := svc.CheckIn(context.Background(), "emp-001", &dto.CheckInRequest{
			Key:            res.QRToken,
			OverrideReason: "payment terminal down, collect at the office",
		})
		if err != nil {
			t.Fatalf("CheckIn() with override error = %v", err)
		}
		if !resp.Overridden {
			t.Error("Overridden = false, want true")
		}
	})

	t.Run("pending refund needs override", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		res := seedReservation(t, repo, domain.ReservationPendingRefund)
		svc := NewCheckInService(repo, &MockCheckInRepository{}, repo.Outbox())
		ctx := context.Background()

		_, err := svc.CheckIn(ctx, "emp-001", &dto.CheckInRequest{Key: res.QRToken})
		if !errors.Is(err, domain.ErrNotPaid) {
			t.Fatalf("CheckIn() without override error = %v, want ErrNotPaid", err)
		}

		resp, err := svc.CheckIn(ctx, "emp-001", &dto.CheckInRequest{
			Key:            res.QRToken,
			OverrideReason: "supervisor waved through, refund not yet settled",
		})
		if err != nil {
			t.Fatalf("CheckIn() with override error = %v", err)
		}
		if !resp.Overridden {
			t.Error("Overridden = false, want true")
		}
	})

	t.Run("duplicate admission rejected", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		res := seedReservation(t, repo, domain.ReservationPaid)
		svc := NewCheckInService(repo, &MockCheckInRepository{
			CreateFunc: func(ctx context.Context, log *domain.CheckInLog) error {
				return domain.ErrDuplicateCheckIn
			},
		}, repo.Outbox())

		_, err := svc.CheckIn(context.Background(), "emp-001", &dto.CheckInRequest{Key: res.QRToken})
		if !errors.Is(err, domain.ErrDuplicateCheckIn) {
			t.Errorf("CheckIn() error = %v, want ErrDuplicateCheckIn", err)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		svc := NewCheckInService(repo, &MockCheckInRepository{}, repo.Outbox())

		_, err := svc.CheckIn(context.Background(), "emp-001", &dto.CheckInRequest{Key: "no-such-pass"})
		if !errors.Is(err, domain.ErrReservationNotFound) {
			t.Errorf("CheckIn() error = %v, want ErrReservationNotFound", err)
		}
	})

	t.Run("missing employee id", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		svc := NewCheckInService(repo, &MockCheckInRepository{}, repo.Outbox())

		_, err := svc.CheckIn(context.Background(), "", &dto.CheckInRequest{Key: "anything"})
		if err == nil {
			t.Error("CheckIn() error = nil, want error")
		}
	})
}

func TestCheckInService_Lookup(t *testing.T) {
	t.Run("paid and not yet admitted", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		res := seedReservation(t, repo, domain.ReservationPaid)
		svc := NewCheckInService(repo, &MockCheckInRepository{}, repo.Outbox())

		resp, err := svc.Lookup(context.Background(), res.QRToken)
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if !resp.Admissible {
			t.Error("Admissible = false, want true")
		}
		if resp.CheckedInAt != nil {
			t.Error("CheckedInAt set before admission")
		}
	})

	t.Run("already admitted", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		res := seedReservation(t, repo, domain.ReservationPaid)
		admittedAt := time.Now().Add(-time.Hour)
		svc := NewCheckInService(repo, &MockCheckInRepository{
			GetByReservationFunc: func(ctx context.Context, reservationID string) (*domain.CheckInLog, error) {
				return &domain.CheckInLog{
					ReservationID: reservationID,
					EmployeeID:    "emp-001",
					CheckedInAt:   admittedAt,
				}, nil
			},
		}, repo.Outbox())

		resp, err := svc.Lookup(context.Background(), res.QRToken)
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if resp.Admissible {
			t.Error("Admissible = true after admission, want false")
		}
		if resp.CheckedInAt == nil || !resp.CheckedInAt.Equal(admittedAt) {
			t.Errorf("CheckedInAt = %v, want %v", resp.CheckedInAt, admittedAt)
		}
	})

	t.Run("unpaid not admissible", func(t *testing.T) {
		repo := repository.NewMemoryReservationRepository()
		res := seedReservation(t, repo, domain.ReservationPendingPayment)
		svc := NewCheckInService(repo, &MockCheckInRepository{}, repo.Outbox())

		resp, err := svc.Lookup(context.Background(), res.QRToken)
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if resp.Admissible {
			t.Error("Admissible = true for PENDING_PAYMENT, want false")
		}
		if resp.Status != domain.ReservationPendingPayment.String() {
			t.Errorf("Status = %s, want PENDING_PAYMENT", resp.Status)
		}
	})
}
