package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/dto"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/metrics"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/logger"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/telemetry"
)

// CheckInService defines the interface for gate admissions
type CheckInService interface {
	// CheckIn admits a vendor by QR token or reservation id. Only PAID
	// reservations are admissible on their own; a supervisor override
	// reason extends admission to PENDING_PAYMENT and PENDING_REFUND
	// holders whose stall is still theirs.
	CheckIn(ctx context.Context, employeeID string, req *dto.CheckInRequest) (*dto.CheckInResponse, error)

	// Lookup inspects a pass without admitting, for gate-staff dry runs
	Lookup(ctx context.Context, key string) (*dto.GateLookupResponse, error)
}

// checkInService implements CheckInService
type checkInService struct {
	reservationRepo repository.ReservationRepository
	checkInRepo     repository.CheckInRepository
	outboxRepo      repository.OutboxRepository
}

// NewCheckInService creates a new check-in service
func NewCheckInService(
	reservationRepo repository.ReservationRepository,
	checkInRepo repository.CheckInRepository,
	outboxRepo repository.OutboxRepository,
) CheckInService {
	return &checkInService{
		reservationRepo: reservationRepo,
		checkInRepo:     checkInRepo,
		outboxRepo:      outboxRepo,
	}
}

// CheckIn admits a vendor at the gate
func (s *checkInService) CheckIn(ctx context.Context, employeeID string, req *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.checkin.check_in")
	defer span.End()

	span.SetAttributes(attribute.String("employee_id", employeeID))

	if employeeID == "" {
		return nil, fmt.Errorf("%w: employee id required", domain.ErrInvalidVendorID)
	}
	if req.Key == "" {
		return nil, domain.ErrInvalidReservationID
	}

	res, err := s.reservationRepo.GetByQRTokenOrID(ctx, req.Key)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordCheckInRejection(ctx, "not_found")
		return nil, err
	}

	span.SetAttributes(attribute.String("reservation_id", res.ID))

	overridden := false
	switch res.Status {
	case domain.ReservationPaid:
		// admissible
	case domain.ReservationPendingPayment, domain.ReservationPendingRefund:
		// The hold is still the vendor's; a supervisor may wave them
		// through while payment or a refund decision is outstanding.
		if req.OverrideReason == "" {
			span.SetStatus(codes.Error, "override required")
			metrics.RecordCheckInRejection(ctx, "override_required")
			return nil, fmt.Errorf("%w: reservation is %s, supervisor override required", domain.ErrNotPaid, res.Status)
		}
		overridden = true
	default:
		span.SetStatus(codes.Error, "not paid")
		metrics.RecordCheckInRejection(ctx, "not_paid")
		return nil, fmt.Errorf("%w: reservation is %s", domain.ErrNotPaid, res.Status)
	}

	log := domain.NewCheckInLog(res.ID, employeeID, req.OverrideReason)
	if err := s.checkInRepo.Create(ctx, log); err != nil {
		if errors.Is(err, domain.ErrDuplicateCheckIn) {
			metrics.RecordCheckInRejection(ctx, "duplicate")
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.notifyAdmitted(ctx, res, overridden)

	metrics.RecordCheckIn(ctx, overridden)
	span.SetStatus(codes.Ok, "")
	return &dto.CheckInResponse{
		ReservationID: res.ID,
		VendorID:      res.VendorID,
		EventStallID:  res.EventStallID,
		EmployeeID:    employeeID,
		CheckedInAt:   log.CheckedInAt,
		Overridden:    overridden,
	}, nil
}

// notifyAdmitted enqueues the vendor's admission notification. Best-effort:
// the admission row is already written, so an outbox hiccup must not undo it.
func (s *checkInService) notifyAdmitted(ctx context.Context, res *domain.Reservation, overridden bool) {
	message := fmt.Sprintf("Checked in at stall %s", res.EventStallID)
	if overridden {
		message += " (supervisor override)"
	}
	intent, err := domain.NotificationIntent(res.ID, res.VendorID, message, domain.SeveritySuccess)
	if err == nil {
		err = s.outboxRepo.Create(ctx, intent)
	}
	if err != nil {
		logger.Get().Warn("check-in notification enqueue failed",
			zap.String("reservation_id", res.ID),
			zap.Error(err),
		)
	}
}

// Lookup inspects a pass without admitting
func (s *checkInService) Lookup(ctx context.Context, key string) (*dto.GateLookupResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.checkin.lookup")
	defer span.End()

	if key == "" {
		return nil, domain.ErrInvalidReservationID
	}

	res, err := s.reservationRepo.GetByQRTokenOrID(ctx, key)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp := &dto.GateLookupResponse{
		ReservationID: res.ID,
		VendorID:      res.VendorID,
		EventStallID:  res.EventStallID,
		Status:        res.Status.String(),
		Admissible:    res.Status == domain.ReservationPaid,
	}

	log, err := s.checkInRepo.GetByReservation(ctx, res.ID)
	if err == nil {
		resp.Admissible = false
		resp.CheckedInAt = &log.CheckedInAt
	} else if !domain.IsNotFoundError(err) {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return resp, nil
}
