package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/dto"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/gateway"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/metrics"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/telemetry"
)

// ReservationService defines the interface for reservation business logic
type ReservationService interface {
	// CreateReservations reserves a batch of stalls for a vendor all-or-nothing
	CreateReservations(ctx context.Context, vendorID string, req *dto.CreateReservationRequest) (*dto.CreateReservationResponse, error)

	// CreatePaymentIntent opens a fresh payment intent for a pending
	// reservation, for vendors whose intent setup failed at create time
	CreatePaymentIntent(ctx context.Context, reservationID, vendorID string) (*dto.PaymentIntentResponse, error)

	// ConfirmPayment verifies the payment intent and marks a reservation PAID
	ConfirmPayment(ctx context.Context, reservationID, vendorID string, req *dto.ConfirmPaymentRequest) (*dto.ReservationResponse, error)

	// CancelReservation cancels a vendor's own unpaid reservation
	CancelReservation(ctx context.Context, reservationID, vendorID string) (*dto.CancelResponse, error)

	// AdminCancel cancels any non-terminal reservation as an operator
	AdminCancel(ctx context.Context, reservationID string) (*dto.CancelResponse, error)

	// RequestRefund flags a paid reservation for operator review
	RequestRefund(ctx context.Context, reservationID, vendorID string, req *dto.RefundRequest) (*dto.ReservationResponse, error)

	// AdminRefund refunds through the gateway and releases the stall
	AdminRefund(ctx context.Context, reservationID string, req *dto.RefundRequest) (*dto.CancelResponse, error)

	// GetReservation retrieves a reservation, enforcing ownership
	GetReservation(ctx context.Context, reservationID, vendorID string) (*dto.ReservationResponse, error)

	// GetVendorReservations lists a vendor's reservations
	GetVendorReservations(ctx context.Context, vendorID string, page, pageSize int) (*dto.PaginatedResponse, error)

	// GetVendorSummary reports a vendor's quota usage for an event
	GetVendorSummary(ctx context.Context, vendorID, eventID string) (*dto.VendorSummaryResponse, error)

	// ExpireReservations releases stale PENDING_PAYMENT holds
	ExpireReservations(ctx context.Context, limit int) (int, error)
}

// reservationService implements ReservationService
type reservationService struct {
	reservationRepo repository.ReservationRepository
	paymentGateway  gateway.PaymentGateway
	quota           int
	holdTTL         time.Duration
	currency        string
}

// ReservationServiceConfig contains configuration for the reservation service
type ReservationServiceConfig struct {
	// Quota is the max non-terminal reservations per vendor per event
	Quota int

	// HoldTTL is how long a PENDING_PAYMENT hold lives before the sweep
	// releases it
	HoldTTL time.Duration

	// Currency is the ISO currency code billed through the gateway
	Currency string
}

// NewReservationService creates a new reservation service
func NewReservationService(
	reservationRepo repository.ReservationRepository,
	paymentGateway gateway.PaymentGateway,
	cfg *ReservationServiceConfig,
) ReservationService {
	quota := 3
	holdTTL := 15 * time.Minute
	currency := "usd"
	if cfg != nil {
		if cfg.Quota > 0 {
			quota = cfg.Quota
		}
		if cfg.HoldTTL > 0 {
			holdTTL = cfg.HoldTTL
		}
		if cfg.Currency != "" {
			currency = cfg.Currency
		}
	}
	return &reservationService{
		reservationRepo: reservationRepo,
		paymentGateway:  paymentGateway,
		quota:           quota,
		holdTTL:         holdTTL,
		currency:        currency,
	}
}

// CreateReservations reserves a batch of stalls for a vendor
func (s *reservationService) CreateReservations(ctx context.Context, vendorID string, req *dto.CreateReservationRequest) (*dto.CreateReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("vendor_id", vendorID),
		attribute.String("event_id", req.EventID),
		attribute.Int("batch_size", len(req.EventStallIDs)),
	)

	if vendorID == "" {
		return nil, domain.ErrInvalidVendorID
	}
	if req.EventID == "" {
		return nil, domain.ErrInvalidEventID
	}
	if len(req.EventStallIDs) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	seen := make(map[string]struct{}, len(req.EventStallIDs))
	for _, id := range req.EventStallIDs {
		if id == "" {
			return nil, domain.ErrInvalidStallID
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate stall %s", domain.ErrInvalidStallID, id)
		}
		seen[id] = struct{}{}
	}

	reservations, err := s.reservationRepo.CreateBatch(ctx, repository.CreateBatchParams{
		VendorID:      vendorID,
		EventID:       req.EventID,
		EventStallIDs: req.EventStallIDs,
		Quota:         s.quota,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordFailure(ctx, req.EventID, failureReason(err))
		return nil, err
	}

	var total int64
	responses := make([]*dto.ReservationResponse, 0, len(reservations))
	for _, res := range reservations {
		total += res.BilledCents
		responses = append(responses, dto.FromReservation(res))
	}

	resp := &dto.CreateReservationResponse{
		Reservations:     responses,
		TotalBilledCents: total,
	}

	// Open one payment intent covering the whole batch. A gateway outage
	// here leaves valid holds behind; the vendor retries payment setup while
	// the holds stand.
	intent, err := s.paymentGateway.CreateIntent(ctx, &gateway.CreateIntentRequest{
		ReservationID: reservations[0].ID,
		VendorID:      vendorID,
		AmountCents:   total,
		Currency:      s.currency,
		Description:   fmt.Sprintf("Stall reservation x%d", len(reservations)),
	})
	if err != nil {
		span.RecordError(err)
	} else {
		resp.PaymentIntentID = intent.IntentID
		resp.ClientSecret = intent.ClientSecret
		for _, res := range reservations {
			if err := s.reservationRepo.AttachPaymentIntent(ctx, res.ID, intent.IntentID); err != nil {
				span.RecordError(err)
			}
		}
		for _, r := range responses {
			r.PaymentIntentID = intent.IntentID
		}
	}

	metrics.RecordReservation(ctx, req.EventID, len(reservations))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// CreatePaymentIntent opens a fresh intent for an unpaid reservation. The
// create path already attaches one; this is the recovery route when that
// gateway call failed or the client lost the secret.
func (s *reservationService) CreatePaymentIntent(ctx context.Context, reservationID, vendorID string) (*dto.PaymentIntentResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.create_payment_intent")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	res, err := s.ownedReservation(ctx, reservationID, vendorID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.Status != domain.ReservationPendingPayment {
		span.SetStatus(codes.Error, "not pending")
		return nil, fmt.Errorf("%w: cannot open intent on %s reservation", domain.ErrInvalidTransition, res.Status)
	}

	intent, err := s.paymentGateway.CreateIntent(ctx, &gateway.CreateIntentRequest{
		ReservationID: res.ID,
		VendorID:      res.VendorID,
		AmountCents:   res.BilledCents,
		Currency:      s.currency,
		Description:   fmt.Sprintf("Stall reservation %s", res.ID),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	if err := s.reservationRepo.AttachPaymentIntent(ctx, res.ID, intent.IntentID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return &dto.PaymentIntentResponse{
		ReservationID:   res.ID,
		PaymentIntentID: intent.IntentID,
		ClientSecret:    intent.ClientSecret,
		AmountCents:     res.BilledCents,
		Currency:        s.currency,
	}, nil
}

// ConfirmPayment verifies the intent with the gateway and marks the
// reservation PAID. Confirming an already-paid reservation is a no-op
// success so webhook and client confirmations can race safely.
func (s *reservationService) ConfirmPayment(ctx context.Context, reservationID, vendorID string, req *dto.ConfirmPaymentRequest) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.confirm_payment")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	if reservationID == "" {
		return nil, domain.ErrInvalidReservationID
	}

	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if vendorID != "" && !res.BelongsTo(vendorID) {
		span.SetStatus(codes.Error, "not owner")
		return nil, domain.ErrNotReservationOwner
	}

	if res.Status == domain.ReservationPaid {
		span.SetStatus(codes.Ok, "already paid")
		return dto.FromReservation(res), nil
	}
	if res.Status != domain.ReservationPendingPayment {
		span.SetStatus(codes.Error, "not pending")
		return nil, fmt.Errorf("%w: cannot confirm %s reservation", domain.ErrInvalidTransition, res.Status)
	}

	// Never trust a client-reported amount: read the intent back from the
	// processor.
	intent, err := s.paymentGateway.RetrieveIntent(ctx, req.PaymentIntentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if intent.Status != gateway.IntentStatusSucceeded {
		span.SetStatus(codes.Error, "intent not settled")
		return nil, fmt.Errorf("%w: intent status %s", domain.ErrPaymentNotSettled, intent.Status)
	}
	if intent.AmountCents < res.BilledCents {
		span.SetStatus(codes.Error, "amount mismatch")
		return nil, fmt.Errorf("%w: settled %d < billed %d",
			domain.ErrAmountMismatch, intent.AmountCents, res.BilledCents)
	}

	err = s.reservationRepo.Confirm(ctx, reservationID, req.PaymentIntentID)
	if err != nil && !errors.Is(err, domain.ErrAlreadyPaid) {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	confirmed, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordConfirmation(ctx, confirmed.EventID, time.Since(confirmed.CreatedAt).Seconds())
	span.SetStatus(codes.Ok, "")
	return dto.FromReservation(confirmed), nil
}

// CancelReservation cancels a vendor's own unpaid reservation
func (s *reservationService) CancelReservation(ctx context.Context, reservationID, vendorID string) (*dto.CancelResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.cancel")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	res, err := s.ownedReservation(ctx, reservationID, vendorID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.reservationRepo.Cancel(ctx, reservationID, false, false); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordCancellation(ctx, res.EventID, false)
	span.SetStatus(codes.Ok, "")
	return &dto.CancelResponse{
		ReservationID: reservationID,
		Status:        domain.ReservationCancelled.String(),
		Message:       "reservation cancelled, stall released",
	}, nil
}

// AdminCancel cancels any non-terminal reservation as an operator
func (s *reservationService) AdminCancel(ctx context.Context, reservationID string) (*dto.CancelResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.admin_cancel")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	if reservationID == "" {
		return nil, domain.ErrInvalidReservationID
	}

	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.reservationRepo.Cancel(ctx, reservationID, true, true); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordCancellation(ctx, res.EventID, true)
	span.SetStatus(codes.Ok, "")
	return &dto.CancelResponse{
		ReservationID: reservationID,
		Status:        domain.ReservationCancelled.String(),
		Message:       "reservation cancelled by operator",
	}, nil
}

// RequestRefund flags a paid reservation for operator review
func (s *reservationService) RequestRefund(ctx context.Context, reservationID, vendorID string, req *dto.RefundRequest) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.request_refund")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	res, err := s.ownedReservation(ctx, reservationID, vendorID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.reservationRepo.RequestRefund(ctx, reservationID, req.Reason); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordRefundRequest(ctx, res.EventID)

	updated, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.FromReservation(updated), nil
}

// AdminRefund refunds the settled intent through the gateway, then releases
// the stall. The gateway refund runs first: a reservation must never end up
// CANCELLED with the vendor's money kept.
func (s *reservationService) AdminRefund(ctx context.Context, reservationID string, req *dto.RefundRequest) (*dto.CancelResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.admin_refund")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	if reservationID == "" {
		return nil, domain.ErrInvalidReservationID
	}

	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.Status != domain.ReservationPaid && res.Status != domain.ReservationPendingRefund {
		span.SetStatus(codes.Error, "not refundable")
		return nil, fmt.Errorf("%w: cannot refund %s reservation", domain.ErrInvalidTransition, res.Status)
	}

	if res.PaymentIntentID != "" {
		if err := s.paymentGateway.RefundIntent(ctx, res.PaymentIntentID, res.BilledCents); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("gateway refund failed: %w", err)
		}
	}

	if err := s.reservationRepo.SettleRefund(ctx, reservationID, req.Reason); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordRefundSettlement(ctx, res.EventID)
	span.SetStatus(codes.Ok, "")
	return &dto.CancelResponse{
		ReservationID: reservationID,
		Status:        domain.ReservationCancelled.String(),
		Message:       "refund settled, stall released",
	}, nil
}

// GetReservation retrieves a reservation, enforcing ownership when vendorID
// is non-empty
func (s *reservationService) GetReservation(ctx context.Context, reservationID, vendorID string) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.get")
	defer span.End()

	if reservationID == "" {
		return nil, domain.ErrInvalidReservationID
	}

	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if vendorID != "" && !res.BelongsTo(vendorID) {
		// Hide other vendors' reservations entirely.
		span.SetStatus(codes.Error, "not owner")
		return nil, domain.ErrReservationNotFound
	}

	span.SetStatus(codes.Ok, "")
	return dto.FromReservation(res), nil
}

// GetVendorReservations lists a vendor's reservations
func (s *reservationService) GetVendorReservations(ctx context.Context, vendorID string, page, pageSize int) (*dto.PaginatedResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.list")
	defer span.End()

	if vendorID == "" {
		return nil, domain.ErrInvalidVendorID
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	reservations, err := s.reservationRepo.ListByVendor(ctx, vendorID, pageSize, (page-1)*pageSize)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	responses := make([]*dto.ReservationResponse, 0, len(reservations))
	for _, res := range reservations {
		responses = append(responses, dto.FromReservation(res))
	}

	span.SetStatus(codes.Ok, "")
	return &dto.PaginatedResponse{
		Data:     responses,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetVendorSummary reports a vendor's quota usage for an event
func (s *reservationService) GetVendorSummary(ctx context.Context, vendorID, eventID string) (*dto.VendorSummaryResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.summary")
	defer span.End()

	if vendorID == "" {
		return nil, domain.ErrInvalidVendorID
	}
	if eventID == "" {
		return nil, domain.ErrInvalidEventID
	}

	count, err := s.reservationRepo.CountNonTerminal(ctx, vendorID, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	remaining := s.quota - count
	if remaining < 0 {
		remaining = 0
	}

	span.SetStatus(codes.Ok, "")
	return &dto.VendorSummaryResponse{
		VendorID:       vendorID,
		EventID:        eventID,
		ActiveCount:    count,
		MaxAllowed:     s.quota,
		RemainingSlots: remaining,
	}, nil
}

// ExpireReservations releases stale PENDING_PAYMENT holds. Holds that were
// paid or cancelled between the sweep's read and the mark are skipped.
func (s *reservationService) ExpireReservations(ctx context.Context, limit int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.expire")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	stale, err := s.reservationRepo.GetExpired(ctx, int(s.holdTTL.Seconds()), limit)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	expired := 0
	for _, res := range stale {
		if err := s.reservationRepo.MarkExpired(ctx, res.ID); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrReservationNotFound) {
				continue
			}
			span.RecordError(err)
			continue
		}
		expired++
	}

	if expired > 0 {
		metrics.RecordExpiration(ctx, int64(expired))
	}
	span.SetAttributes(attribute.Int("expired", expired))
	span.SetStatus(codes.Ok, "")
	return expired, nil
}

// ownedReservation loads a reservation and enforces vendor ownership
func (s *reservationService) ownedReservation(ctx context.Context, reservationID, vendorID string) (*domain.Reservation, error) {
	if reservationID == "" {
		return nil, domain.ErrInvalidReservationID
	}
	if vendorID == "" {
		return nil, domain.ErrInvalidVendorID
	}

	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !res.BelongsTo(vendorID) {
		return nil, domain.ErrNotReservationOwner
	}
	return res, nil
}

// failureReason maps an error to a metric label
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, domain.ErrStallConflict):
		return "stall_conflict"
	case domain.IsNotFoundError(err):
		return "not_found"
	default:
		return "internal"
	}
}

// generateVersion mints a pricing version tag
func generateVersion() string {
	return "v-" + uuid.New().String()[:8]
}
