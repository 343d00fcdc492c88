package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
)

// StallView joins an EventStall with its template and owning hall; the unit
// the inventory projection prices and lists.
type StallView struct {
	Stall    *domain.EventStall
	Template *domain.StallTemplate
	Hall     *domain.Hall
	// Occupancy overlay, resolved from the reservations table.
	ReservedBy       string // vendor business name, empty when free
	ActiveReservation bool
}

// CreateBatchParams carries one all-or-nothing reservation request.
type CreateBatchParams struct {
	VendorID     string
	EventID      string
	EventStallIDs []string
	// Quota is the per-vendor-per-event cap on non-terminal reservations.
	Quota int
}

// StallRepository reads and mutates stall inventory rows.
type StallRepository interface {
	// GetView loads one event stall joined with template and hall.
	GetView(ctx context.Context, eventStallID string) (*StallView, error)

	// ListViewsByEvent loads every event stall of an event joined with
	// template, hall and occupancy.
	ListViewsByEvent(ctx context.Context, eventID string) ([]*StallView, error)

	// SetTemplateAvailability toggles the operator block flag on a template.
	SetTemplateAvailability(ctx context.Context, templateID string, available bool) error

	// SetEventStallStatus moves an event stall between AVAILABLE and BLOCKED
	// (operator action; RESERVED is owned by the reservation ledger).
	SetEventStallStatus(ctx context.Context, eventStallID string, status domain.EventStallStatus) error

	// BulkReprice applies a percentage adjustment to every event stall of an
	// event, recomputing final prices and bumping the pricing version.
	BulkReprice(ctx context.Context, eventID string, percentage float64, version string) (int64, error)
}

// ReservationRepository is the transactional store behind the reservation
// ledger. Every mutating method evaluates its status and contention checks
// inside the same transaction as the write.
type ReservationRepository interface {
	// CreateBatch atomically creates one PENDING_PAYMENT reservation per
	// requested stall, freezing each stall's current final price. The whole
	// batch fails on the first conflicting stall (domain.ErrStallConflict)
	// or when the vendor's non-terminal count plus the batch would exceed
	// the quota (domain.ErrQuotaExceeded). Stall rows are locked in id order.
	CreateBatch(ctx context.Context, params CreateBatchParams) ([]*domain.Reservation, error)

	// GetByID loads a reservation.
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)

	// GetByQRTokenOrID resolves a gate-staff lookup string against either
	// the QR token or the reservation id.
	GetByQRTokenOrID(ctx context.Context, key string) (*domain.Reservation, error)

	// ListByVendor lists a vendor's reservations, newest first.
	ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]*domain.Reservation, error)

	// CountNonTerminal counts a vendor's reservations for an event in
	// {PENDING_PAYMENT, PAID, PENDING_REFUND}.
	CountNonTerminal(ctx context.Context, vendorID, eventID string) (int, error)

	// Confirm transitions PENDING_PAYMENT -> PAID and enqueues the ticket
	// intent in the same transaction. Returns domain.ErrAlreadyPaid when the
	// reservation is already PAID (callers treat that as idempotent success).
	Confirm(ctx context.Context, id, paymentIntentID string) error

	// Cancel transitions to CANCELLED and releases the stall. asAdmin relaxes
	// the owner-only PENDING_PAYMENT restriction to any non-terminal state.
	Cancel(ctx context.Context, id string, asAdmin bool, warnOwner bool) error

	// RequestRefund transitions PAID -> PENDING_REFUND without releasing the
	// stall.
	RequestRefund(ctx context.Context, id, reason string) error

	// SettleRefund transitions PAID or PENDING_REFUND -> CANCELLED, releases
	// the stall and enqueues the audit intent.
	SettleRefund(ctx context.Context, id, reason string) error

	// GetExpired returns PENDING_PAYMENT reservations created before the
	// cutoff, up to limit.
	GetExpired(ctx context.Context, cutoffSeconds int, limit int) ([]*domain.Reservation, error)

	// MarkExpired transitions PENDING_PAYMENT -> EXPIRED and releases the
	// stall.
	MarkExpired(ctx context.Context, id string) error

	// SetEmailSent flips the email-sent flag after ticket delivery.
	SetEmailSent(ctx context.Context, id string) error

	// AttachPaymentIntent records the gateway intent id on a
	// PENDING_PAYMENT reservation.
	AttachPaymentIntent(ctx context.Context, id, intentID string) error
}

// CheckInRepository stores gate admissions.
type CheckInRepository interface {
	// Create appends an admission row. A second admission for the same
	// reservation fails with domain.ErrDuplicateCheckIn.
	Create(ctx context.Context, log *domain.CheckInLog) error

	// GetByReservation loads the admission row for a reservation, or
	// domain.ErrReservationNotFound-wrapped nil when none exists.
	GetByReservation(ctx context.Context, reservationID string) (*domain.CheckInLog, error)
}

// OutboxRepository stores side-effect intents.
type OutboxRepository interface {
	Create(ctx context.Context, intent *domain.OutboxIntent) error
	CreateTx(ctx context.Context, tx pgx.Tx, intent *domain.OutboxIntent) error
	GetPending(ctx context.Context, limit int) ([]*domain.OutboxIntent, error)
	GetFailed(ctx context.Context, limit int) ([]*domain.OutboxIntent, error)
	MarkAsPublished(ctx context.Context, id string) error
	MarkAsFailed(ctx context.Context, id string, errMsg string) error
	DeletePublished(ctx context.Context, olderThanDays int) (int64, error)
}
