package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/telemetry"
)

// PostgresReservationRepository implements ReservationRepository using
// PostgreSQL with pgxpool. Contended operations take a transaction-scoped
// advisory lock on (vendor, event) and row locks on the stalls, so the quota
// check and the conflict check are evaluated under the same serialization as
// the writes they guard.
type PostgresReservationRepository struct {
	pool   *pgxpool.Pool
	outbox OutboxRepository
}

// NewPostgresReservationRepository creates a new PostgresReservationRepository
func NewPostgresReservationRepository(pool *pgxpool.Pool, outbox OutboxRepository) *PostgresReservationRepository {
	return &PostgresReservationRepository{pool: pool, outbox: outbox}
}

const reservationColumns = `
	id, vendor_id, event_id, event_stall_id, status,
	billed_cents, qr_token, payment_intent_id, refund_reason, email_sent,
	created_at, updated_at, paid_at, cancelled_at, refund_requested_at
`

// uniqueViolation is the PostgreSQL error code raised by the partial unique
// index on reservations(event_stall_id) WHERE status not terminal. The index
// is a backstop: the row locks in CreateBatch already prevent the race.
const uniqueViolation = "23505"

// CreateBatch atomically creates one reservation per requested stall.
func (r *PostgresReservationRepository) CreateBatch(ctx context.Context, params CreateBatchParams) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.create_batch")
	defer span.End()

	span.SetAttributes(
		attribute.String("vendor_id", params.VendorID),
		attribute.String("event_id", params.EventID),
		attribute.Int("batch_size", len(params.EventStallIDs)),
	)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize all batches of this vendor for this event so concurrent
	// requests cannot both pass the quota check. Released at commit/rollback.
	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`,
		params.VendorID+":"+params.EventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to acquire vendor lock: %w", err)
	}

	var active int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE vendor_id = $1 AND event_id = $2
		  AND status IN ('PENDING_PAYMENT', 'PAID', 'PENDING_REFUND')
	`, params.VendorID, params.EventID).Scan(&active)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to count active reservations: %w", err)
	}

	if active+len(params.EventStallIDs) > params.Quota {
		span.SetStatus(codes.Error, "quota exceeded")
		return nil, fmt.Errorf("%w: %d active + %d requested > %d",
			domain.ErrQuotaExceeded, active, len(params.EventStallIDs), params.Quota)
	}

	// Lock the stall rows in id order so two overlapping batches always
	// acquire locks in the same sequence.
	stallIDs := append([]string(nil), params.EventStallIDs...)
	sort.Strings(stallIDs)

	rows, err := tx.Query(ctx, `
		SELECT id, status, final_price_cents
		FROM event_stalls
		WHERE id = ANY($1) AND event_id = $2
		ORDER BY id
		FOR UPDATE
	`, stallIDs, params.EventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to lock stalls: %w", err)
	}

	prices := make(map[string]int64, len(stallIDs))
	for rows.Next() {
		var (
			id     string
			status string
			price  int64
		)
		if err := rows.Scan(&id, &status, &price); err != nil {
			rows.Close()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan stall: %w", err)
		}
		if status != domain.EventStallAvailable.String() {
			rows.Close()
			span.SetStatus(codes.Error, "stall conflict")
			return nil, fmt.Errorf("%w: stall %s is %s", domain.ErrStallConflict, id, status)
		}
		prices[id] = price
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating stalls: %w", err)
	}

	for _, id := range stallIDs {
		if _, ok := prices[id]; !ok {
			span.SetStatus(codes.Error, "stall not found")
			return nil, fmt.Errorf("%w: %s", domain.ErrEventStallNotFound, id)
		}
	}

	// Insert reservations in the caller's order, freezing each stall's
	// current final price as the billed amount.
	reservations := make([]*domain.Reservation, 0, len(params.EventStallIDs))
	reservationIDs := make([]string, 0, len(params.EventStallIDs))
	for _, stallID := range params.EventStallIDs {
		res := domain.NewReservation(params.VendorID, params.EventID, stallID, prices[stallID])

		_, err = tx.Exec(ctx, `
			INSERT INTO reservations (
				id, vendor_id, event_id, event_stall_id, status,
				billed_cents, qr_token, email_sent, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			res.ID, res.VendorID, res.EventID, res.EventStallID, res.Status.String(),
			res.BilledCents, res.QRToken, res.EmailSent, res.CreatedAt, res.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				span.SetStatus(codes.Error, "stall conflict")
				return nil, fmt.Errorf("%w: stall %s", domain.ErrStallConflict, stallID)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to insert reservation: %w", err)
		}

		reservations = append(reservations, res)
		reservationIDs = append(reservationIDs, res.ID)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE event_stalls SET status = 'RESERVED', updated_at = $2
		WHERE id = ANY($1) AND status = 'AVAILABLE'
	`, stallIDs, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to reserve stalls: %w", err)
	}
	if int(tag.RowsAffected()) != len(stallIDs) {
		span.SetStatus(codes.Error, "stall conflict")
		return nil, domain.ErrStallConflict
	}

	intent, err := domain.NotificationIntent(reservations[0].ID, params.VendorID, fmt.Sprintf(
		"Reserved %d stall(s). Complete payment before the hold expires.",
		len(reservations)), domain.SeverityInfo)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to build notification intent: %w", err)
	}
	if err := r.outbox.CreateTx(ctx, tx, intent); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit reservation batch: %w", err)
	}

	span.SetAttributes(attribute.StringSlice("reservation_ids", reservationIDs))
	span.SetStatus(codes.Ok, "")
	return reservations, nil
}

// GetByID retrieves a reservation by its ID
func (r *PostgresReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrReservationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return res, nil
}

// GetByQRTokenOrID resolves a gate lookup key against the QR token first,
// falling back to the reservation id.
func (r *PostgresReservationRepository) GetByQRTokenOrID(ctx context.Context, key string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.get_by_qr_or_id")
	defer span.End()

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE qr_token = $1 OR id = $1 LIMIT 1`

	res, err := scanReservation(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrReservationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to resolve reservation: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return res, nil
}

// ListByVendor lists a vendor's reservations, newest first
func (r *PostgresReservationRepository) ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.list_by_vendor")
	defer span.End()

	span.SetAttributes(attribute.String("vendor_id", vendorID))

	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE vendor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, vendorID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return reservations, nil
}

// CountNonTerminal counts a vendor's active reservations for an event
func (r *PostgresReservationRepository) CountNonTerminal(ctx context.Context, vendorID, eventID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.count_non_terminal")
	defer span.End()

	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE vendor_id = $1 AND event_id = $2
		  AND status IN ('PENDING_PAYMENT', 'PAID', 'PENDING_REFUND')
	`, vendorID, eventID).Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return count, nil
}

// Confirm transitions PENDING_PAYMENT -> PAID and enqueues the ticket intent
// in the same transaction.
func (r *PostgresReservationRepository) Confirm(ctx context.Context, id, paymentIntentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.confirm")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	return r.withTransition(ctx, span, id, func(tx pgx.Tx, res *domain.Reservation) error {
		if res.Status == domain.ReservationPaid {
			return domain.ErrAlreadyPaid
		}
		if err := res.ConfirmPayment(paymentIntentID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			UPDATE reservations SET
				status = $2, payment_intent_id = $3, paid_at = $4, updated_at = $4
			WHERE id = $1
		`, res.ID, res.Status.String(), res.PaymentIntentID, time.Now())
		if err != nil {
			return fmt.Errorf("failed to confirm reservation: %w", err)
		}

		intent, err := domain.TicketIntent(res.VendorID, []string{res.ID})
		if err != nil {
			return fmt.Errorf("failed to build ticket intent: %w", err)
		}
		return r.outbox.CreateTx(ctx, tx, intent)
	})
}

// Cancel transitions to CANCELLED and releases the stall
func (r *PostgresReservationRepository) Cancel(ctx context.Context, id string, asAdmin bool, warnOwner bool) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.cancel")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", id),
		attribute.Bool("as_admin", asAdmin),
	)

	return r.withTransition(ctx, span, id, func(tx pgx.Tx, res *domain.Reservation) error {
		if err := res.Cancel(asAdmin); err != nil {
			return err
		}

		if err := r.persistTerminal(ctx, tx, res); err != nil {
			return err
		}

		if warnOwner {
			intent, err := domain.NotificationIntent(res.ID, res.VendorID,
				"Your reservation was cancelled by an operator.", domain.SeverityWarning)
			if err != nil {
				return fmt.Errorf("failed to build notification intent: %w", err)
			}
			return r.outbox.CreateTx(ctx, tx, intent)
		}
		return nil
	})
}

// RequestRefund transitions PAID -> PENDING_REFUND. The stall stays occupied
// until an operator settles the refund.
func (r *PostgresReservationRepository) RequestRefund(ctx context.Context, id, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.request_refund")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	return r.withTransition(ctx, span, id, func(tx pgx.Tx, res *domain.Reservation) error {
		if err := res.RequestRefund(reason); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			UPDATE reservations SET
				status = $2, refund_reason = $3, refund_requested_at = $4, updated_at = $4
			WHERE id = $1
		`, res.ID, res.Status.String(), res.RefundReason, time.Now())
		if err != nil {
			return fmt.Errorf("failed to request refund: %w", err)
		}

		intent, err := domain.AuditIntent("refund_requested", "reservation", res.ID,
			map[string]string{"vendor_id": res.VendorID, "reason": reason})
		if err != nil {
			return fmt.Errorf("failed to build audit intent: %w", err)
		}
		return r.outbox.CreateTx(ctx, tx, intent)
	})
}

// SettleRefund transitions PAID or PENDING_REFUND -> CANCELLED, releases the
// stall and records the operator action.
func (r *PostgresReservationRepository) SettleRefund(ctx context.Context, id, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.settle_refund")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	return r.withTransition(ctx, span, id, func(tx pgx.Tx, res *domain.Reservation) error {
		if err := res.SettleRefund(reason); err != nil {
			return err
		}

		if err := r.persistTerminal(ctx, tx, res); err != nil {
			return err
		}

		intent, err := domain.AuditIntent("refund_settled", "reservation", res.ID,
			map[string]string{"vendor_id": res.VendorID, "reason": reason})
		if err != nil {
			return fmt.Errorf("failed to build audit intent: %w", err)
		}
		return r.outbox.CreateTx(ctx, tx, intent)
	})
}

// GetExpired returns stale PENDING_PAYMENT reservations
func (r *PostgresReservationRepository) GetExpired(ctx context.Context, cutoffSeconds int, limit int) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.get_expired")
	defer span.End()

	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = 'PENDING_PAYMENT'
		  AND created_at < NOW() - ($1 * INTERVAL '1 second')
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, cutoffSeconds, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get expired reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}

	span.SetAttributes(attribute.Int("expired_count", len(reservations)))
	span.SetStatus(codes.Ok, "")
	return reservations, nil
}

// MarkExpired transitions PENDING_PAYMENT -> EXPIRED and releases the stall.
// A reservation paid or cancelled since the sweep selected it is skipped via
// the entity transition check, not overwritten.
func (r *PostgresReservationRepository) MarkExpired(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.mark_expired")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	return r.withTransition(ctx, span, id, func(tx pgx.Tx, res *domain.Reservation) error {
		if err := res.Expire(); err != nil {
			return err
		}

		if err := r.persistTerminal(ctx, tx, res); err != nil {
			return err
		}

		intent, err := domain.NotificationIntent(res.ID, res.VendorID,
			"Your reservation expired before payment. The stall has been released.",
			domain.SeverityWarning)
		if err != nil {
			return fmt.Errorf("failed to build notification intent: %w", err)
		}
		return r.outbox.CreateTx(ctx, tx, intent)
	})
}

// SetEmailSent flips the email-sent flag after ticket delivery
func (r *PostgresReservationRepository) SetEmailSent(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.set_email_sent")
	defer span.End()

	result, err := r.pool.Exec(ctx, `
		UPDATE reservations SET email_sent = TRUE, updated_at = $2 WHERE id = $1
	`, id, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to set email sent: %w", err)
	}
	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrReservationNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// AttachPaymentIntent records the gateway intent id on a pending reservation
func (r *PostgresReservationRepository) AttachPaymentIntent(ctx context.Context, id, intentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.attach_payment_intent")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	result, err := r.pool.Exec(ctx, `
		UPDATE reservations SET payment_intent_id = $2, updated_at = $3
		WHERE id = $1 AND status = 'PENDING_PAYMENT'
	`, id, intentID, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to attach payment intent: %w", err)
	}
	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "invalid state")
		return domain.ErrInvalidTransition
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// withTransition runs fn against a row-locked reservation inside a
// transaction. fn mutates the entity through its transition methods; the
// helper owns begin, lock, commit and span status.
func (r *PostgresReservationRepository) withTransition(ctx context.Context, span trace.Span, id string, fn func(tx pgx.Tx, res *domain.Reservation) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`

	res, err := scanReservation(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return domain.ErrReservationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to lock reservation: %w", err)
	}

	if err := fn(tx, res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to commit transition: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// persistTerminal writes a terminal transition and frees the stall
func (r *PostgresReservationRepository) persistTerminal(ctx context.Context, tx pgx.Tx, res *domain.Reservation) error {
	_, err := tx.Exec(ctx, `
		UPDATE reservations SET
			status = $2, refund_reason = $3, cancelled_at = $4, updated_at = $4
		WHERE id = $1
	`, res.ID, res.Status.String(), nullString(res.RefundReason), time.Now())
	if err != nil {
		return fmt.Errorf("failed to persist transition: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE event_stalls SET status = 'AVAILABLE', updated_at = $2
		WHERE id = $1 AND status = 'RESERVED'
	`, res.EventStallID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to release stall: %w", err)
	}
	return nil
}

// scanReservation scans a reservation from any row scanner
func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	var (
		status            string
		paymentIntentID   *string
		refundReason      *string
		paidAt            *time.Time
		cancelledAt       *time.Time
		refundRequestedAt *time.Time
	)

	err := row.Scan(
		&res.ID,
		&res.VendorID,
		&res.EventID,
		&res.EventStallID,
		&status,
		&res.BilledCents,
		&res.QRToken,
		&paymentIntentID,
		&refundReason,
		&res.EmailSent,
		&res.CreatedAt,
		&res.UpdatedAt,
		&paidAt,
		&cancelledAt,
		&refundRequestedAt,
	)
	if err != nil {
		return nil, err
	}

	res.Status = domain.ReservationStatus(status)
	if paymentIntentID != nil {
		res.PaymentIntentID = *paymentIntentID
	}
	if refundReason != nil {
		res.RefundReason = *refundReason
	}
	res.PaidAt = paidAt
	res.CancelledAt = cancelledAt
	res.RefundRequestedAt = refundRequestedAt

	return res, nil
}

// nullString converts an empty string to nil for nullable columns
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ensure PostgresReservationRepository implements ReservationRepository
var _ ReservationRepository = (*PostgresReservationRepository)(nil)
