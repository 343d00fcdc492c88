package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/telemetry"
)

// PostgresCheckInRepository implements CheckInRepository using PostgreSQL.
// The unique index on check_in_logs(reservation_id) makes the one-admission
// rule hold even when two gate staff scan the same pass at once.
type PostgresCheckInRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCheckInRepository creates a new PostgresCheckInRepository
func NewPostgresCheckInRepository(pool *pgxpool.Pool) *PostgresCheckInRepository {
	return &PostgresCheckInRepository{pool: pool}
}

// Create appends an admission row
func (r *PostgresCheckInRepository) Create(ctx context.Context, log *domain.CheckInLog) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.checkin.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", log.ReservationID),
		attribute.String("employee_id", log.EmployeeID),
	)

	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO check_in_logs (
			id, reservation_id, employee_id, checked_in_at, override_reason
		) VALUES ($1, $2, $3, $4, $5)
	`,
		log.ID,
		log.ReservationID,
		log.EmployeeID,
		log.CheckedInAt,
		nullString(log.OverrideReason),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			span.SetStatus(codes.Error, "duplicate check-in")
			return domain.ErrDuplicateCheckIn
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create check-in log: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByReservation loads the admission row for a reservation
func (r *PostgresCheckInRepository) GetByReservation(ctx context.Context, reservationID string) (*domain.CheckInLog, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.checkin.get_by_reservation")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", reservationID))

	log := &domain.CheckInLog{}
	var overrideReason *string

	err := r.pool.QueryRow(ctx, `
		SELECT id, reservation_id, employee_id, checked_in_at, override_reason
		FROM check_in_logs
		WHERE reservation_id = $1
	`, reservationID).Scan(
		&log.ID,
		&log.ReservationID,
		&log.EmployeeID,
		&log.CheckedInAt,
		&overrideReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, fmt.Errorf("check-in log: %w", domain.ErrReservationNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get check-in log: %w", err)
	}

	if overrideReason != nil {
		log.OverrideReason = *overrideReason
	}

	span.SetStatus(codes.Ok, "")
	return log, nil
}

// Ensure PostgresCheckInRepository implements CheckInRepository
var _ CheckInRepository = (*PostgresCheckInRepository)(nil)
