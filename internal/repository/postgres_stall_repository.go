package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/telemetry"
)

// PostgresStallRepository implements StallRepository using PostgreSQL with
// pgxpool. Reads join event_stalls with the template, the hall and the
// occupying reservation so callers get a complete inventory view in one
// round trip.
type PostgresStallRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStallRepository creates a new PostgresStallRepository
func NewPostgresStallRepository(pool *pgxpool.Pool) *PostgresStallRepository {
	return &PostgresStallRepository{pool: pool}
}

const stallViewQuery = `
	SELECT
		es.id, es.event_id, es.stall_template_id,
		es.base_rate_cents, es.multiplier, es.proximity_bonus_cents,
		es.final_price_cents, es.status, es.geometry_json, es.pricing_version,
		es.created_at, es.updated_at,
		st.id, st.hall_id, st.name, st.size, st.category,
		st.base_price_cents, st.default_proximity_score, st.geometry_json, st.available,
		h.id, h.name, h.layout_json,
		COALESCE(v.business_name, ''),
		r.id IS NOT NULL
	FROM event_stalls es
	JOIN stall_templates st ON st.id = es.stall_template_id
	JOIN halls h ON h.id = st.hall_id
	LEFT JOIN reservations r
		ON r.event_stall_id = es.id
		AND r.status IN ('PENDING_PAYMENT', 'PAID', 'PENDING_REFUND')
	LEFT JOIN vendors v ON v.id = r.vendor_id
`

// GetView loads one event stall joined with template, hall and occupancy
func (r *PostgresStallRepository) GetView(ctx context.Context, eventStallID string) (*StallView, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.stall.get_view")
	defer span.End()

	span.SetAttributes(attribute.String("event_stall_id", eventStallID))

	query := stallViewQuery + ` WHERE es.id = $1`

	view, err := scanStallView(r.pool.QueryRow(ctx, query, eventStallID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrEventStallNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get stall view: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return view, nil
}

// ListViewsByEvent loads every event stall of an event
func (r *PostgresStallRepository) ListViewsByEvent(ctx context.Context, eventID string) ([]*StallView, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.stall.list_views_by_event")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	query := stallViewQuery + ` WHERE es.event_id = $1 ORDER BY st.name ASC`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list stall views: %w", err)
	}
	defer rows.Close()

	var views []*StallView
	for rows.Next() {
		view, err := scanStallView(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan stall view: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating stall views: %w", err)
	}

	span.SetAttributes(attribute.Int("stall_count", len(views)))
	span.SetStatus(codes.Ok, "")
	return views, nil
}

// SetTemplateAvailability toggles the operator block flag on a template
func (r *PostgresStallRepository) SetTemplateAvailability(ctx context.Context, templateID string, available bool) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.stall.set_template_availability")
	defer span.End()

	span.SetAttributes(
		attribute.String("template_id", templateID),
		attribute.Bool("available", available),
	)

	result, err := r.pool.Exec(ctx, `
		UPDATE stall_templates SET available = $2, updated_at = $3 WHERE id = $1
	`, templateID, available, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to set template availability: %w", err)
	}
	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrEventStallNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SetEventStallStatus moves an event stall between AVAILABLE and BLOCKED.
// RESERVED rows are never touched here; releasing a stall is the reservation
// ledger's job.
func (r *PostgresStallRepository) SetEventStallStatus(ctx context.Context, eventStallID string, status domain.EventStallStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.stall.set_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_stall_id", eventStallID),
		attribute.String("status", status.String()),
	)

	result, err := r.pool.Exec(ctx, `
		UPDATE event_stalls SET status = $2, updated_at = $3
		WHERE id = $1 AND status != 'RESERVED'
	`, eventStallID, status.String(), time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to set stall status: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Either the stall does not exist or it is currently reserved.
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM event_stalls WHERE id = $1)`, eventStallID,
		).Scan(&exists); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to check stall existence: %w", err)
		}
		if !exists {
			span.SetStatus(codes.Error, "not found")
			return domain.ErrEventStallNotFound
		}
		span.SetStatus(codes.Error, "stall reserved")
		return domain.ErrStallConflict
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// BulkReprice applies a percentage adjustment to every event stall of an
// event. Only future reservations see the new price; billed amounts on
// existing reservations are frozen.
func (r *PostgresStallRepository) BulkReprice(ctx context.Context, eventID string, percentage float64, version string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.stall.bulk_reprice")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Float64("percentage", percentage),
	)

	result, err := r.pool.Exec(ctx, `
		UPDATE event_stalls SET
			base_rate_cents = ROUND(base_rate_cents * (1 + $2 / 100.0)),
			final_price_cents = ROUND(ROUND(base_rate_cents * (1 + $2 / 100.0)) * multiplier) + proximity_bonus_cents,
			pricing_version = $3,
			updated_at = $4
		WHERE event_id = $1
	`, eventID, percentage, version, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to bulk reprice: %w", err)
	}

	span.SetAttributes(attribute.Int64("repriced", result.RowsAffected()))
	span.SetStatus(codes.Ok, "")
	return result.RowsAffected(), nil
}

// scanStallView scans one joined inventory row
func scanStallView(row pgx.Row) (*StallView, error) {
	stall := &domain.EventStall{}
	template := &domain.StallTemplate{}
	hall := &domain.Hall{}
	view := &StallView{Stall: stall, Template: template, Hall: hall}

	var (
		stallStatus    string
		stallGeometry  *string
		pricingVersion *string
		size           string
	)

	err := row.Scan(
		&stall.ID, &stall.EventID, &stall.TemplateID,
		&stall.BaseRateCents, &stall.Multiplier, &stall.ProximityBonusCents,
		&stall.FinalPriceCents, &stallStatus, &stallGeometry, &pricingVersion,
		&stall.CreatedAt, &stall.UpdatedAt,
		&template.ID, &template.HallID, &template.Name, &size, &template.Category,
		&template.BasePriceCents, &template.DefaultProximityScore, &template.GeometryJSON, &template.Available,
		&hall.ID, &hall.Name, &hall.LayoutJSON,
		&view.ReservedBy,
		&view.ActiveReservation,
	)
	if err != nil {
		return nil, err
	}

	stall.Status = domain.EventStallStatus(stallStatus)
	if stallGeometry != nil {
		stall.GeometryJSON = *stallGeometry
	}
	if pricingVersion != nil {
		stall.PricingVersion = *pricingVersion
	}
	template.Size = domain.StallSize(size)

	return view, nil
}

// Ensure PostgresStallRepository implements StallRepository
var _ StallRepository = (*PostgresStallRepository)(nil)
