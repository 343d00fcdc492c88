package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
)

// PostgresOutboxRepository implements OutboxRepository using PostgreSQL
type PostgresOutboxRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOutboxRepository creates a new PostgresOutboxRepository
func NewPostgresOutboxRepository(pool *pgxpool.Pool) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{pool: pool}
}

const outboxInsertQuery = `
	INSERT INTO outbox_intents (
		id, kind, aggregate_id, payload, status,
		retry_count, max_retries, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8
	)
`

// Create creates a new outbox intent
func (r *PostgresOutboxRepository) Create(ctx context.Context, intent *domain.OutboxIntent) error {
	if intent.ID == "" {
		intent.ID = uuid.New().String()
	}

	_, err := r.pool.Exec(ctx, outboxInsertQuery,
		intent.ID,
		string(intent.Kind),
		intent.AggregateID,
		intent.Payload,
		intent.Status.String(),
		intent.RetryCount,
		intent.MaxRetries,
		intent.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create outbox intent: %w", err)
	}

	return nil
}

// CreateTx creates a new outbox intent within a transaction
func (r *PostgresOutboxRepository) CreateTx(ctx context.Context, tx pgx.Tx, intent *domain.OutboxIntent) error {
	if intent.ID == "" {
		intent.ID = uuid.New().String()
	}

	_, err := tx.Exec(ctx, outboxInsertQuery,
		intent.ID,
		string(intent.Kind),
		intent.AggregateID,
		intent.Payload,
		intent.Status.String(),
		intent.RetryCount,
		intent.MaxRetries,
		intent.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create outbox intent in transaction: %w", err)
	}

	return nil
}

// GetPending gets pending intents awaiting dispatch
func (r *PostgresOutboxRepository) GetPending(ctx context.Context, limit int) ([]*domain.OutboxIntent, error) {
	query := `
		SELECT
			id, kind, aggregate_id, payload, status,
			retry_count, max_retries, last_error,
			created_at, processed_at
		FROM outbox_intents
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending intents: %w", err)
	}
	defer rows.Close()

	return scanOutboxIntents(rows)
}

// GetFailed gets failed intents that can be retried
func (r *PostgresOutboxRepository) GetFailed(ctx context.Context, limit int) ([]*domain.OutboxIntent, error) {
	query := `
		SELECT
			id, kind, aggregate_id, payload, status,
			retry_count, max_retries, last_error,
			created_at, processed_at
		FROM outbox_intents
		WHERE status = 'failed' AND retry_count < max_retries
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed intents: %w", err)
	}
	defer rows.Close()

	return scanOutboxIntents(rows)
}

// MarkAsPublished marks an intent as successfully executed
func (r *PostgresOutboxRepository) MarkAsPublished(ctx context.Context, id string) error {
	query := `
		UPDATE outbox_intents SET
			status = 'published',
			processed_at = $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark intent as published: %w", err)
	}

	if result.RowsAffected() == 0 {
		return errors.New("outbox intent not found")
	}

	return nil
}

// MarkAsFailed records a sink failure on an intent
func (r *PostgresOutboxRepository) MarkAsFailed(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE outbox_intents SET
			status = 'failed',
			last_error = $2,
			retry_count = retry_count + 1,
			processed_at = $3
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, errMsg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark intent as failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return errors.New("outbox intent not found")
	}

	return nil
}

// DeletePublished deletes old executed intents for cleanup
func (r *PostgresOutboxRepository) DeletePublished(ctx context.Context, olderThanDays int) (int64, error) {
	query := `
		DELETE FROM outbox_intents
		WHERE status = 'published' AND processed_at < $1
	`

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete published intents: %w", err)
	}

	return result.RowsAffected(), nil
}

// scanOutboxIntents scans rows into an OutboxIntent slice
func scanOutboxIntents(rows pgx.Rows) ([]*domain.OutboxIntent, error) {
	var intents []*domain.OutboxIntent

	for rows.Next() {
		intent := &domain.OutboxIntent{}
		var (
			kind        string
			status      string
			lastError   *string
			processedAt *time.Time
		)

		err := rows.Scan(
			&intent.ID,
			&kind,
			&intent.AggregateID,
			&intent.Payload,
			&status,
			&intent.RetryCount,
			&intent.MaxRetries,
			&lastError,
			&intent.CreatedAt,
			&processedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox intent: %w", err)
		}

		intent.Kind = domain.IntentKind(kind)
		intent.Status = domain.OutboxStatus(status)
		if lastError != nil {
			intent.LastError = *lastError
		}
		intent.ProcessedAt = processedAt

		intents = append(intents, intent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox intents: %w", err)
	}

	return intents, nil
}

// Ensure PostgresOutboxRepository implements OutboxRepository
var _ OutboxRepository = (*PostgresOutboxRepository)(nil)
