package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/metrics"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/service"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/logger"
)

// OutboxWorkerConfig contains configuration for the outbox worker
type OutboxWorkerConfig struct {
	// PollInterval is the interval between polling for pending intents
	PollInterval time.Duration
	// BatchSize is the number of intents to fetch in each poll
	BatchSize int
	// RetryInterval is the interval between retrying failed intents
	RetryInterval time.Duration
	// CleanupInterval is the interval between cleanup of executed intents
	CleanupInterval time.Duration
	// CleanupRetentionDays is the number of days to retain executed intents
	CleanupRetentionDays int
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() *OutboxWorkerConfig {
	return &OutboxWorkerConfig{
		PollInterval:         500 * time.Millisecond,
		BatchSize:            100,
		RetryInterval:        10 * time.Second,
		CleanupInterval:      1 * time.Hour,
		CleanupRetentionDays: 7,
	}
}

// OutboxWorker polls the outbox table and dispatches intents to their sinks.
// Sink failures mark the intent failed and let the retry loop pick it up;
// the originating transaction is long committed by then.
type OutboxWorker struct {
	outboxRepo repository.OutboxRepository
	notifier   service.Notifier
	ticketer   service.Ticketer
	auditSink  service.AuditSink
	config     *OutboxWorkerConfig
	log        *logger.Logger
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(
	outboxRepo repository.OutboxRepository,
	notifier service.Notifier,
	ticketer service.Ticketer,
	auditSink service.AuditSink,
	config *OutboxWorkerConfig,
) *OutboxWorker {
	if config == nil {
		config = DefaultOutboxWorkerConfig()
	}

	return &OutboxWorker{
		outboxRepo: outboxRepo,
		notifier:   notifier,
		ticketer:   ticketer,
		auditSink:  auditSink,
		config:     config,
		log:        logger.Get(),
		stopCh:     make(chan struct{}),
	}
}

// Start starts the outbox worker
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting outbox worker")

	// Start pending intents poller
	w.wg.Add(1)
	go w.pollPendingIntents(ctx)

	// Start failed intents retrier
	w.wg.Add(1)
	go w.retryFailedIntents(ctx)

	// Start cleanup worker
	w.wg.Add(1)
	go w.cleanupOldIntents(ctx)

	return nil
}

// Stop stops the outbox worker
func (w *OutboxWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping outbox worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Outbox worker stopped")
}

// pollPendingIntents polls for pending intents and dispatches them
func (w *OutboxWorker) pollPendingIntents(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processPendingIntents(ctx)
		}
	}
}

// processPendingIntents fetches and dispatches pending intents
func (w *OutboxWorker) processPendingIntents(ctx context.Context) {
	intents, err := w.outboxRepo.GetPending(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error(fmt.Sprintf("Failed to get pending intents: %v", err))
		return
	}

	for _, intent := range intents {
		w.dispatchAndMark(ctx, intent)
	}
}

// retryFailedIntents retries failed intents
func (w *OutboxWorker) retryFailedIntents(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processFailedIntents(ctx)
		}
	}
}

// processFailedIntents fetches and retries failed intents
func (w *OutboxWorker) processFailedIntents(ctx context.Context) {
	intents, err := w.outboxRepo.GetFailed(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error(fmt.Sprintf("Failed to get failed intents: %v", err))
		return
	}

	for _, intent := range intents {
		w.dispatchAndMark(ctx, intent)
	}
}

// dispatchAndMark executes one intent and records the outcome
func (w *OutboxWorker) dispatchAndMark(ctx context.Context, intent *domain.OutboxIntent) {
	if err := w.dispatch(ctx, intent); err != nil {
		w.log.Error(fmt.Sprintf("Failed to dispatch intent %s (attempt %d/%d): %v",
			intent.ID, intent.RetryCount+1, intent.MaxRetries, err))
		metrics.RecordIntentFailure(ctx, string(intent.Kind))
		if markErr := w.outboxRepo.MarkAsFailed(ctx, intent.ID, err.Error()); markErr != nil {
			w.log.Error(fmt.Sprintf("Failed to mark intent as failed %s: %v", intent.ID, markErr))
		}
		return
	}

	metrics.RecordIntentDispatch(ctx, string(intent.Kind))
	if markErr := w.outboxRepo.MarkAsPublished(ctx, intent.ID); markErr != nil {
		w.log.Error(fmt.Sprintf("Failed to mark intent as published %s: %v", intent.ID, markErr))
	}
}

// dispatch routes an intent to its sink
func (w *OutboxWorker) dispatch(ctx context.Context, intent *domain.OutboxIntent) error {
	switch intent.Kind {
	case domain.IntentNotification:
		var payload domain.NotificationPayload
		if err := intent.GetPayload(&payload); err != nil {
			return fmt.Errorf("malformed notification payload: %w", err)
		}
		return w.notifier.Notify(ctx, &payload)

	case domain.IntentTicket:
		var payload domain.TicketPayload
		if err := intent.GetPayload(&payload); err != nil {
			return fmt.Errorf("malformed ticket payload: %w", err)
		}
		return w.ticketer.IssueTickets(ctx, &payload)

	case domain.IntentAudit:
		var payload domain.AuditPayload
		if err := intent.GetPayload(&payload); err != nil {
			return fmt.Errorf("malformed audit payload: %w", err)
		}
		return w.auditSink.Record(ctx, &payload)

	default:
		return fmt.Errorf("unknown intent kind: %s", intent.Kind)
	}
}

// cleanupOldIntents deletes old executed intents
func (w *OutboxWorker) cleanupOldIntents(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			deleted, err := w.outboxRepo.DeletePublished(ctx, w.config.CleanupRetentionDays)
			if err != nil {
				w.log.Error(fmt.Sprintf("Failed to cleanup old intents: %v", err))
			} else if deleted > 0 {
				w.log.Info(fmt.Sprintf("Cleaned up %d executed intents", deleted))
			}
		}
	}
}
