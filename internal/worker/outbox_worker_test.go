package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
)

type mockNotifier struct {
	NotifyFunc func(ctx context.Context, payload *domain.NotificationPayload) error
	calls      int
}

func (m *mockNotifier) Notify(ctx context.Context, payload *domain.NotificationPayload) error {
	m.calls++
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, payload)
	}
	return nil
}

type mockTicketer struct {
	IssueFunc func(ctx context.Context, payload *domain.TicketPayload) error
	calls     int
}

func (m *mockTicketer) IssueTickets(ctx context.Context, payload *domain.TicketPayload) error {
	m.calls++
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, payload)
	}
	return nil
}

type mockAuditSink struct {
	RecordFunc func(ctx context.Context, payload *domain.AuditPayload) error
	calls      int
}

func (m *mockAuditSink) Record(ctx context.Context, payload *domain.AuditPayload) error {
	m.calls++
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, payload)
	}
	return nil
}

func newTestWorker(repo repository.OutboxRepository, n *mockNotifier, t *mockTicketer, a *mockAuditSink) *OutboxWorker {
	return NewOutboxWorker(repo, n, t, a, DefaultOutboxWorkerConfig())
}

func mustIntent(t *testing.T, intent *domain.OutboxIntent, err error) *domain.OutboxIntent {
	t.Helper()
	if err != nil {
		t.Fatalf("building intent: %v", err)
	}
	return intent
}

func TestOutboxWorker_DispatchByKind(t *testing.T) {
	repo := repository.NewMemoryOutboxRepository()
	ctx := context.Background()

	notificationIntent, notificationErr := domain.NotificationIntent("res-001", "vendor-001", "your stall is held", domain.SeverityInfo)
	notification := mustIntent(t, notificationIntent, notificationErr)
	ticketIntent, ticketErr := domain.TicketIntent("vendor-001", []string{"res-001", "res-002"})
	ticket := mustIntent(t, ticketIntent, ticketErr)
	auditIntent, auditErr := domain.AuditIntent("admin.cancel", "reservation", "res-003", map[string]string{"by": "ops"})
	audit := mustIntent(t, auditIntent, auditErr)
	for _, intent := range []*domain.OutboxIntent{notification, ticket, audit} {
		if err := repo.Create(ctx, intent); err != nil {
			t.Fatalf("seeding intent: %v", err)
		}
	}

	var gotTicket *domain.TicketPayload
	notifier := &mockNotifier{}
	ticketer := &mockTicketer{
		IssueFunc: func(ctx context.Context, payload *domain.TicketPayload) error {
			gotTicket = payload
			return nil
		},
	}
	auditSink := &mockAuditSink{}
	w := newTestWorker(repo, notifier, ticketer, auditSink)

	w.processPendingIntents(ctx)

	if notifier.calls != 1 || ticketer.calls != 1 || auditSink.calls != 1 {
		t.Errorf("sink calls = %d/%d/%d, want 1/1/1", notifier.calls, ticketer.calls, auditSink.calls)
	}
	if gotTicket == nil || len(gotTicket.ReservationIDs) != 2 || gotTicket.VendorID != "vendor-001" {
		t.Errorf("ticket payload = %+v, want vendor-001 with 2 reservations", gotTicket)
	}

	pending, err := repo.GetPending(ctx, 10)
	if err != nil {
		t.Fatalf("GetPending() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after dispatch = %d, want 0", len(pending))
	}
}

func TestOutboxWorker_FailureMarksAndRetries(t *testing.T) {
	repo := repository.NewMemoryOutboxRepository()
	ctx := context.Background()

	built, buildErr := domain.NotificationIntent("res-001", "vendor-001", "hello", domain.SeverityInfo)
	intent := mustIntent(t, built, buildErr)
	if err := repo.Create(ctx, intent); err != nil {
		t.Fatalf("seeding intent: %v", err)
	}

	sinkErr := errors.New("smtp unreachable")
	fail := true
	notifier := &mockNotifier{
		NotifyFunc: func(ctx context.Context, payload *domain.NotificationPayload) error {
			if fail {
				return sinkErr
			}
			return nil
		},
	}
	w := newTestWorker(repo, notifier, &mockTicketer{}, &mockAuditSink{})

	// First pass fails; the intent leaves the pending set but stays retriable.
	w.processPendingIntents(ctx)
	pending, _ := repo.GetPending(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("pending after failure = %d, want 0", len(pending))
	}
	failed, _ := repo.GetFailed(ctx, 10)
	if len(failed) != 1 {
		t.Fatalf("failed after failure = %d, want 1", len(failed))
	}
	if failed[0].LastError == "" {
		t.Error("LastError not recorded on failed intent")
	}

	// The retry loop picks it up once the sink recovers.
	fail = false
	w.processFailedIntents(ctx)
	failed, _ = repo.GetFailed(ctx, 10)
	if len(failed) != 0 {
		t.Errorf("failed after retry = %d, want 0", len(failed))
	}
	if notifier.calls != 2 {
		t.Errorf("notifier calls = %d, want 2", notifier.calls)
	}
}

func TestOutboxWorker_ExhaustedRetriesStopDispatch(t *testing.T) {
	repo := repository.NewMemoryOutboxRepository()
	ctx := context.Background()

	built, buildErr := domain.NotificationIntent("res-001", "vendor-001", "hello", domain.SeverityWarning)
	intent := mustIntent(t, built, buildErr)
	if err := repo.Create(ctx, intent); err != nil {
		t.Fatalf("seeding intent: %v", err)
	}

	notifier := &mockNotifier{
		NotifyFunc: func(ctx context.Context, payload *domain.NotificationPayload) error {
			return errors.New("persistent failure")
		},
	}
	w := newTestWorker(repo, notifier, &mockTicketer{}, &mockAuditSink{})

	w.processPendingIntents(ctx)
	for i := 0; i < intent.MaxRetries+3; i++ {
		w.processFailedIntents(ctx)
	}

	// Once retries are exhausted the intent no longer surfaces.
	failed, _ := repo.GetFailed(ctx, 10)
	if len(failed) != 0 {
		t.Errorf("retriable intents after exhaustion = %d, want 0", len(failed))
	}
	if notifier.calls > intent.MaxRetries+1 {
		t.Errorf("notifier calls = %d, want at most %d", notifier.calls, intent.MaxRetries+1)
	}
}

func TestOutboxWorker_UnknownKindFails(t *testing.T) {
	repo := repository.NewMemoryOutboxRepository()
	ctx := context.Background()

	built, buildErr := domain.NotificationIntent("res-001", "vendor-001", "hello", domain.SeverityInfo)
	intent := mustIntent(t, built, buildErr)
	intent.Kind = domain.IntentKind("carrier-pigeon")
	if err := repo.Create(ctx, intent); err != nil {
		t.Fatalf("seeding intent: %v", err)
	}

	notifier := &mockNotifier{}
	w := newTestWorker(repo, notifier, &mockTicketer{}, &mockAuditSink{})
	w.processPendingIntents(ctx)

	if notifier.calls != 0 {
		t.Errorf("notifier calls = %d, want 0", notifier.calls)
	}
	failed, _ := repo.GetFailed(ctx, 10)
	if len(failed) != 1 {
		t.Errorf("failed intents = %d, want 1", len(failed))
	}
}
