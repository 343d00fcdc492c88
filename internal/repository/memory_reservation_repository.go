package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
)

// MemoryReservationRepository implements ReservationRepository using
// in-memory storage. This is useful for testing and development; the single
// mutex gives it the same all-or-nothing semantics as the transactional
// Postgres implementation.
type MemoryReservationRepository struct {
	reservations map[string]*domain.Reservation
	byQRToken    map[string]string // qrToken -> reservationID
	byStall      map[string]string // eventStallID -> active reservationID
	stalls       map[string]*memoryStall
	outbox       *MemoryOutboxRepository
	mu           sync.Mutex
}

type memoryStall struct {
	eventID    string
	priceCents int64
	status     domain.EventStallStatus
}

// NewMemoryReservationRepository creates a new in-memory reservation repository
func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{
		reservations: make(map[string]*domain.Reservation),
		byQRToken:    make(map[string]string),
		byStall:      make(map[string]string),
		stalls:       make(map[string]*memoryStall),
		outbox:       NewMemoryOutboxRepository(),
	}
}

// SeedStall registers an available stall with its current final price
func (r *MemoryReservationRepository) SeedStall(id, eventID string, priceCents int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stalls[id] = &memoryStall{
		eventID:    eventID,
		priceCents: priceCents,
		status:     domain.EventStallAvailable,
	}
}

// StallStatus reports the seeded stall's current status
func (r *MemoryReservationRepository) StallStatus(id string) (domain.EventStallStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stall, ok := r.stalls[id]
	if !ok {
		return "", false
	}
	return stall.status, true
}

// Intents returns the intents enqueued so far
func (r *MemoryReservationRepository) Intents() []*domain.OutboxIntent {
	intents, _ := r.outbox.GetPending(context.Background(), 1000)
	return intents
}

// Outbox exposes the backing outbox repository for wiring into services
func (r *MemoryReservationRepository) Outbox() *MemoryOutboxRepository {
	return r.outbox
}

// CreateBatch atomically creates one reservation per requested stall
func (r *MemoryReservationRepository) CreateBatch(ctx context.Context, params CreateBatchParams) ([]*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := r.countNonTerminalLocked(params.VendorID, params.EventID)
	if active+len(params.EventStallIDs) > params.Quota {
		return nil, fmt.Errorf("%w: %d active + %d requested > %d",
			domain.ErrQuotaExceeded, active, len(params.EventStallIDs), params.Quota)
	}

	stallIDs := append([]string(nil), params.EventStallIDs...)
	sort.Strings(stallIDs)

	for _, id := range stallIDs {
		stall, ok := r.stalls[id]
		if !ok || stall.eventID != params.EventID {
			return nil, fmt.Errorf("%w: %s", domain.ErrEventStallNotFound, id)
		}
		if stall.status != domain.EventStallAvailable {
			return nil, fmt.Errorf("%w: stall %s is %s", domain.ErrStallConflict, id, stall.status)
		}
		if _, taken := r.byStall[id]; taken {
			return nil, fmt.Errorf("%w: stall %s", domain.ErrStallConflict, id)
		}
	}

	reservations := make([]*domain.Reservation, 0, len(params.EventStallIDs))
	for _, stallID := range params.EventStallIDs {
		res := domain.NewReservation(params.VendorID, params.EventID, stallID, r.stalls[stallID].priceCents)

		stored := *res
		r.reservations[res.ID] = &stored
		r.byQRToken[res.QRToken] = res.ID
		r.byStall[stallID] = res.ID
		r.stalls[stallID].status = domain.EventStallReserved

		reservations = append(reservations, res)
	}

	intent, err := domain.NotificationIntent(reservations[0].ID, params.VendorID, fmt.Sprintf(
		"Reserved %d stall(s). Complete payment before the hold expires.",
		len(reservations)), domain.SeverityInfo)
	if err != nil {
		return nil, err
	}
	if err := r.outbox.Create(ctx, intent); err != nil {
		return nil, err
	}

	return reservations, nil
}

// GetByID retrieves a reservation by its ID
func (r *MemoryReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(id)
}

// GetByQRTokenOrID resolves a gate lookup key
func (r *MemoryReservationRepository) GetByQRTokenOrID(ctx context.Context, key string) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byQRToken[key]; ok {
		return r.getLocked(id)
	}
	return r.getLocked(key)
}

// ListByVendor lists a vendor's reservations, newest first
func (r *MemoryReservationRepository) ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []*domain.Reservation
	for _, res := range r.reservations {
		if res.VendorID == vendorID {
			clone := *res
			all = append(all, &clone)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// CountNonTerminal counts a vendor's active reservations for an event
func (r *MemoryReservationRepository) CountNonTerminal(ctx context.Context, vendorID, eventID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countNonTerminalLocked(vendorID, eventID), nil
}

// Confirm transitions PENDING_PAYMENT -> PAID
func (r *MemoryReservationRepository) Confirm(ctx context.Context, id, paymentIntentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.getStoredLocked(id)
	if err != nil {
		return err
	}
	if res.Status == domain.ReservationPaid {
		return domain.ErrAlreadyPaid
	}
	if err := res.ConfirmPayment(paymentIntentID); err != nil {
		return err
	}

	intent, err := domain.TicketIntent(res.VendorID, []string{res.ID})
	if err != nil {
		return err
	}
	return r.outbox.Create(ctx, intent)
}

// Cancel transitions to CANCELLED and releases the stall
func (r *MemoryReservationRepository) Cancel(ctx context.Context, id string, asAdmin bool, warnOwner bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.getStoredLocked(id)
	if err != nil {
		return err
	}
	if err := res.Cancel(asAdmin); err != nil {
		return err
	}
	r.releaseStallLocked(res.EventStallID)

	if warnOwner {
		intent, err := domain.NotificationIntent(res.ID, res.VendorID,
			"Your reservation was cancelled by an operator.", domain.SeverityWarning)
		if err != nil {
			return err
		}
		return r.outbox.Create(ctx, intent)
	}
	return nil
}

// RequestRefund transitions PAID -> PENDING_REFUND
func (r *MemoryReservationRepository) RequestRefund(ctx context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.getStoredLocked(id)
	if err != nil {
		return err
	}
	return res.RequestRefund(reason)
}

// SettleRefund transitions PAID or PENDING_REFUND -> CANCELLED
func (r *MemoryReservationRepository) SettleRefund(ctx context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.getStoredLocked(id)
	if err != nil {
		return err
	}
	if err := res.SettleRefund(reason); err != nil {
		return err
	}
	r.releaseStallLocked(res.EventStallID)
	return nil
}

// GetExpired returns stale PENDING_PAYMENT reservations
func (r *MemoryReservationRepository) GetExpired(ctx context.Context, cutoffSeconds int, limit int) ([]*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(cutoffSeconds) * time.Second)
	var expired []*domain.Reservation
	for _, res := range r.reservations {
		if res.Status == domain.ReservationPendingPayment && res.CreatedAt.Before(cutoff) {
			clone := *res
			expired = append(expired, &clone)
			if len(expired) >= limit {
				break
			}
		}
	}
	return expired, nil
}

// MarkExpired transitions PENDING_PAYMENT -> EXPIRED
func (r *MemoryReservationRepository) MarkExpired(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.getStoredLocked(id)
	if err != nil {
		return err
	}
	if err := res.Expire(); err != nil {
		return err
	}
	r.releaseStallLocked(res.EventStallID)
	return nil
}

// SetEmailSent flips the email-sent flag
func (r *MemoryReservationRepository) SetEmailSent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.getStoredLocked(id)
	if err != nil {
		return err
	}
	res.EmailSent = true
	return nil
}

// AttachPaymentIntent records the gateway intent id
func (r *MemoryReservationRepository) AttachPaymentIntent(ctx context.Context, id, intentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.getStoredLocked(id)
	if err != nil {
		return err
	}
	if res.Status != domain.ReservationPendingPayment {
		return domain.ErrInvalidTransition
	}
	res.PaymentIntentID = intentID
	return nil
}

func (r *MemoryReservationRepository) getLocked(id string) (*domain.Reservation, error) {
	res, ok := r.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	clone := *res
	return &clone, nil
}

func (r *MemoryReservationRepository) getStoredLocked(id string) (*domain.Reservation, error) {
	res, ok := r.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return res, nil
}

func (r *MemoryReservationRepository) countNonTerminalLocked(vendorID, eventID string) int {
	count := 0
	for _, res := range r.reservations {
		if res.VendorID == vendorID && res.EventID == eventID && !res.Status.IsTerminal() {
			count++
		}
	}
	return count
}

func (r *MemoryReservationRepository) releaseStallLocked(stallID string) {
	delete(r.byStall, stallID)
	if stall, ok := r.stalls[stallID]; ok {
		stall.status = domain.EventStallAvailable
	}
}

// MemoryOutboxRepository implements OutboxRepository using in-memory storage
type MemoryOutboxRepository struct {
	intents []*domain.OutboxIntent
	mu      sync.Mutex
}

// NewMemoryOutboxRepository creates a new in-memory outbox repository
func NewMemoryOutboxRepository() *MemoryOutboxRepository {
	return &MemoryOutboxRepository{}
}

// Create stores a new intent
func (r *MemoryOutboxRepository) Create(ctx context.Context, intent *domain.OutboxIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *intent
	r.intents = append(r.intents, &clone)
	return nil
}

// CreateTx stores a new intent; the in-memory store has no transactions
func (r *MemoryOutboxRepository) CreateTx(ctx context.Context, tx pgx.Tx, intent *domain.OutboxIntent) error {
	return r.Create(ctx, intent)
}

// GetPending returns pending intents
func (r *MemoryOutboxRepository) GetPending(ctx context.Context, limit int) ([]*domain.OutboxIntent, error) {
	return r.filter(limit, func(i *domain.OutboxIntent) bool {
		return i.Status == domain.OutboxStatusPending
	})
}

// GetFailed returns retriable failed intents
func (r *MemoryOutboxRepository) GetFailed(ctx context.Context, limit int) ([]*domain.OutboxIntent, error) {
	return r.filter(limit, func(i *domain.OutboxIntent) bool {
		return i.CanRetry()
	})
}

// MarkAsPublished marks an intent as executed
func (r *MemoryOutboxRepository) MarkAsPublished(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.intents {
		if i.ID == id {
			i.MarkAsPublished()
			return nil
		}
	}
	return fmt.Errorf("outbox intent not found: %s", id)
}

// MarkAsFailed records a sink failure
func (r *MemoryOutboxRepository) MarkAsFailed(ctx context.Context, id string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.intents {
		if i.ID == id {
			i.MarkAsFailed(errMsg)
			return nil
		}
	}
	return fmt.Errorf("outbox intent not found: %s", id)
}

// DeletePublished drops old executed intents
func (r *MemoryOutboxRepository) DeletePublished(ctx context.Context, olderThanDays int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	var kept []*domain.OutboxIntent
	var deleted int64
	for _, i := range r.intents {
		if i.Status == domain.OutboxStatusPublished && i.ProcessedAt != nil && i.ProcessedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, i)
	}
	r.intents = kept
	return deleted, nil
}

func (r *MemoryOutboxRepository) filter(limit int, keep func(*domain.OutboxIntent) bool) ([]*domain.OutboxIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.OutboxIntent
	for _, i := range r.intents {
		if keep(i) {
			clone := *i
			out = append(out, &clone)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// Ensure the in-memory repositories implement their interfaces
var (
	_ ReservationRepository = (*MemoryReservationRepository)(nil)
	_ OutboxRepository      = (*MemoryOutboxRepository)(nil)
)
