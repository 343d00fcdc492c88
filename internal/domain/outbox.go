package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus represents the status of an outbox intent
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// IsValid checks if the status is a valid OutboxStatus
func (s OutboxStatus) IsValid() bool {
	switch s {
	case OutboxStatusPending, OutboxStatusPublished, OutboxStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of OutboxStatus
func (s OutboxStatus) String() string {
	return string(s)
}

// IntentKind selects which sink executes an outbox intent
type IntentKind string

const (
	IntentNotification IntentKind = "notification"
	IntentTicket       IntentKind = "ticket"
	IntentAudit        IntentKind = "audit"
)

// OutboxIntent is a side-effect request written in the same transaction as
// the state change that caused it. A dispatcher worker executes intents after
// commit; sink failures never roll back the originating transaction.
type OutboxIntent struct {
	ID          string       `json:"id"`
	Kind        IntentKind   `json:"kind"`
	AggregateID string       `json:"aggregate_id"` // reservation or stall id
	Payload     []byte       `json:"payload"`
	Status      OutboxStatus `json:"status"`
	RetryCount  int          `json:"retry_count"`
	MaxRetries  int          `json:"max_retries"`
	LastError   string       `json:"last_error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
}

// NewOutboxIntent creates a pending intent with a JSON-encoded payload.
func NewOutboxIntent(kind IntentKind, aggregateID string, payload interface{}) (*OutboxIntent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxIntent{
		ID:          uuid.New().String(),
		Kind:        kind,
		AggregateID: aggregateID,
		Payload:     raw,
		Status:      OutboxStatusPending,
		MaxRetries:  5,
		CreatedAt:   time.Now(),
	}, nil
}

// CanRetry checks if the intent can be retried
func (m *OutboxIntent) CanRetry() bool {
	return m.Status == OutboxStatusFailed && m.RetryCount < m.MaxRetries
}

// MarkAsPublished marks the intent as successfully executed
func (m *OutboxIntent) MarkAsPublished() {
	now := time.Now()
	m.Status = OutboxStatusPublished
	m.ProcessedAt = &now
}

// MarkAsFailed records a sink failure
func (m *OutboxIntent) MarkAsFailed(errMsg string) {
	now := time.Now()
	m.Status = OutboxStatusFailed
	m.LastError = errMsg
	m.RetryCount++
	m.ProcessedAt = &now
}

// GetPayload unmarshals the payload into the given value
func (m *OutboxIntent) GetPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// Severity grades a notification
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeveritySuccess Severity = "SUCCESS"
)

// NotificationPayload is the payload of an IntentNotification intent.
type NotificationPayload struct {
	UserID   string   `json:"user_id"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// TicketPayload is the payload of an IntentTicket intent. The dispatcher
// renders one QR pass per reservation and mails them to the vendor.
type TicketPayload struct {
	VendorID       string   `json:"vendor_id"`
	ReservationIDs []string `json:"reservation_ids"`
}

// AuditPayload is the payload of an IntentAudit intent.
type AuditPayload struct {
	Action     string            `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NotificationIntent builds a notification intent for a user.
func NotificationIntent(aggregateID, userID, message string, severity Severity) (*OutboxIntent, error) {
	return NewOutboxIntent(IntentNotification, aggregateID, NotificationPayload{
		UserID:   userID,
		Message:  message,
		Severity: severity,
	})
}

// TicketIntent builds a ticket-issuance intent for a vendor's reservations.
func TicketIntent(vendorID string, reservationIDs []string) (*OutboxIntent, error) {
	agg := vendorID
	if len(reservationIDs) > 0 {
		agg = reservationIDs[0]
	}
	return NewOutboxIntent(IntentTicket, agg, TicketPayload{
		VendorID:       vendorID,
		ReservationIDs: reservationIDs,
	})
}

// AuditIntent builds an audit-trail intent.
func AuditIntent(action, entityType, entityID string, metadata map[string]string) (*OutboxIntent, error) {
	return NewOutboxIntent(IntentAudit, entityID, AuditPayload{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
	})
}
