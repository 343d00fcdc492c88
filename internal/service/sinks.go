package service

import (
	"context"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/domain"
	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/repository"
	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/logger"
)

// Notifier delivers a notification to a user
type Notifier interface {
	Notify(ctx context.Context, payload *domain.NotificationPayload) error
}

// Ticketer issues entry passes for paid reservations
type Ticketer interface {
	IssueTickets(ctx context.Context, payload *domain.TicketPayload) error
}

// AuditSink records operator actions
type AuditSink interface {
	Record(ctx context.Context, payload *domain.AuditPayload) error
}

// LogNotifier writes notifications to the structured log. Stands in for a
// push or email channel in development and tests.
type LogNotifier struct{}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the notification
func (n *LogNotifier) Notify(ctx context.Context, payload *domain.NotificationPayload) error {
	logger.Get().Info("notification",
		zap.String("user_id", payload.UserID),
		zap.String("severity", string(payload.Severity)),
		zap.String("message", payload.Message),
	)
	return nil
}

// MailSender sends a rendered ticket email with QR attachments
type MailSender interface {
	SendTickets(ctx context.Context, vendorID string, passes []*TicketPass) error
}

// TicketPass is one rendered entry pass
type TicketPass struct {
	ReservationID string
	QRToken       string
	PNG           []byte
}

// QRTicketer renders a QR entry pass per reservation and hands the batch to
// a mail sender, then flips the email-sent flag.
type QRTicketer struct {
	reservations repository.ReservationRepository
	sender       MailSender
	pngSize      int
}

// NewQRTicketer creates a new QRTicketer
func NewQRTicketer(reservations repository.ReservationRepository, sender MailSender) *QRTicketer {
	return &QRTicketer{
		reservations: reservations,
		sender:       sender,
		pngSize:      256,
	}
}

// IssueTickets renders and delivers passes for every reservation in the
// payload. Delivery is all-or-nothing so a retried intent re-sends the whole
// batch rather than a partial one.
func (t *QRTicketer) IssueTickets(ctx context.Context, payload *domain.TicketPayload) error {
	passes := make([]*TicketPass, 0, len(payload.ReservationIDs))
	for _, id := range payload.ReservationIDs {
		res, err := t.reservations.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load reservation %s: %w", id, err)
		}

		png, err := qrcode.Encode(res.QRToken, qrcode.Medium, t.pngSize)
		if err != nil {
			return fmt.Errorf("failed to render QR pass for %s: %w", id, err)
		}

		passes = append(passes, &TicketPass{
			ReservationID: res.ID,
			QRToken:       res.QRToken,
			PNG:           png,
		})
	}

	if err := t.sender.SendTickets(ctx, payload.VendorID, passes); err != nil {
		return fmt.Errorf("failed to send tickets: %w", err)
	}

	for _, pass := range passes {
		if err := t.reservations.SetEmailSent(ctx, pass.ReservationID); err != nil {
			logger.Get().Warn("failed to flag ticket email as sent",
				zap.String("reservation_id", pass.ReservationID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// LogMailSender logs outgoing ticket mail instead of sending it
type LogMailSender struct{}

// NewLogMailSender creates a new LogMailSender
func NewLogMailSender() *LogMailSender {
	return &LogMailSender{}
}

// SendTickets logs the delivery
func (s *LogMailSender) SendTickets(ctx context.Context, vendorID string, passes []*TicketPass) error {
	logger.Get().Info("ticket email",
		zap.String("vendor_id", vendorID),
		zap.Int("passes", len(passes)),
	)
	return nil
}

// LogAuditSink writes audit records to the structured log
type LogAuditSink struct{}

// NewLogAuditSink creates a new LogAuditSink
func NewLogAuditSink() *LogAuditSink {
	return &LogAuditSink{}
}

// Record logs the audit entry
func (s *LogAuditSink) Record(ctx context.Context, payload *domain.AuditPayload) error {
	logger.Get().Info("audit",
		zap.String("action", payload.Action),
		zap.String("entity_type", payload.EntityType),
		zap.String("entity_id", payload.EntityID),
		zap.Any("metadata", payload.Metadata),
	)
	return nil
}
