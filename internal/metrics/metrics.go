package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/telemetry"
)

var (
	// Reservation counters
	ReservationsCreated   *telemetry.Counter
	ReservationsConfirmed *telemetry.Counter
	ReservationsExpired   *telemetry.Counter
	ReservationsCancelled *telemetry.Counter
	ReservationsFailed    *telemetry.Counter
	RefundsRequested      *telemetry.Counter
	RefundsSettled        *telemetry.Counter

	// Gate counters
	CheckIns          *telemetry.Counter
	CheckInsRejected  *telemetry.Counter
	CheckInsOverridden *telemetry.Counter

	// Pricing counters
	PricingFallbacks *telemetry.Counter

	// Outbox counters
	IntentsDispatched *telemetry.Counter
	IntentsFailed     *telemetry.Counter

	// Histograms
	PaymentDuration *telemetry.Histogram

	// Gauges
	ActiveHolds *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	ReservationsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "stall_reservations_total",
		Description: "Total number of stall reservations created",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReservationsConfirmed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "stall_reservation_confirmations_total",
		Description: "Total number of reservations confirmed as paid",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReservationsExpired, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "stall_reservation_expirations_total",
		Description: "Total number of payment holds expired",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReservationsCancelled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "stall_reservation_cancellations_total",
		Description: "Total number of cancelled reservations",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReservationsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "stall_reservation_failures_total",
		Description: "Total number of failed reservation attempts",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RefundsRequested, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "stall_refund_requests_total",
		Description: "Total number of refund requests",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RefundsSettled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "stall_refund_settlements_total",
		Description: "Total number of settled refunds",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	CheckIns, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gate_check_ins_total",
		Description: "Total number of admitted vendors",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	CheckInsRejected, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gate_check_in_rejections_total",
		Description: "Total number of rejected admissions",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	CheckInsOverridden, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "gate_check_in_overrides_total",
		Description: "Total number of supervisor-overridden admissions",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PricingFallbacks, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "pricing_fallbacks_total",
		Description: "Total number of stalls priced via the fallback path",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	IntentsDispatched, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "outbox_intents_dispatched_total",
		Description: "Total number of outbox intents executed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	IntentsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "outbox_intent_failures_total",
		Description: "Total number of outbox intent failures",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "stall_payment_duration_seconds",
		Description: "Duration from reservation to payment confirmation",
		Unit:        "s",
	}, []float64{10, 30, 60, 300, 600, 1800, 3600, 7200}) // 10s to 2h
	if err != nil {
		return err
	}

	ActiveHolds, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "stall_active_holds",
		Description: "Current number of PENDING_PAYMENT holds",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordReservation records a reservation batch metric
func RecordReservation(ctx context.Context, eventID string, count int) {
	if ReservationsCreated != nil {
		ReservationsCreated.Add(ctx, int64(count),
			attribute.String("event_id", eventID),
		)
	}
	if ActiveHolds != nil {
		ActiveHolds.Add(ctx, int64(count))
	}
}

// RecordConfirmation records a payment confirmation metric
func RecordConfirmation(ctx context.Context, eventID string, durationSeconds float64) {
	if ReservationsConfirmed != nil {
		ReservationsConfirmed.Inc(ctx,
			attribute.String("event_id", eventID),
		)
	}
	if PaymentDuration != nil {
		PaymentDuration.Record(ctx, durationSeconds,
			attribute.String("event_id", eventID),
		)
	}
	if ActiveHolds != nil {
		ActiveHolds.Dec(ctx)
	}
}

// RecordExpiration records an expired-hold metric
func RecordExpiration(ctx context.Context, count int64) {
	if ReservationsExpired != nil {
		ReservationsExpired.Add(ctx, count)
	}
	if ActiveHolds != nil {
		ActiveHolds.Add(ctx, -count)
	}
}

// RecordCancellation records a cancellation metric
func RecordCancellation(ctx context.Context, eventID string, byAdmin bool) {
	if ReservationsCancelled != nil {
		ReservationsCancelled.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.Bool("by_admin", byAdmin),
		)
	}
}

// RecordFailure records a failed reservation attempt
func RecordFailure(ctx context.Context, eventID, reason string) {
	if ReservationsFailed != nil {
		ReservationsFailed.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("reason", reason),
		)
	}
}

// RecordRefundRequest records a refund request metric
func RecordRefundRequest(ctx context.Context, eventID string) {
	if RefundsRequested != nil {
		RefundsRequested.Inc(ctx,
			attribute.String("event_id", eventID),
		)
	}
}

// RecordRefundSettlement records a settled refund metric
func RecordRefundSettlement(ctx context.Context, eventID string) {
	if RefundsSettled != nil {
		RefundsSettled.Inc(ctx,
			attribute.String("event_id", eventID),
		)
	}
}

// RecordCheckIn records an admission metric
func RecordCheckIn(ctx context.Context, overridden bool) {
	if CheckIns != nil {
		CheckIns.Inc(ctx)
	}
	if overridden && CheckInsOverridden != nil {
		CheckInsOverridden.Inc(ctx)
	}
}

// RecordCheckInRejection records a rejected admission metric
func RecordCheckInRejection(ctx context.Context, reason string) {
	if CheckInsRejected != nil {
		CheckInsRejected.Inc(ctx,
			attribute.String("reason", reason),
		)
	}
}

// RecordPricingFallback records a stall priced via the fallback path
func RecordPricingFallback(ctx context.Context, eventID string) {
	if PricingFallbacks != nil {
		PricingFallbacks.Inc(ctx,
			attribute.String("event_id", eventID),
		)
	}
}

// RecordIntentDispatch records an executed outbox intent
func RecordIntentDispatch(ctx context.Context, kind string) {
	if IntentsDispatched != nil {
		IntentsDispatched.Inc(ctx,
			attribute.String("kind", kind),
		)
	}
}

// RecordIntentFailure records a failed outbox intent
func RecordIntentFailure(ctx context.Context, kind string) {
	if IntentsFailed != nil {
		IntentsFailed.Inc(ctx,
			attribute.String("kind", kind),
		)
	}
}
