package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"

	"github.com/StereoSachiiii/SA-PROJECT-V1/pkg/retry"
)

// StripeGateway implements PaymentGateway using Stripe
type StripeGateway struct {
	config  *StripeGatewayConfig
	retrier *retry.Retrier
}

// StripeGatewayConfig holds configuration for Stripe gateway
type StripeGatewayConfig struct {
	SecretKey   string
	Environment string // "test" or "live"
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	// Set Stripe API key globally
	stripe.Key = config.SecretKey

	return &StripeGateway{
		config: config,
		retrier: retry.New(&retry.Config{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.2,
		}),
	}, nil
}

// classify marks transient Stripe failures retryable and everything else
// permanent. Card declines and bad requests never succeed on retry.
func classify(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeAPI:
			return retry.Retryable(err)
		default:
			return retry.Permanent(err)
		}
	}
	// Non-Stripe errors are transport failures.
	return retry.Retryable(err)
}

// finalErr prefers the last attempt's error over the retrier's sentinel
func finalErr(result *retry.Result) error {
	if result.LastError != nil {
		return result.LastError
	}
	return result.Err
}

// CreateIntent opens a Stripe PaymentIntent for a reservation batch
func (g *StripeGateway) CreateIntent(ctx context.Context, req *CreateIntentRequest) (*IntentResult, error) {
	if req == nil {
		return nil, fmt.Errorf("create intent request is required")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"reservation_id": req.ReservationID,
			"vendor_id":      req.VendorID,
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &IntentResult{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       IntentStatus(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// RetrieveIntent fetches the current state of a PaymentIntent. The settled
// amount comes from AmountReceived, not the requested amount.
func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*IntentResult, error) {
	if intentID == "" {
		return nil, fmt.Errorf("payment intent ID is required")
	}

	var pi *stripe.PaymentIntent
	result := g.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		pi, err = paymentintent.Get(intentID, nil)
		if err != nil {
			return classify(err)
		}
		return nil
	})
	if result.Err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", finalErr(result))
	}

	amount := pi.Amount
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		amount = pi.AmountReceived
	}

	return &IntentResult{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       IntentStatus(pi.Status),
		AmountCents:  amount,
		Currency:     string(pi.Currency),
	}, nil
}

// RefundIntent refunds a settled PaymentIntent
func (g *StripeGateway) RefundIntent(ctx context.Context, intentID string, amountCents int64) error {
	if intentID == "" {
		return fmt.Errorf("payment intent ID is required")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(amountCents),
	}
	// The idempotency key makes retried refunds safe: Stripe replays the
	// original response instead of refunding twice.
	params.SetIdempotencyKey("refund-" + intentID)

	result := g.retrier.Do(ctx, func(ctx context.Context) error {
		if _, err := refund.New(params); err != nil {
			return classify(err)
		}
		return nil
	})
	if result.Err != nil {
		return fmt.Errorf("failed to create refund: %w", finalErr(result))
	}

	return nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}

// Ensure StripeGateway implements PaymentGateway
var _ PaymentGateway = (*StripeGateway)(nil)
