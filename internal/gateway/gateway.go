package gateway

import "context"

// IntentStatus mirrors the processor's payment intent lifecycle
type IntentStatus string

const (
	IntentStatusRequiresPayment IntentStatus = "requires_payment_method"
	IntentStatusProcessing      IntentStatus = "processing"
	IntentStatusSucceeded       IntentStatus = "succeeded"
	IntentStatusCanceled        IntentStatus = "canceled"
)

// IntentResult is the processor's view of a payment intent
type IntentResult struct {
	IntentID     string
	ClientSecret string
	Status       IntentStatus
	AmountCents  int64
	Currency     string
}

// CreateIntentRequest asks the processor to open a payment intent for a
// reservation batch.
type CreateIntentRequest struct {
	ReservationID string
	VendorID      string
	AmountCents   int64
	Currency      string
	Description   string
}

// PaymentGateway abstracts the payment processor. Payment verification reads
// the intent back from the processor instead of trusting client-supplied
// amounts.
type PaymentGateway interface {
	// CreateIntent opens a payment intent and returns the client secret the
	// vendor's browser uses to complete payment.
	CreateIntent(ctx context.Context, req *CreateIntentRequest) (*IntentResult, error)

	// RetrieveIntent fetches the current status and settled amount of an
	// intent.
	RetrieveIntent(ctx context.Context, intentID string) (*IntentResult, error)

	// RefundIntent refunds a settled intent in full.
	RefundIntent(ctx context.Context, intentID string, amountCents int64) error

	// Name returns the gateway name
	Name() string
}
