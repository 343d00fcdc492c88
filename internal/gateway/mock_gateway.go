package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// alphanumericChars for generating processor-compatible IDs
const alphanumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomAlphanumeric generates a random alphanumeric string of given length
func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumericChars[rand.Intn(len(alphanumericChars))]
	}
	return string(b)
}

// MockGateway implements PaymentGateway for testing and development. Created
// intents start in requires_payment_method; tests settle them with
// SettleIntent to simulate the vendor completing payment.
type MockGateway struct {
	config  *MockGatewayConfig
	intents sync.Map // intentID -> *IntentResult
}

// MockGatewayConfig holds configuration for the mock gateway
type MockGatewayConfig struct {
	// DelayMs is the simulated processing delay in milliseconds
	DelayMs int

	// AutoSettle immediately moves created intents to succeeded. Load tests
	// use this to skip the client confirmation step.
	AutoSettle bool
}

// DefaultMockGatewayConfig returns default configuration
func DefaultMockGatewayConfig() *MockGatewayConfig {
	return &MockGatewayConfig{
		DelayMs: 50,
	}
}

// NewMockGateway creates a new mock gateway
func NewMockGateway(config *MockGatewayConfig) *MockGateway {
	if config == nil {
		config = DefaultMockGatewayConfig()
	}
	return &MockGateway{config: config}
}

// CreateIntent opens a simulated payment intent
func (g *MockGateway) CreateIntent(ctx context.Context, req *CreateIntentRequest) (*IntentResult, error) {
	if req == nil {
		return nil, fmt.Errorf("create intent request is required")
	}

	g.delay(ctx)

	status := IntentStatusRequiresPayment
	if g.config.AutoSettle {
		status = IntentStatusSucceeded
	}

	result := &IntentResult{
		IntentID:     "pi_mock_" + randomAlphanumeric(24),
		ClientSecret: "pi_mock_secret_" + randomAlphanumeric(24),
		Status:       status,
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
	}
	g.intents.Store(result.IntentID, result)

	return result, nil
}

// RetrieveIntent fetches a simulated intent
func (g *MockGateway) RetrieveIntent(ctx context.Context, intentID string) (*IntentResult, error) {
	g.delay(ctx)

	v, ok := g.intents.Load(intentID)
	if !ok {
		return nil, fmt.Errorf("payment intent not found: %s", intentID)
	}

	result := *v.(*IntentResult)
	return &result, nil
}

// RefundIntent refunds a settled simulated intent
func (g *MockGateway) RefundIntent(ctx context.Context, intentID string, amountCents int64) error {
	g.delay(ctx)

	v, ok := g.intents.Load(intentID)
	if !ok {
		return fmt.Errorf("payment intent not found: %s", intentID)
	}
	if v.(*IntentResult).Status != IntentStatusSucceeded {
		return fmt.Errorf("payment intent not settled: %s", intentID)
	}

	return nil
}

// SettleIntent moves an intent to the given terminal state with the given
// settled amount. Tests use this to simulate client-side payment completion,
// including partial settlements.
func (g *MockGateway) SettleIntent(intentID string, status IntentStatus, amountCents int64) error {
	v, ok := g.intents.Load(intentID)
	if !ok {
		return fmt.Errorf("payment intent not found: %s", intentID)
	}

	result := *v.(*IntentResult)
	result.Status = status
	result.AmountCents = amountCents
	g.intents.Store(intentID, &result)

	return nil
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}

func (g *MockGateway) delay(ctx context.Context) {
	if g.config.DelayMs <= 0 {
		return
	}
	select {
	case <-time.After(time.Duration(g.config.DelayMs) * time.Millisecond):
	case <-ctx.Done():
	}
}

// Ensure MockGateway implements PaymentGateway
var _ PaymentGateway = (*MockGateway)(nil)
