package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
)

// MockGateway implements PaymentGateway for testing, development and load
// testing. Orders and payments live in memory; tests drive capture
// explicitly through Capture and RegisterPayment.
type MockGateway struct {
	config   *MockGatewayConfig
	orders   sync.Map // orderID -> *Order
	payments sync.Map // paymentID -> *Payment
	refunds  sync.Map // paymentID -> *RefundResult
	mu       sync.RWMutex
}

// MockGatewayConfig holds configuration for the mock gateway
type MockGatewayConfig struct {
	// SuccessRate is the probability a Capture produces a captured
	// payment (0.0 to 1.0)
	SuccessRate float64

	// DelayMs is the simulated processing delay in milliseconds
	DelayMs int

	// Secret signs payment callbacks, mirroring the real providers
	Secret string
}

// DefaultMockGatewayConfig returns default configuration
func DefaultMockGatewayConfig() *MockGatewayConfig {
	return &MockGatewayConfig{
		SuccessRate: 1.0,
		DelayMs:     0,
		Secret:      "mock-gateway-secret",
	}
}

// NewMockGateway creates a new mock gateway
func NewMockGateway(config *MockGatewayConfig) *MockGateway {
	if config == nil {
		config = DefaultMockGatewayConfig()
	}
	if config.SuccessRate < 0 {
		config.SuccessRate = 0
	}
	if config.SuccessRate > 1 {
		config.SuccessRate = 1
	}
	if config.Secret == "" {
		config.Secret = "mock-gateway-secret"
	}

	return &MockGateway{config: config}
}

// CreateOrder opens a mock order
func (g *MockGateway) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error) {
	if req == nil {
		return nil, fmt.Errorf("create order request is required")
	}

	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	order := &Order{
		ID:       fmt.Sprintf("order_mock_%s", uuid.New().String()[:12]),
		Amount:   toMinorUnits(req.Amount),
		Currency: currency,
		Status:   "created",
		Provider: g.Name(),
	}
	g.orders.Store(order.ID, order)

	return order, nil
}

// FetchPayment retrieves a previously captured or registered mock payment
func (g *MockGateway) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment id is required")
	}

	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	value, ok := g.payments.Load(paymentID)
	if !ok {
		return nil, fmt.Errorf("%w: mock payment not found: %s", domain.ErrPaymentLookupFailed, paymentID)
	}

	payment := *value.(*Payment)
	return &payment, nil
}

// Refund marks a mock payment refunded
func (g *MockGateway) Refund(ctx context.Context, paymentID string, amount float64) (*RefundResult, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment id is required")
	}

	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	if _, ok := g.payments.Load(paymentID); !ok {
		return nil, fmt.Errorf("%w: mock payment not found: %s", domain.ErrGatewayUnavailable, paymentID)
	}

	result := &RefundResult{
		ID:        fmt.Sprintf("rfnd_mock_%s", uuid.New().String()[:12]),
		PaymentID: paymentID,
		Amount:    amount,
		Status:    "processed",
	}
	g.refunds.Store(paymentID, result)

	return result, nil
}

// VerifySignature checks the HMAC callback signature under the mock secret
func (g *MockGateway) VerifySignature(orderID, paymentID, signature string) error {
	expected := signPayment(g.config.Secret, orderID, paymentID)
	if !signatureMatches(expected, signature) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}

// Capture simulates the client completing payment on an order. The
// resulting payment is captured with probability SuccessRate.
func (g *MockGateway) Capture(orderID string) (*Payment, error) {
	value, ok := g.orders.Load(orderID)
	if !ok {
		return nil, fmt.Errorf("mock order not found: %s", orderID)
	}
	order := value.(*Order)

	captured := rand.Float64() < g.successRate()

	payment := &Payment{
		ID:       fmt.Sprintf("pay_mock_%s", uuid.New().String()[:12]),
		OrderID:  orderID,
		Amount:   fromMinorUnits(order.Amount),
		Currency: order.Currency,
		Method:   "card",
		Captured: captured,
	}
	if captured {
		payment.Status = "captured"
	} else {
		payment.Status = "failed"
	}
	g.payments.Store(payment.ID, payment)

	return payment, nil
}

// RegisterPayment injects a payment in a chosen state (for testing)
func (g *MockGateway) RegisterPayment(payment *Payment) {
	p := *payment
	g.payments.Store(payment.ID, &p)
}

// Sign produces a valid callback signature for a payment (for testing)
func (g *MockGateway) Sign(orderID, paymentID string) string {
	return signPayment(g.config.Secret, orderID, paymentID)
}

// RefundedAmount reports the refunded amount for a payment (for testing)
func (g *MockGateway) RefundedAmount(paymentID string) float64 {
	if value, ok := g.refunds.Load(paymentID); ok {
		return value.(*RefundResult).Amount
	}
	return 0
}

// SetSuccessRate updates the capture success rate
func (g *MockGateway) SetSuccessRate(rate float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	g.config.SuccessRate = rate
}

func (g *MockGateway) successRate() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.config.SuccessRate
}

func (g *MockGateway) delay(ctx context.Context) error {
	if g.config.DelayMs <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(g.config.DelayMs) * time.Millisecond):
		return nil
	}
}

// Ensure MockGateway implements PaymentGateway
var _ PaymentGateway = (*MockGateway)(nil)
