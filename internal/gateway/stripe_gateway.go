package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/retry"
)

// StripeGateway implements PaymentGateway using Stripe PaymentIntents.
// The "order" here is the PaymentIntent itself.
type StripeGateway struct {
	config  *StripeGatewayConfig
	retrier *retry.Retrier
}

// StripeGatewayConfig holds configuration for the Stripe gateway
type StripeGatewayConfig struct {
	SecretKey string
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	stripe.Key = config.SecretKey

	return &StripeGateway{
		config: config,
		retrier: retry.New(&retry.Config{
			MaxRetries:      2,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2,
			JitterFactor:    0.1,
		}),
	}, nil
}

// CreateOrder creates a Stripe PaymentIntent for the given amount
func (g *StripeGateway) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error) {
	if req == nil {
		return nil, fmt.Errorf("create order request is required")
	}

	currency := req.Currency
	if currency == "" {
		currency = "inr"
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(req.Amount)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: make(map[string]string),
	}
	if req.Receipt != "" {
		params.Metadata["receipt"] = req.Receipt
	}
	for k, v := range req.Notes {
		params.Metadata[k] = v
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe payment intent create: %v", domain.ErrGatewayUnavailable, err)
	}

	return &Order{
		ID:       pi.ID,
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
		Status:   string(pi.Status),
		Provider: g.Name(),
	}, nil
}

// FetchPayment retrieves a Stripe PaymentIntent. Stripe has no separate
// payment object for this flow, so the intent id doubles as the payment id.
func (g *StripeGateway) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment id is required")
	}

	// The intent fetch is read-only and safe to retry; create and refund
	// are not retried to avoid duplicates.
	var pi *stripe.PaymentIntent
	err := g.retrier.Do(ctx, func(ctx context.Context) error {
		var gerr error
		pi, gerr = paymentintent.Get(paymentID, nil)
		return gerr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: stripe payment intent get: %v", domain.ErrPaymentLookupFailed, err)
	}

	return &Payment{
		ID:       pi.ID,
		OrderID:  pi.ID,
		Amount:   fromMinorUnits(pi.Amount),
		Currency: string(pi.Currency),
		Status:   string(pi.Status),
		Captured: pi.Status == stripe.PaymentIntentStatusSucceeded,
	}, nil
}

// Refund returns a captured Stripe payment
func (g *StripeGateway) Refund(ctx context.Context, paymentID string, amount float64) (*RefundResult, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment id is required")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentID),
		Amount:        stripe.Int64(toMinorUnits(amount)),
	}

	ref, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe refund: %v", domain.ErrGatewayUnavailable, err)
	}

	return &RefundResult{
		ID:        ref.ID,
		PaymentID: paymentID,
		Amount:    fromMinorUnits(ref.Amount),
		Status:    string(ref.Status),
	}, nil
}

// VerifySignature is a no-op for Stripe: the PaymentIntent is fetched
// server-side with the secret key, which already authenticates it.
func (g *StripeGateway) VerifySignature(orderID, paymentID, signature string) error {
	return nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}

// Ensure StripeGateway implements PaymentGateway
var _ PaymentGateway = (*StripeGateway)(nil)
