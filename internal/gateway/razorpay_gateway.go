package gateway

import (
	"context"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/retry"
)

// RazorpayGateway implements PaymentGateway using Razorpay
type RazorpayGateway struct {
	client  *razorpay.Client
	config  *RazorpayGatewayConfig
	retrier *retry.Retrier
}

// RazorpayGatewayConfig holds configuration for the Razorpay gateway
type RazorpayGatewayConfig struct {
	KeyID  string
	Secret string
}

// NewRazorpayGateway creates a new Razorpay gateway
func NewRazorpayGateway(config *RazorpayGatewayConfig) (*RazorpayGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("razorpay config is required")
	}
	if config.KeyID == "" || config.Secret == "" {
		return nil, fmt.Errorf("razorpay key id and secret are required")
	}

	return &RazorpayGateway{
		client: razorpay.NewClient(config.KeyID, config.Secret),
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

// CreateOrder opens a Razorpay order for the given amount
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error) {
	if req == nil {
		return nil, fmt.Errorf("create order request is required")
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	data := map[string]interface{}{
		"amount":   toMinorUnits(req.Amount),
		"currency": currency,
	}
	if req.Receipt != "" {
		data["receipt"] = req.Receipt
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: razorpay order create: %v", domain.ErrGatewayUnavailable, err)
	}

	order := &Order{
		Currency: currency,
		Amount:   toMinorUnits(req.Amount),
		Provider: g.Name(),
	}
	if id, ok := body["id"].(string); ok {
		order.ID = id
	}
	if status, ok := body["status"].(string); ok {
		order.Status = status
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: razorpay order response missing id", domain.ErrGatewayUnavailable)
	}

	return order, nil
}

// FetchPayment retrieves the authoritative state of a Razorpay payment
func (g *RazorpayGateway) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment id is required")
	}

	// Fetch is read-only and safe to retry; order create and refund are
	// not retried to avoid duplicates.
	var body map[string]interface{}
	err := g.retrier.Do(ctx, func(ctx context.Context) error {
		var ferr error
		body, ferr = g.client.Payment.Fetch(paymentID, nil, nil)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: razorpay payment fetch: %v", domain.ErrPaymentLookupFailed, err)
	}

	payment := &Payment{ID: paymentID}
	if orderID, ok := body["order_id"].(string); ok {
		payment.OrderID = orderID
	}
	if amount, ok := body["amount"].(float64); ok {
		payment.Amount = fromMinorUnits(int64(amount))
	}
	if currency, ok := body["currency"].(string); ok {
		payment.Currency = currency
	}
	if status, ok := body["status"].(string); ok {
		payment.Status = status
		payment.Captured = status == "captured"
	}
	if method, ok := body["method"].(string); ok {
		payment.Method = method
	}

	return payment, nil
}

// Refund returns a captured Razorpay payment
func (g *RazorpayGateway) Refund(ctx context.Context, paymentID string, amount float64) (*RefundResult, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("payment id is required")
	}

	body, err := g.client.Payment.Refund(paymentID, int(toMinorUnits(amount)), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: razorpay refund: %v", domain.ErrGatewayUnavailable, err)
	}

	result := &RefundResult{
		PaymentID: paymentID,
		Amount:    amount,
	}
	if id, ok := body["id"].(string); ok {
		result.ID = id
	}
	if status, ok := body["status"].(string); ok {
		result.Status = status
	}

	return result, nil
}

// VerifySignature authenticates a Razorpay payment callback. The
// signature is an HMAC-SHA256 of "order_id|payment_id" under the key
// secret.
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) error {
	expected := signPayment(g.config.Secret, orderID, paymentID)
	if !signatureMatches(expected, signature) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// Name returns the gateway name
func (g *RazorpayGateway) Name() string {
	return "razorpay"
}

// Ensure RazorpayGateway implements PaymentGateway
var _ PaymentGateway = (*RazorpayGateway)(nil)
