package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
)

// PaymentGateway abstracts the upstream payment provider. Amounts cross
// this boundary in major currency units; each implementation converts to
// the provider's minor units itself.
type PaymentGateway interface {
	// CreateOrder opens a payment order the client completes out of band.
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error)

	// FetchPayment retrieves the authoritative state of a payment.
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)

	// Refund returns a captured payment, fully or partially.
	Refund(ctx context.Context, paymentID string, amount float64) (*RefundResult, error)

	// VerifySignature authenticates a payment callback.
	VerifySignature(orderID, paymentID, signature string) error

	// Name identifies the provider.
	Name() string
}

// CreateOrderRequest holds the inputs for opening a gateway order
type CreateOrderRequest struct {
	Amount   float64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is a provider-side payment order
type Order struct {
	ID       string
	Amount   int64 // minor units
	Currency string
	Status   string
	Provider string
}

// Payment is the provider's view of one payment attempt
type Payment struct {
	ID       string
	OrderID  string
	Amount   float64 // major units
	Currency string
	Status   string
	Method   string
	Captured bool
}

// RefundResult is the provider's acknowledgement of a refund
type RefundResult struct {
	ID        string
	PaymentID string
	Amount    float64
	Status    string
}

// toMinorUnits converts a major-unit amount to the provider's smallest
// currency unit, rounding to absorb float drift.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// fromMinorUnits converts a minor-unit amount back to major units
func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

// signPayment computes the callback signature over "orderID|paymentID"
func signPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// signatureMatches compares signatures in constant time
func signatureMatches(expected, got string) bool {
	return hmac.Equal([]byte(expected), []byte(got))
}
