package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
)

func TestMockGateway_OrderLifecycle(t *testing.T) {
	gw := NewMockGateway(&MockGatewayConfig{SuccessRate: 1.0})

	order, err := gw.CreateOrder(context.Background(), &CreateOrderRequest{
		Amount:   499.99,
		Currency: "INR",
		Receipt:  "booking-123",
	})
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}
	if order.ID == "" {
		t.Fatal("expected an order id")
	}
	// Amounts cross the gateway boundary in minor units.
	if order.Amount != 49999 {
		t.Errorf("order amount = %d, want 49999", order.Amount)
	}
	if order.Status != "created" {
		t.Errorf("order status = %s, want created", order.Status)
	}

	payment, err := gw.Capture(order.ID)
	if err != nil {
		t.Fatalf("Capture() unexpected error = %v", err)
	}
	if !payment.Captured {
		t.Error("expected a captured payment at success rate 1.0")
	}
	if payment.Amount != 499.99 {
		t.Errorf("payment amount = %v, want 499.99 (back in major units)", payment.Amount)
	}
	if payment.OrderID != order.ID {
		t.Errorf("payment order id = %s, want %s", payment.OrderID, order.ID)
	}

	fetched, err := gw.FetchPayment(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("FetchPayment() unexpected error = %v", err)
	}
	if fetched.ID != payment.ID || fetched.Status != "captured" {
		t.Errorf("fetched payment = %+v, want captured %s", fetched, payment.ID)
	}
}

func TestMockGateway_CaptureFailure(t *testing.T) {
	gw := NewMockGateway(&MockGatewayConfig{SuccessRate: 0})

	order, err := gw.CreateOrder(context.Background(), &CreateOrderRequest{Amount: 100})
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}

	payment, err := gw.Capture(order.ID)
	if err != nil {
		t.Fatalf("Capture() unexpected error = %v", err)
	}
	if payment.Captured {
		t.Error("expected an uncaptured payment at success rate 0")
	}
	if payment.Status != "failed" {
		t.Errorf("payment status = %s, want failed", payment.Status)
	}
}

func TestMockGateway_FetchUnknownPayment(t *testing.T) {
	gw := NewMockGateway(nil)

	_, err := gw.FetchPayment(context.Background(), "pay_unknown")
	if !errors.Is(err, domain.ErrPaymentLookupFailed) {
		t.Errorf("FetchPayment() error = %v, want ErrPaymentLookupFailed", err)
	}
}

func TestMockGateway_Refund(t *testing.T) {
	gw := NewMockGateway(nil)

	order, err := gw.CreateOrder(context.Background(), &CreateOrderRequest{Amount: 750})
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}
	payment, err := gw.Capture(order.ID)
	if err != nil {
		t.Fatalf("Capture() unexpected error = %v", err)
	}

	result, err := gw.Refund(context.Background(), payment.ID, 750)
	if err != nil {
		t.Fatalf("Refund() unexpected error = %v", err)
	}
	if result.PaymentID != payment.ID {
		t.Errorf("refund payment id = %s, want %s", result.PaymentID, payment.ID)
	}
	if result.Status != "processed" {
		t.Errorf("refund status = %s, want processed", result.Status)
	}
	if got := gw.RefundedAmount(payment.ID); got != 750 {
		t.Errorf("RefundedAmount() = %v, want 750", got)
	}

	_, err = gw.Refund(context.Background(), "pay_unknown", 100)
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Errorf("Refund(unknown) error = %v, want ErrGatewayUnavailable", err)
	}
}

func TestMockGateway_VerifySignature(t *testing.T) {
	gw := NewMockGateway(nil)

	sig := gw.Sign("order_1", "pay_1")
	if err := gw.VerifySignature("order_1", "pay_1", sig); err != nil {
		t.Errorf("VerifySignature() unexpected error = %v", err)
	}

	if err := gw.VerifySignature("order_1", "pay_1", "forged"); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Errorf("VerifySignature(forged) error = %v, want ErrInvalidSignature", err)
	}
	// A signature is bound to its order and payment.
	if err := gw.VerifySignature("order_2", "pay_1", sig); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Errorf("VerifySignature(wrong order) error = %v, want ErrInvalidSignature", err)
	}
}

func TestMinorUnitConversion(t *testing.T) {
	tests := []struct {
		major float64
		minor int64
	}{
		{0, 0},
		{1, 100},
		{499.99, 49999},
		{0.1, 10},
		{1234.56, 123456},
	}
	for _, tt := range tests {
		if got := toMinorUnits(tt.major); got != tt.minor {
			t.Errorf("toMinorUnits(%v) = %d, want %d", tt.major, got, tt.minor)
		}
		if got := fromMinorUnits(tt.minor); got != tt.major {
			t.Errorf("fromMinorUnits(%d) = %v, want %v", tt.minor, got, tt.major)
		}
	}
}
