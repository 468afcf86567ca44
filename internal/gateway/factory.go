package gateway

import (
	"fmt"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/config"
)

// New builds the payment gateway selected by configuration
func New(cfg config.GatewayConfig) (PaymentGateway, error) {
	switch cfg.Provider {
	case "razorpay":
		return NewRazorpayGateway(&RazorpayGatewayConfig{
			KeyID:  cfg.RazorpayKeyID,
			Secret: cfg.RazorpaySecret,
		})
	case "stripe":
		return NewStripeGateway(&StripeGatewayConfig{
			SecretKey: cfg.StripeKey,
		})
	case "mock", "":
		return NewMockGateway(DefaultMockGatewayConfig()), nil
	default:
		return nil, fmt.Errorf("unknown gateway provider: %s", cfg.Provider)
	}
}
