package payments

import (
	"fmt"
	"strings"

	"hotelbook/internal/app/policies"
)

// Config selects and configures one gateway.
type Config struct {
	Provider          string
	RazorpayKeyID     string
	RazorpayKeySecret string
	StripeSecretKey   string
	// SigningSecret verifies checkout signatures; it defaults to the Razorpay key secret.
	SigningSecret string
}

// New builds the gateway and the verifier for its checkout signatures.
func New(cfg Config) (policies.PaymentGateway, *HMACVerifier, error) {
	secret := cfg.SigningSecret
	if secret == "" {
		secret = cfg.RazorpayKeySecret
	}
	var (
		gw  policies.PaymentGateway
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "razorpay":
		gw, err = NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	case "stripe":
		gw, err = NewStripeGateway(cfg.StripeSecretKey)
	case "", "mock":
		gw = NewMockGateway()
		if secret == "" {
			secret = "mock-signing-secret"
		}
	default:
		return nil, nil, fmt.Errorf("payments: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, nil, err
	}
	verifier, err := NewHMACVerifier(secret)
	if err != nil {
		return nil, nil, err
	}
	return gw, verifier, nil
}
