package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"hotelbook/internal/app/policies"
)

// StripeGateway maps an order onto a PaymentIntent; the intent id is the order id.
type StripeGateway struct{}

func NewStripeGateway(secretKey string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("payments: stripe secret key is required")
	}
	stripe.Key = secretKey
	return &StripeGateway{}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateOrder(ctx context.Context, req policies.OrderRequest) (policies.Order, error) {
	if req.Amount.Amount <= 0 {
		return policies.Order{}, ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount.Amount),
		Currency: stripe.String(strings.ToLower(req.Amount.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{"receipt": req.Receipt},
	}
	for k, v := range req.Notes {
		params.Metadata[k] = v
	}
	params.Context = ctx
	params.SetIdempotencyKey("order:" + req.Receipt)

	pi, err := paymentintent.New(params)
	if err != nil {
		return policies.Order{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return policies.Order{ID: pi.ID, Gateway: g.Name(), Amount: req.Amount}, nil
}

var _ policies.PaymentGateway = (*StripeGateway)(nil)
