package payments

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"

	"hotelbook/internal/app/policies"
)

// RazorpayGateway opens Razorpay orders. The SDK is synchronous, so the call
// runs in a goroutine and the caller's deadline is honoured by select.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) (*RazorpayGateway, error) {
	if keyID == "" || keySecret == "" {
		return nil, errors.New("payments: razorpay key id and secret are required")
	}
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}, nil
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req policies.OrderRequest) (policies.Order, error) {
	if req.Amount.Amount <= 0 {
		return policies.Order{}, ErrInvalidAmount
	}
	data := map[string]interface{}{
		"amount":   req.Amount.Amount,
		"currency": req.Amount.Currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := g.client.Order.Create(data, nil)
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return policies.Order{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return policies.Order{}, fmt.Errorf("razorpay: create order: %w", res.err)
		}
		id, _ := res.body["id"].(string)
		if id == "" {
			return policies.Order{}, errors.New("razorpay: order response without id")
		}
		return policies.Order{ID: id, Gateway: g.Name(), Amount: req.Amount}, nil
	}
}

var _ policies.PaymentGateway = (*RazorpayGateway)(nil)
