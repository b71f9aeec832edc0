package payments

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"hotelbook/internal/app/policies"
	"hotelbook/internal/domain/shared/apperr"
)

var ErrInvalidAmount = apperr.New(apperr.KindValidation, "payments: order amount must be positive")

// MockGateway opens orders locally. Set Fail to simulate an outage and Delay
// to simulate a slow gateway.
type MockGateway struct {
	Fail  bool
	Delay time.Duration

	mu     sync.Mutex
	orders []policies.OrderRequest
}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) CreateOrder(ctx context.Context, req policies.OrderRequest) (policies.Order, error) {
	if req.Amount.Amount <= 0 {
		return policies.Order{}, ErrInvalidAmount
	}
	if g.Delay > 0 {
		select {
		case <-ctx.Done():
			return policies.Order{}, ctx.Err()
		case <-time.After(g.Delay):
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Fail {
		return policies.Order{}, errors.New("mock gateway unavailable")
	}
	g.orders = append(g.orders, req)
	return policies.Order{ID: "order_" + uuid.NewString(), Gateway: g.Name(), Amount: req.Amount}, nil
}

// Orders returns every accepted order request.
func (g *MockGateway) Orders() []policies.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]policies.OrderRequest(nil), g.orders...)
}

var _ policies.PaymentGateway = (*MockGateway)(nil)
