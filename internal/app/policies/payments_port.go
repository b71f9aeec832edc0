package policies

import (
	"context"

	"hotelbook/internal/domain/shared/money"
)

// OrderRequest asks a gateway to open an order for Amount, tagged with Receipt.
type OrderRequest struct {
	Amount  money.Money
	Receipt string
	Notes   map[string]string
}

type Order struct {
	ID      string
	Gateway string
	Amount  money.Money
}

// PaymentGateway opens payment orders the guest completes outside the service.
type PaymentGateway interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
}

// SignatureVerifier checks the gateway's proof that paymentID settled orderID.
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) error
}
