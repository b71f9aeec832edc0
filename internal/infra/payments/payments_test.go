package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbook/internal/app/policies"
	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/money"
)

func TestHMACVerifier(t *testing.T) {
	v, err := NewHMACVerifier("secret")
	require.NoError(t, err)

	sig := v.Sign("order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.NoError(t, v.Verify("order_1", "pay_1", sig))

	err = v.Verify("order_1", "pay_2", sig)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.True(t, apperr.IsKind(err, apperr.KindSignatureMismatch))

	_, err = NewHMACVerifier("")
	assert.ErrorIs(t, err, ErrSecretRequired)
}

func TestMockGateway(t *testing.T) {
	gw := NewMockGateway()
	order, err := gw.CreateOrder(context.Background(), policies.OrderRequest{Amount: money.Must(5000, "INR"), Receipt: "b-1"})
	require.NoError(t, err)
	assert.Contains(t, order.ID, "order_")
	assert.Equal(t, "mock", order.Gateway)
	assert.Len(t, gw.Orders(), 1)

	gw.Fail = true
	_, err = gw.CreateOrder(context.Background(), policies.OrderRequest{Amount: money.Must(5000, "INR")})
	assert.Error(t, err)

	_, err = gw.CreateOrder(context.Background(), policies.OrderRequest{Amount: money.Zero("INR")})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMockGatewayHonoursDeadline(t *testing.T) {
	gw := &MockGateway{Delay: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := gw.CreateOrder(ctx, policies.OrderRequest{Amount: money.Must(100, "INR")})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFactory(t *testing.T) {
	gw, verifier, err := New(Config{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", gw.Name())
	assert.NotNil(t, verifier)

	_, _, err = New(Config{Provider: "razorpay"})
	assert.Error(t, err)

	gw, _, err = New(Config{Provider: "razorpay", RazorpayKeyID: "rzp_test", RazorpayKeySecret: "s"})
	require.NoError(t, err)
	assert.Equal(t, "razorpay", gw.Name())

	_, _, err = New(Config{Provider: "paypal"})
	assert.Error(t, err)
}
