package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/daterange"
	"hotelbook/internal/domain/shared/money"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func inr(rupees int64) money.Money {
	return money.Must(rupees*100, "INR")
}

func newBooking(t *testing.T, total int64, option PaymentOption) *Booking {
	t.Helper()
	dr, err := daterange.Parse("2025-06-10", "2025-06-12")
	require.NoError(t, err)
	b, err := NewBooking(CreateParams{
		ID:            "b-1",
		GuestID:       "g-1",
		PropertyID:    "p-1",
		Range:         dr,
		Guests:        2,
		TotalPrice:    inr(total),
		Option:        option,
		Guest:         GuestSnapshot{Name: "Asha", Email: "asha@example.com", Phone: "9999999999"},
		Policy:        DefaultRevenuePolicy(),
		TransactionID: "tx-initial",
		CreatedAt:     now,
	})
	require.NoError(t, err)
	return b
}

func TestNewBookingPartialPaymentSplitsDeposit(t *testing.T) {
	b := newBooking(t, 1000, OptionPartial)

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, inr(200), b.AmountPaid)
	assert.Equal(t, inr(800), b.RemainingAmount)
	assert.Equal(t, inr(40), b.Revenue.PlatformShare)
	assert.Equal(t, inr(160), b.Revenue.ManagerShare)
	assert.Equal(t, b.TotalPrice.Amount, b.AmountPaid.Amount+b.RemainingAmount.Amount)
	assert.Equal(t, 2, b.Nights)
	assert.Equal(t, "tx-initial", b.Payment.TransactionID)

	require.Len(t, b.PendingEvents(), 1)
	assert.Equal(t, EventBookingCreated, b.PendingEvents()[0].EventName())
}

func TestNewBookingDefaultsGuestSnapshot(t *testing.T) {
	b := newBooking(t, 1000, OptionFull)
	assert.Equal(t, IDAadhar, b.Guest.IDType)
	assert.Equal(t, []string{NoImageUploaded}, b.Guest.IDPhotos)
	assert.Equal(t, inr(1000), b.AmountPaid)
	assert.Equal(t, int64(0), b.RemainingAmount.Amount)
}

func TestNewBookingValidation(t *testing.T) {
	dr, err := daterange.Parse("2025-06-10", "2025-06-12")
	require.NoError(t, err)
	base := CreateParams{ID: "b", GuestID: "g", PropertyID: "p", Range: dr, Guests: 1, TotalPrice: inr(10), Option: OptionFull, Policy: DefaultRevenuePolicy(), CreatedAt: now}

	p := base
	p.Guests = 0
	_, err = NewBooking(p)
	assert.ErrorIs(t, err, ErrInvalidGuests)

	p = base
	p.TotalPrice = inr(0)
	_, err = NewBooking(p)
	assert.ErrorIs(t, err, ErrInvalidTotal)

	p = base
	p.Option = "later"
	_, err = NewBooking(p)
	assert.ErrorIs(t, err, ErrInvalidPaymentOption)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSettleGatewayRecomputesSplitAndIsIdempotent(t *testing.T) {
	b := newBooking(t, 1000, OptionFull)

	already, err := b.SettleGateway("pay_1", DefaultRevenuePolicy(), now)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, StatusCompleted, b.Status)
	assert.Equal(t, inr(300), b.Revenue.PlatformShare)
	assert.Equal(t, inr(700), b.Revenue.ManagerShare)
	assert.Equal(t, MethodGateway, b.Payment.Method)
	assert.Equal(t, "pay_1", b.Payment.TransactionID)
	assert.True(t, b.SettlementPending())

	already, err = b.SettleGateway("pay_1", DefaultRevenuePolicy(), now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, now, b.Payment.PaidAt)

	_, err = b.SettleGateway("pay_2", DefaultRevenuePolicy(), now)
	assert.ErrorIs(t, err, ErrPaymentMismatch)
}

func TestSettleGatewayPartialKeepsSplitBalanced(t *testing.T) {
	b := newBooking(t, 1000, OptionPartial)
	_, err := b.SettleGateway("pay_1", DefaultRevenuePolicy(), now)
	require.NoError(t, err)
	assert.Equal(t, b.AmountPaid.Amount, b.Revenue.Total())
	assert.Equal(t, inr(140), b.Revenue.ManagerShare)
}

func TestSettleWallet(t *testing.T) {
	b := newBooking(t, 1000, OptionFull)
	require.NoError(t, b.SettleWallet("wallet-tx", inr(300), DefaultRevenuePolicy(), now))

	assert.Equal(t, StatusCompleted, b.Status)
	assert.Equal(t, inr(300), b.AmountPaid)
	assert.Equal(t, int64(0), b.RemainingAmount.Amount)
	assert.Equal(t, inr(60), b.Revenue.PlatformShare)
	assert.Equal(t, inr(240), b.Revenue.ManagerShare)
	assert.True(t, b.NeedsPlatformCredit())

	assert.ErrorIs(t, b.SettleWallet("again", inr(300), DefaultRevenuePolicy(), now), ErrInvalidState)
}

func TestSettlementDoneRequiresEveryStep(t *testing.T) {
	b := newBooking(t, 1000, OptionFull)
	require.NoError(t, b.SettleWallet("wallet-tx", inr(300), DefaultRevenuePolicy(), now))

	b.MarkDatesBlocked()
	b.MarkManagerCredited()
	assert.False(t, b.Settlement.Done)
	b.MarkPlatformCredited()
	assert.True(t, b.Settlement.Done)
	assert.False(t, b.SettlementPending())

	g := newBooking(t, 1000, OptionFull)
	_, err := g.SettleGateway("pay", DefaultRevenuePolicy(), now)
	require.NoError(t, err)
	g.MarkDatesBlocked()
	g.MarkManagerCredited()
	assert.True(t, g.Settlement.Done)
}

func TestCancellationApproveRefundsAndReverses(t *testing.T) {
	b := newBooking(t, 500, OptionFull)
	_, err := b.SettleGateway("pay", DefaultRevenuePolicy(), now)
	require.NoError(t, err)
	c, err := b.Cancel("c-1", "change of plans", now)
	require.NoError(t, err)
	assert.Equal(t, StatusCancellationPending, b.Status)
	assert.Equal(t, CancellationID("c-1"), b.CancellationID)

	oneDayBefore := b.Range.CheckIn.Add(-24 * time.Hour)
	refund, reversal, err := b.Refund(c, DefaultRevenuePolicy(), oneDayBefore)
	require.NoError(t, err)
	assert.Equal(t, inr(400), refund)
	assert.Equal(t, inr(320), reversal.ManagerShare)
	assert.Equal(t, inr(80), reversal.PlatformShare)
	assert.Equal(t, StatusApproved, b.Status)
	assert.Equal(t, CancellationApproved, c.Status)
	assert.Equal(t, inr(400), c.RefundAmount)

	_, _, err = b.Refund(c, DefaultRevenuePolicy(), oneDayBefore)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancellationOfUnpaidBookingRefundsNothing(t *testing.T) {
	b := newBooking(t, 1000, OptionPartial)
	require.False(t, b.Paid())
	c, err := b.Cancel("c-1", "change of plans", now)
	require.NoError(t, err)

	refund, reversal, err := b.Refund(c, DefaultRevenuePolicy(), b.Range.CheckIn.Add(-72*time.Hour))
	require.NoError(t, err)
	assert.True(t, refund.IsZero())
	assert.True(t, reversal.ManagerShare.IsZero())
	assert.True(t, reversal.PlatformShare.IsZero())
	assert.Equal(t, StatusApproved, b.Status)
	assert.True(t, c.RefundAmount.IsZero())
}

func TestCancellationReject(t *testing.T) {
	b := newBooking(t, 500, OptionFull)
	c, err := b.Cancel("c-1", "sick", now)
	require.NoError(t, err)

	require.NoError(t, b.Decline(c, "non-refundable period", now))
	assert.Equal(t, StatusRejected, b.Status)
	assert.Equal(t, CancellationRejected, c.Status)
	assert.Equal(t, "non-refundable period", c.Reason)
}

func TestCancelRequiresPendingOrCompleted(t *testing.T) {
	b := newBooking(t, 500, OptionFull)
	_, err := b.Cancel("c-1", "", now)
	assert.ErrorIs(t, err, ErrReasonRequired)

	c, err := b.Cancel("c-1", "first", now)
	require.NoError(t, err)
	require.NoError(t, b.Decline(c, "", now))

	_, err = b.Cancel("c-2", "second", now)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApproveWithoutLinkedCancellation(t *testing.T) {
	b := newBooking(t, 500, OptionFull)
	err := b.ApproveCancellation(now)
	assert.ErrorIs(t, err, ErrNoCancellation)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}
