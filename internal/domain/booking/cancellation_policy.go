package booking

import (
	"math"
	"time"

	"hotelbook/internal/domain/shared/money"
)

const (
	// FullRefundDays is how far ahead of check-in a cancellation still earns a full refund.
	FullRefundDays = 2
	// PenaltyPercentPerDay is deducted for each day short of FullRefundDays.
	PenaltyPercentPerDay = 20
)

// RefundPercentage uses fractional days until check-in: 100 at or beyond
// FullRefundDays, then falling linearly and clamped at zero.
func RefundPercentage(checkIn, now time.Time) float64 {
	days := checkIn.Sub(now).Hours() / 24
	if days >= FullRefundDays {
		return 100
	}
	return math.Max(0, 100-PenaltyPercentPerDay*(FullRefundDays-days))
}

// CalculateRefund returns the refund on amountPaid and the percentage applied.
func CalculateRefund(amountPaid money.Money, checkIn, now time.Time) (money.Money, float64) {
	pct := RefundPercentage(checkIn, now)
	return amountPaid.Scale(pct / 100), pct
}
