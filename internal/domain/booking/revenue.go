package booking

import (
	"errors"

	"hotelbook/internal/domain/shared/money"
)

var ErrInvalidPolicy = errors.New("booking: revenue percentages must be within 0..100")

// RevenuePolicy holds the three ratios the platform applies to money moving
// through a booking.
type RevenuePolicy struct {
	// CommissionPercent is the platform share recorded at creation and on wallet payments.
	CommissionPercent int64
	// DepositPercent is the share of the total charged upfront for partial payments.
	DepositPercent int64
	// SettlementManagerPercent is the manager share after gateway verification.
	SettlementManagerPercent int64
	// RefundManagerPercent is the part of a refund clawed back from the manager.
	RefundManagerPercent int64
}

func DefaultRevenuePolicy() RevenuePolicy {
	return RevenuePolicy{
		CommissionPercent:        20,
		DepositPercent:           20,
		SettlementManagerPercent: 70,
		RefundManagerPercent:     80,
	}
}

func (p RevenuePolicy) Validate() error {
	for _, v := range []int64{p.CommissionPercent, p.DepositPercent, p.SettlementManagerPercent, p.RefundManagerPercent} {
		if v < 0 || v > 100 {
			return ErrInvalidPolicy
		}
	}
	return nil
}

// RevenueSplit always satisfies PlatformShare + ManagerShare == the amount it was computed from.
type RevenueSplit struct {
	PlatformShare money.Money
	ManagerShare  money.Money
}

// Total returns the amount the split was computed from.
func (s RevenueSplit) Total() int64 {
	return s.PlatformShare.Amount + s.ManagerShare.Amount
}

// Deposit returns what the guest pays now and what remains due.
func (p RevenuePolicy) Deposit(total money.Money, option PaymentOption) (paid, remaining money.Money, err error) {
	switch option {
	case OptionFull:
		return total, money.Zero(total.Currency), nil
	case OptionPartial:
		paid, remaining, err = total.Split(p.DepositPercent)
		return paid, remaining, err
	default:
		return money.Money{}, money.Money{}, ErrInvalidPaymentOption
	}
}

// CommissionSplit gives the platform its commission and the manager the rest.
func (p RevenuePolicy) CommissionSplit(amount money.Money) (RevenueSplit, error) {
	platform, manager, err := amount.Split(p.CommissionPercent)
	if err != nil {
		return RevenueSplit{}, err
	}
	return RevenueSplit{PlatformShare: platform, ManagerShare: manager}, nil
}

// SettlementSplit is applied once a gateway payment is verified.
func (p RevenuePolicy) SettlementSplit(amount money.Money) (RevenueSplit, error) {
	manager, platform, err := amount.Split(p.SettlementManagerPercent)
	if err != nil {
		return RevenueSplit{}, err
	}
	return RevenueSplit{PlatformShare: platform, ManagerShare: manager}, nil
}

// RefundReversal splits a refund into the amounts debited from manager and platform.
func (p RevenuePolicy) RefundReversal(refund money.Money) (RevenueSplit, error) {
	manager, platform, err := refund.Split(p.RefundManagerPercent)
	if err != nil {
		return RevenueSplit{}, err
	}
	return RevenueSplit{PlatformShare: platform, ManagerShare: manager}, nil
}
