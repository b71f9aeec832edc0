package booking

import (
	"context"
	"strings"
	"time"

	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/events"
	"hotelbook/internal/domain/shared/money"
)

var (
	ErrCancellationNotFound = apperr.New(apperr.KindNotFound, "cancellation: not found")
	ErrCancellationDecided  = apperr.New(apperr.KindConflict, "cancellation: already decided")
	ErrReasonRequired       = apperr.New(apperr.KindValidation, "cancellation: reason is required")
)

type CancellationID string

type CancellationStatus string

const (
	CancellationPending  CancellationStatus = "Pending"
	CancellationApproved CancellationStatus = "Approved"
	CancellationRejected CancellationStatus = "Rejected"
)

// Cancellation is a guest's request to cancel a booking. Approved and Rejected are terminal.
type Cancellation struct {
	ID           CancellationID
	BookingID    BookingID
	Reason       string
	Status       CancellationStatus
	RefundAmount money.Money
	CreatedAt    time.Time
	DecidedAt    time.Time
}

type CancellationRepository interface {
	ByID(ctx context.Context, id CancellationID) (*Cancellation, error)
	Save(ctx context.Context, c *Cancellation) error
	List(ctx context.Context) ([]*Cancellation, error)
}

func NewCancellation(id CancellationID, bookingID BookingID, reason string, now time.Time) (*Cancellation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return &Cancellation{
		ID:        id,
		BookingID: bookingID,
		Reason:    reason,
		Status:    CancellationPending,
		CreatedAt: now.UTC(),
	}, nil
}

func (c *Cancellation) Approve(refund money.Money, now time.Time) error {
	if c.Status != CancellationPending {
		return ErrCancellationDecided
	}
	c.Status = CancellationApproved
	c.RefundAmount = refund
	c.DecidedAt = now.UTC()
	return nil
}

// Reject replaces the guest's reason with the manager's.
func (c *Cancellation) Reject(reason string, now time.Time) error {
	if c.Status != CancellationPending {
		return ErrCancellationDecided
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		c.Reason = reason
	}
	c.Status = CancellationRejected
	c.DecidedAt = now.UTC()
	return nil
}

// Cancel creates a cancellation request and links it to the booking.
func (b *Booking) Cancel(id CancellationID, reason string, now time.Time) (*Cancellation, error) {
	c, err := NewCancellation(id, b.ID, reason, now)
	if err != nil {
		return nil, err
	}
	if err := b.RequestCancellation(id, now); err != nil {
		return nil, err
	}
	b.Record(CancellationRequested{
		Header:         events.NewHeader(EventCancellationRequested, string(b.ID), now),
		CancellationID: string(id),
		Reason:         c.Reason,
	})
	return c, nil
}

// Refund approves a linked cancellation, returning the guest refund and the
// reversal to claw back from manager and platform. A booking that was never
// paid refunds nothing and reverses nothing.
func (b *Booking) Refund(c *Cancellation, policy RevenuePolicy, now time.Time) (refund money.Money, reversal RevenueSplit, err error) {
	if err := b.ApproveCancellation(now); err != nil {
		return money.Money{}, RevenueSplit{}, err
	}
	refund, pct := money.Zero(b.AmountPaid.Currency), 0.0
	if b.Paid() {
		refund, pct = CalculateRefund(b.AmountPaid, b.Range.CheckIn, now)
		reversal, err = policy.RefundReversal(refund)
		if err != nil {
			return money.Money{}, RevenueSplit{}, err
		}
	}
	if err := c.Approve(refund, now); err != nil {
		return money.Money{}, RevenueSplit{}, err
	}
	b.Record(CancellationApprovedEvent{
		Header:           events.NewHeader(EventCancellationApproved, string(b.ID), now),
		CancellationID:   string(c.ID),
		RefundPercentage: pct,
		RefundAmount:     refund,
		ManagerReversal:  reversal.ManagerShare,
		PlatformReversal: reversal.PlatformShare,
	})
	return refund, reversal, nil
}

// Decline rejects a linked cancellation; no money moves.
func (b *Booking) Decline(c *Cancellation, reason string, now time.Time) error {
	if err := b.RejectCancellation(now); err != nil {
		return err
	}
	if err := c.Reject(reason, now); err != nil {
		return err
	}
	b.Record(CancellationRejectedEvent{
		Header:         events.NewHeader(EventCancellationRejected, string(b.ID), now),
		CancellationID: string(c.ID),
		Reason:         c.Reason,
	})
	return nil
}
