package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelbook/internal/app/outbox"
	"hotelbook/internal/app/saga"
	"hotelbook/internal/app/uow"
	domainaccount "hotelbook/internal/domain/account"
	domainavailability "hotelbook/internal/domain/availability"
	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/events"
)

var ErrManagerMissing = apperr.New(apperr.KindConflict, "settlement: property has no manager")

// Settler applies the side effects of a completed payment. Every step is
// keyed so re-running it after a partial failure has no double effect.
type Settler struct {
	Env
	PlatformAccountID string
}

type settlementRun struct {
	unit     uow.UnitOfWork
	booking  *domainbooking.Booking
	property *domainproperty.Property
	now      time.Time
	blocked  []domainavailability.DatesBlocked
}

// Settle runs the pending steps and saves the booking with its progress flags.
func (s *Settler) Settle(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
	if !b.SettlementPending() {
		return nil
	}
	prop, err := unit.Properties().ByID(ctx, b.PropertyID)
	if err != nil {
		return err
	}
	run := &settlementRun{unit: unit, booking: b, property: prop, now: s.now()}
	stepErr := saga.Run[*settlementRun](ctx, run, s.steps()...)
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return errors.Join(stepErr, err)
	}
	if stepErr != nil {
		s.logger().Error("settlement incomplete",
			"booking_id", b.ID,
			"dates_blocked", b.Settlement.DatesBlocked,
			"manager_credited", b.Settlement.ManagerCredited,
			"platform_credited", b.Settlement.PlatformCredited,
			"error", stepErr,
		)
		return stepErr
	}
	blocked := make([]events.DomainEvent, 0, len(run.blocked))
	for _, ev := range run.blocked {
		blocked = append(blocked, ev)
	}
	if err := outbox.RecordDomainEvents(ctx, s.Outbox, s.encoder(), blocked); err != nil {
		return err
	}
	if err := s.publish(ctx, b); err != nil {
		return err
	}
	s.logger().Info("booking settled",
		"booking_id", b.ID,
		"method", b.Payment.Method,
		"amount_paid", b.AmountPaid.Amount,
		"platform_share", b.Revenue.PlatformShare.Amount,
		"manager_share", b.Revenue.ManagerShare.Amount,
	)
	return nil
}

func (s *Settler) steps() []saga.Step[*settlementRun] {
	return []saga.Step[*settlementRun]{
		saga.StepFunc[*settlementRun]{
			StepName: "block dates",
			IsDone:   func(r *settlementRun) bool { return r.booking.Settlement.DatesBlocked },
			Fn:       s.blockDates,
		},
		saga.StepFunc[*settlementRun]{
			StepName: "credit manager",
			IsDone:   func(r *settlementRun) bool { return r.booking.Settlement.ManagerCredited },
			Fn:       s.creditManager,
		},
		saga.StepFunc[*settlementRun]{
			StepName: "credit platform",
			IsDone: func(r *settlementRun) bool {
				return r.booking.Settlement.PlatformCredited || !r.booking.NeedsPlatformCredit()
			},
			Fn: s.creditPlatform,
		},
	}
}

func (s *Settler) blockDates(ctx context.Context, r *settlementRun) error {
	b := r.booking
	nights := b.Range.NightDates()
	if err := r.unit.Properties().SetAvailability(ctx, b.PropertyID, nights, false); err != nil {
		return err
	}
	b.MarkDatesBlocked()
	r.blocked = append(r.blocked, domainavailability.NewDatesBlocked(string(b.PropertyID), string(b.ID), nights, r.now))
	return nil
}

func (s *Settler) creditManager(ctx context.Context, r *settlementRun) error {
	b := r.booking
	if r.property.ManagerID == "" {
		return ErrManagerMissing
	}
	_, err := r.unit.Accounts().Apply(ctx, domainaccount.Adjustment{
		Key:       managerCreditKey(b),
		Account:   domainaccount.Manager(r.property.ManagerID),
		Delta:     b.Revenue.ManagerShare,
		BookingID: string(b.ID),
		Reason:    "booking payment",
	}, r.now)
	if err != nil {
		return err
	}
	b.MarkManagerCredited()
	return nil
}

func (s *Settler) creditPlatform(ctx context.Context, r *settlementRun) error {
	b := r.booking
	_, err := r.unit.Accounts().Apply(ctx, domainaccount.Adjustment{
		Key:       walletKey(b.ID, "platform"),
		Account:   domainaccount.Platform(s.PlatformAccountID),
		Delta:     b.Revenue.PlatformShare,
		BookingID: string(b.ID),
		Reason:    "booking commission",
	}, r.now)
	if err != nil {
		return err
	}
	b.MarkPlatformCredited()
	return nil
}

func managerCreditKey(b *domainbooking.Booking) string {
	if b.Payment.Method == domainbooking.MethodGateway {
		return fmt.Sprintf("settle:%s:manager", b.Payment.TransactionID)
	}
	return walletKey(b.ID, "manager")
}

func walletKey(id domainbooking.BookingID, party string) string {
	return fmt.Sprintf("wallet:%s:%s", id, party)
}

func refundKey(id domainbooking.CancellationID, party string) string {
	return fmt.Sprintf("refund:%s:%s", id, party)
}
