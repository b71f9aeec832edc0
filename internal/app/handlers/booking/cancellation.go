package booking

import (
	"context"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/dto"
	"hotelbook/internal/app/handlers/support"
	"hotelbook/internal/app/middleware"
	"hotelbook/internal/app/uow"
	domainaccount "hotelbook/internal/domain/account"
	domainbooking "hotelbook/internal/domain/booking"
	"hotelbook/internal/domain/shared/apperr"
)

const (
	requestCancellationKey = "booking.cancellation.request"
	approveCancellationKey = "booking.cancellation.approve"
	rejectCancellationKey  = "booking.cancellation.reject"

	approvedMessage = "Cancellation approved and refund processed"
	rejectedMessage = "Cancellation request rejected"
)

type RequestCancellationCommand struct {
	BookingID string `validate:"required"`
	GuestID   string
	Reason    string `validate:"required"`
}

func (c RequestCancellationCommand) Key() string { return requestCancellationKey }

func (c RequestCancellationCommand) AllowedRoles() []string { return roleGuest }

type RequestCancellationResult struct {
	Cancellation dto.CancellationDTO `json:"cancellation"`
	Booking      dto.BookingDTO      `json:"booking"`
}

type RequestCancellationHandler struct {
	Env
}

func (h *RequestCancellationHandler) Handle(ctx context.Context, cmd RequestCancellationCommand) (*RequestCancellationResult, error) {
	var result RequestCancellationResult
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := loadOwnedBooking(ctx, unit, cmd.BookingID, cmd.GuestID)
		if err != nil {
			return err
		}
		c, err := b.Cancel(domainbooking.CancellationID(h.newID()), cmd.Reason, h.now())
		if err != nil {
			return err
		}
		if err := unit.Cancellations().Save(ctx, c); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := h.publish(ctx, b); err != nil {
			return err
		}
		prop, err := newPropertyCache(unit).get(ctx, b.PropertyID)
		if err != nil {
			return err
		}
		result = RequestCancellationResult{Cancellation: dto.MapCancellation(c), Booking: dto.MapBooking(b, prop)}
		h.logger().Info("cancellation requested", "booking_id", b.ID, "cancellation_id", c.ID)
		return nil
	})
	if err != nil {
		return nil, apperr.Cancellation("request", err)
	}
	return &result, nil
}

type ApproveCancellationCommand struct {
	BookingID string `validate:"required"`
	ManagerID string
}

func (c ApproveCancellationCommand) Key() string { return approveCancellationKey }

func (c ApproveCancellationCommand) AllowedRoles() []string { return roleManager }

type ApproveCancellationResult struct {
	Message          string       `json:"message"`
	RefundAmount     dto.MoneyDTO `json:"refund_amount"`
	RefundPercentage float64      `json:"refund_percentage"`
}

type ApproveCancellationHandler struct {
	Env
	PlatformAccountID string
}

func (h *ApproveCancellationHandler) Handle(ctx context.Context, cmd ApproveCancellationCommand) (*ApproveCancellationResult, error) {
	var result ApproveCancellationResult
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, prop, err := loadManagedBooking(ctx, unit, cmd.BookingID, cmd.ManagerID)
		if err != nil {
			return err
		}
		if b.CancellationID == "" {
			return domainbooking.ErrNoCancellation
		}
		c, err := unit.Cancellations().ByID(ctx, b.CancellationID)
		if err != nil {
			return err
		}
		now := h.now()
		refund, reversal, err := b.Refund(c, h.Policy, now)
		if err != nil {
			return err
		}
		if prop.ManagerID == "" {
			return ErrManagerMissing
		}
		moves := []domainaccount.Adjustment{
			{Key: refundKey(c.ID, "guest"), Account: domainaccount.Guest(b.GuestID), Delta: refund},
			{Key: refundKey(c.ID, "manager"), Account: domainaccount.Manager(prop.ManagerID), Delta: reversal.ManagerShare.Neg()},
			{Key: refundKey(c.ID, "platform"), Account: domainaccount.Platform(h.PlatformAccountID), Delta: reversal.PlatformShare.Neg()},
		}
		if err := h.apply(ctx, unit, b.ID, moves); err != nil {
			return err
		}
		if err := unit.Cancellations().Save(ctx, c); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := h.publish(ctx, b); err != nil {
			return err
		}
		pct := 0.0
		if b.Paid() {
			pct = domainbooking.RefundPercentage(b.Range.CheckIn, now)
		}
		result = ApproveCancellationResult{Message: approvedMessage, RefundAmount: dto.MapMoney(refund), RefundPercentage: pct}
		h.logger().Info("cancellation approved",
			"booking_id", b.ID,
			"cancellation_id", c.ID,
			"refund", refund.Amount,
			"refund_percentage", pct,
			"manager_reversal", reversal.ManagerShare.Amount,
			"platform_reversal", reversal.PlatformShare.Amount,
		)
		return nil
	})
	if err != nil {
		return nil, apperr.Cancellation("approve", err)
	}
	return &result, nil
}

func (h *ApproveCancellationHandler) apply(ctx context.Context, unit uow.UnitOfWork, bookingID domainbooking.BookingID, moves []domainaccount.Adjustment) error {
	for _, adj := range moves {
		if adj.Delta.IsZero() {
			continue
		}
		adj.BookingID = string(bookingID)
		adj.Reason = "cancellation refund"
		if _, err := unit.Accounts().Apply(ctx, adj, h.now()); err != nil {
			return err
		}
	}
	return nil
}

type RejectCancellationCommand struct {
	BookingID string `validate:"required"`
	ManagerID string
	Reason    string
}

func (c RejectCancellationCommand) Key() string { return rejectCancellationKey }

func (c RejectCancellationCommand) AllowedRoles() []string { return roleManager }

type RejectCancellationResult struct {
	Message string `json:"message"`
}

type RejectCancellationHandler struct {
	Env
}

func (h *RejectCancellationHandler) Handle(ctx context.Context, cmd RejectCancellationCommand) (*RejectCancellationResult, error) {
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, _, err := loadManagedBooking(ctx, unit, cmd.BookingID, cmd.ManagerID)
		if err != nil {
			return err
		}
		if b.CancellationID == "" {
			return domainbooking.ErrNoCancellation
		}
		c, err := unit.Cancellations().ByID(ctx, b.CancellationID)
		if err != nil {
			return err
		}
		if err := b.Decline(c, cmd.Reason, h.now()); err != nil {
			return err
		}
		if err := unit.Cancellations().Save(ctx, c); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := h.publish(ctx, b); err != nil {
			return err
		}
		h.logger().Info("cancellation rejected", "booking_id", b.ID, "cancellation_id", c.ID)
		return nil
	})
	if err != nil {
		return nil, apperr.Cancellation("reject", err)
	}
	return &RejectCancellationResult{Message: rejectedMessage}, nil
}

var (
	_ commands.Handler[RequestCancellationCommand, *RequestCancellationResult] = (*RequestCancellationHandler)(nil)
	_ commands.Handler[ApproveCancellationCommand, *ApproveCancellationResult] = (*ApproveCancellationHandler)(nil)
	_ commands.Handler[RejectCancellationCommand, *RejectCancellationResult]   = (*RejectCancellationHandler)(nil)
	_ middleware.RoleRestricted                                                = ApproveCancellationCommand{}
)
