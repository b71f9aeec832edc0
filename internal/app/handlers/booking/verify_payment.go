package booking

import (
	"context"
	"errors"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/dto"
	"hotelbook/internal/app/handlers/support"
	"hotelbook/internal/app/middleware"
	"hotelbook/internal/app/policies"
	"hotelbook/internal/app/uow"
	"hotelbook/internal/domain/shared/apperr"
)

const verifyPaymentKey = "booking.verify_payment"

var ErrOrderMismatch = apperr.New(apperr.KindConflict, "booking: payment order does not belong to this booking")

// VerifyPaymentCommand settles a booking after the guest paid the gateway order.
type VerifyPaymentCommand struct {
	BookingID string `validate:"required"`
	GuestID   string
	OrderID   string `validate:"required"`
	PaymentID string `validate:"required"`
	Signature string `validate:"required"`
}

func (c VerifyPaymentCommand) Key() string { return verifyPaymentKey }

func (c VerifyPaymentCommand) AllowedRoles() []string { return roleGuest }

type VerifyPaymentHandler struct {
	Env
	Verifier policies.SignatureVerifier
	Settler  *Settler
}

func (h *VerifyPaymentHandler) Handle(ctx context.Context, cmd VerifyPaymentCommand) (*dto.BookingDTO, error) {
	if h.Verifier == nil {
		return nil, apperr.Dependency("verify payment", errors.New("signature verifier not configured"))
	}
	if err := h.Verifier.Verify(cmd.OrderID, cmd.PaymentID, cmd.Signature); err != nil {
		h.logger().Warn("payment signature rejected",
			"security_event", "payment_signature_mismatch",
			"booking_id", cmd.BookingID,
			"order_id", cmd.OrderID,
			"payment_id", cmd.PaymentID,
		)
		return nil, err
	}

	var result dto.BookingDTO
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := loadOwnedBooking(ctx, unit, cmd.BookingID, cmd.GuestID)
		if err != nil {
			return err
		}
		if b.Payment.OrderID != "" && b.Payment.OrderID != cmd.OrderID {
			return ErrOrderMismatch
		}
		already, err := b.SettleGateway(cmd.PaymentID, h.Policy, h.now())
		if err != nil {
			return err
		}
		if already {
			h.logger().Info("payment already verified", "booking_id", b.ID, "payment_id", cmd.PaymentID)
		}
		if err := h.Settler.Settle(ctx, unit, b); err != nil {
			return err
		}
		prop, err := unit.Properties().ByID(ctx, b.PropertyID)
		if err != nil {
			return err
		}
		result = dto.MapBooking(b, prop)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

var (
	_ commands.Handler[VerifyPaymentCommand, *dto.BookingDTO] = (*VerifyPaymentHandler)(nil)
	_ middleware.RoleRestricted                               = VerifyPaymentCommand{}
)
