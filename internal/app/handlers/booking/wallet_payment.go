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
	"hotelbook/internal/domain/shared/money"
)

const walletPaymentKey = "booking.wallet_payment"

type WalletPaymentCommand struct {
	BookingID       string `validate:"required"`
	GuestID         string `validate:"required"`
	Amount          int64  `validate:"gt=0"`
	IdempotencyKeyV string
}

func (c WalletPaymentCommand) Key() string { return walletPaymentKey }

func (c WalletPaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c WalletPaymentCommand) ResultPrototype() any { return &dto.BookingDTO{} }

func (c WalletPaymentCommand) AllowedRoles() []string { return roleGuest }

type WalletPaymentHandler struct {
	Env
	Settler *Settler
}

func (h *WalletPaymentHandler) Handle(ctx context.Context, cmd WalletPaymentCommand) (*dto.BookingDTO, error) {
	if cmd.Amount <= 0 {
		return nil, domainbooking.ErrInvalidAmount
	}
	amount := money.Must(cmd.Amount, h.currency())

	var result dto.BookingDTO
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		accounts := unit.Accounts()
		guest, err := accounts.ByID(ctx, domainaccount.Guest(cmd.GuestID))
		if err != nil {
			return err
		}
		debitKey := walletKey(domainbooking.BookingID(cmd.BookingID), "guest")
		debited, err := accounts.HasEntry(ctx, debitKey)
		if err != nil {
			return err
		}
		if !debited && guest.Wallet.Amount < amount.Amount {
			return domainaccount.ErrInsufficientFunds
		}
		b, err := loadOwnedBooking(ctx, unit, cmd.BookingID, cmd.GuestID)
		if err != nil {
			return err
		}

		switch {
		case b.Status == domainbooking.StatusPending:
			if _, err := accounts.Apply(ctx, domainaccount.Adjustment{
				Key:         debitKey,
				Account:     guest.Ref,
				Delta:       amount.Neg(),
				BookingID:   string(b.ID),
				Reason:      "wallet payment",
				NoOverdraft: true,
			}, h.now()); err != nil {
				return err
			}
			if err := b.SettleWallet(h.newID(), amount, h.Policy, h.now()); err != nil {
				return err
			}
			h.logger().Info("wallet payment accepted", "booking_id", b.ID, "guest_id", guest.ID, "amount", amount.Amount)
		case b.Payment.Method == domainbooking.MethodWallet && b.SettlementPending():
			// resume a settlement interrupted after the debit
		default:
			return domainbooking.ErrInvalidState
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
	_ commands.Handler[WalletPaymentCommand, *dto.BookingDTO] = (*WalletPaymentHandler)(nil)
	_ middleware.IdempotentCommand                            = WalletPaymentCommand{}
)
