package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/dto"
	"hotelbook/internal/app/handlers/support"
	"hotelbook/internal/app/middleware"
	"hotelbook/internal/app/policies"
	"hotelbook/internal/app/uow"
	domainavailability "hotelbook/internal/domain/availability"
	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/daterange"
	"hotelbook/internal/domain/shared/money"
)

const (
	createBookingKey    = "booking.create"
	openPaymentOrderKey = "booking.open_payment_order"

	defaultGatewayTimeout = 10 * time.Second
)

var (
	ErrDatesUnavailable = apperr.New(apperr.KindConflict, "booking: selected dates are not available")
	ErrDatesBooked      = apperr.New(apperr.KindConflict, "booking: property already booked for these dates")
)

type GuestDetails struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Phone    string   `json:"phone" validate:"required"`
	IDType   string   `json:"id_type" validate:"omitempty,oneof=Aadhar Passport 'Driving License'"`
	IDPhotos []string `json:"id_photos"`
}

type CreateBookingCommand struct {
	PropertyID      string       `validate:"required"`
	GuestID         string       `validate:"required"`
	CheckIn         string       `validate:"required"`
	CheckOut        string       `validate:"required"`
	Guests          int          `validate:"gte=1"`
	TotalPrice      int64        `validate:"gt=0"`
	PaymentOption   string       `validate:"required,oneof=full partial"`
	Guest           GuestDetails
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

// TxOptions: the booking commits before the gateway call so a gateway outage leaves it Pending.
func (c CreateBookingCommand) TxOptions() uow.TxOptions { return uow.TxOptions{SelfManaged: true} }

func (c CreateBookingCommand) AllowedRoles() []string { return roleGuest }

func (c CreateBookingCommand) Check() error {
	if _, err := daterange.Parse(c.CheckIn, c.CheckOut); err != nil {
		return apperr.Validation("create booking", err)
	}
	return nil
}

type CreateBookingResult struct {
	Booking         dto.BookingDTO `json:"booking"`
	OrderID         string         `json:"order_id"`
	AmountPaid      dto.MoneyDTO   `json:"amount_paid"`
	RemainingAmount dto.MoneyDTO   `json:"remaining_amount"`
}

// orderOpener opens gateway orders and records them on pending bookings.
type orderOpener struct {
	Env
	Gateway policies.PaymentGateway
	Timeout time.Duration
}

func (o orderOpener) open(ctx context.Context, b *domainbooking.Booking) (*CreateBookingResult, error) {
	if o.Gateway == nil {
		return nil, apperr.Dependency("open payment order", errors.New("payment gateway not configured"))
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	order, err := o.Gateway.CreateOrder(callCtx, policies.OrderRequest{
		Amount:  b.AmountPaid,
		Receipt: string(b.ID),
		Notes:   map[string]string{"property_id": string(b.PropertyID), "guest_id": b.GuestID},
	})
	if err != nil {
		o.logger().Error("payment order failed", "booking_id", b.ID, "gateway", o.Gateway.Name(), "error", err)
		return nil, apperr.Dependency("open payment order", fmt.Errorf("booking %s stays pending: %w", b.ID, err))
	}

	var result *CreateBookingResult
	err = support.InUnit(ctx, o.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		current, err := unit.Bookings().ByID(ctx, b.ID)
		if err != nil {
			return err
		}
		if err := current.AttachOrder(order.ID, o.now()); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, current); err != nil {
			return err
		}
		if err := o.publish(ctx, current); err != nil {
			return err
		}
		prop, err := unit.Properties().ByID(ctx, current.PropertyID)
		if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}
		result = &CreateBookingResult{
			Booking:         dto.MapBooking(current, prop),
			OrderID:         order.ID,
			AmountPaid:      dto.MapMoney(current.AmountPaid),
			RemainingAmount: dto.MapMoney(current.RemainingAmount),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.logger().Info("payment order opened", "booking_id", b.ID, "order_id", order.ID, "gateway", o.Gateway.Name(), "amount", b.AmountPaid.Amount)
	return result, nil
}

type CreateBookingHandler struct {
	Env
	Gateway          policies.PaymentGateway
	GatewayTimeout   time.Duration
	Locker           policies.Locker
	TrustClientPrice bool
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	dr, err := daterange.Parse(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, apperr.Validation("create booking", err)
	}
	option, err := domainbooking.ParsePaymentOption(cmd.PaymentOption)
	if err != nil {
		return nil, err
	}
	clientTotal, err := money.New(cmd.TotalPrice, h.currency())
	if err != nil {
		return nil, apperr.Validation("create booking", err)
	}
	propertyID := domainproperty.ID(strings.TrimSpace(cmd.PropertyID))

	release, err := h.lock(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	defer release()

	var created *domainbooking.Booking
	err = support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		prop, err := unit.Properties().ByID(ctx, propertyID)
		if err != nil {
			return err
		}
		if blocked := prop.UnavailableDays(dr); len(blocked) > 0 {
			return apperr.Conflict("create booking", fmt.Errorf("%w: %s", ErrDatesUnavailable, formatDays(blocked)))
		}
		overlapping, err := unit.Bookings().ListOverlapping(ctx, prop.ID, dr)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return ErrDatesBooked
		}

		b, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID:         domainbooking.BookingID(h.newID()),
			GuestID:    cmd.GuestID,
			PropertyID: prop.ID,
			Range:      dr,
			Guests:     cmd.Guests,
			TotalPrice: h.price(prop, dr, clientTotal),
			Option:     option,
			Guest: domainbooking.GuestSnapshot{
				Name:     cmd.Guest.Name,
				Email:    cmd.Guest.Email,
				Phone:    cmd.Guest.Phone,
				IDType:   domainbooking.IDType(cmd.Guest.IDType),
				IDPhotos: cmd.Guest.IDPhotos,
			},
			Policy:        h.Policy,
			TransactionID: h.newID(),
			CreatedAt:     h.now(),
		})
		if err != nil {
			return err
		}
		claims := domainavailability.ClaimsFor(string(prop.ID), string(b.ID), dr, b.CreatedAt)
		if err := unit.Claims().Claim(ctx, claims); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := h.publish(ctx, b); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.logger().Info("booking created",
		"booking_id", created.ID,
		"property_id", created.PropertyID,
		"guest_id", created.GuestID,
		"option", created.Option,
		"total", created.TotalPrice.Amount,
		"amount_paid", created.AmountPaid.Amount,
	)

	opener := orderOpener{Env: h.Env, Gateway: h.Gateway, Timeout: h.GatewayTimeout}
	return opener.open(ctx, created)
}

func (h *CreateBookingHandler) lock(ctx context.Context, id domainproperty.ID) (func(), error) {
	if h.Locker == nil {
		return func() {}, nil
	}
	return h.Locker.Lock(ctx, "property:"+string(id))
}

// price prefers the server quote; the client total is used when trusted or when the property has no rate.
func (h *CreateBookingHandler) price(prop *domainproperty.Property, dr daterange.DateRange, client money.Money) money.Money {
	if h.TrustClientPrice {
		return client
	}
	quoted, ok := prop.Quote(dr)
	if !ok {
		return client
	}
	if quoted != client {
		h.logger().Warn("client price differs from quote",
			"property_id", prop.ID,
			"client_total", client.Amount,
			"quoted_total", quoted.Amount,
		)
	}
	return quoted
}

func formatDays(days []time.Time) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, d.Format(time.DateOnly))
	}
	return strings.Join(parts, ", ")
}

// OpenPaymentOrderCommand reopens a gateway order for a pending booking whose first attempt failed.
type OpenPaymentOrderCommand struct {
	BookingID string `validate:"required"`
	GuestID   string `validate:"required"`
}

func (c OpenPaymentOrderCommand) Key() string { return openPaymentOrderKey }

func (c OpenPaymentOrderCommand) TxOptions() uow.TxOptions { return uow.TxOptions{SelfManaged: true} }

func (c OpenPaymentOrderCommand) AllowedRoles() []string { return roleGuest }

type OpenPaymentOrderHandler struct {
	Env
	Gateway        policies.PaymentGateway
	GatewayTimeout time.Duration
}

func (h *OpenPaymentOrderHandler) Handle(ctx context.Context, cmd OpenPaymentOrderCommand) (*CreateBookingResult, error) {
	var b *domainbooking.Booking
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		b, err = loadOwnedBooking(ctx, unit, cmd.BookingID, cmd.GuestID)
		if err != nil {
			return err
		}
		if b.Status != domainbooking.StatusPending {
			return domainbooking.ErrInvalidState
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	opener := orderOpener{Env: h.Env, Gateway: h.Gateway, Timeout: h.GatewayTimeout}
	return opener.open(ctx, b)
}

var (
	_ commands.Handler[CreateBookingCommand, *CreateBookingResult]    = (*CreateBookingHandler)(nil)
	_ commands.Handler[OpenPaymentOrderCommand, *CreateBookingResult] = (*OpenPaymentOrderHandler)(nil)
	_ middleware.IdempotentCommand                                    = CreateBookingCommand{}
	_ middleware.TxOptioned                                           = CreateBookingCommand{}
	_ middleware.RoleRestricted                                       = OpenPaymentOrderCommand{}
)
