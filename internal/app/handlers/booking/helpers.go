package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hotelbook/internal/app/middleware"
	"hotelbook/internal/app/outbox"
	"hotelbook/internal/app/uow"
	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/apperr"
)

var (
	roleGuest   = []string{"guest"}
	roleManager = []string{"manager"}
	roleAdmin   = []string{"admin"}
	roleSystem  = []string{middleware.RoleSystem}
)

// Env carries collaborators every booking handler shares.
type Env struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Policy     domainbooking.RevenuePolicy
	Currency   string
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e Env) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e Env) encoder() outbox.EventEncoder {
	if e.Encoder != nil {
		return e.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (e Env) publish(ctx context.Context, aggregates ...outbox.Recorded) error {
	return outbox.Publish(ctx, e.Outbox, e.encoder(), aggregates...)
}

func (e Env) currency() string {
	if e.Currency != "" {
		return e.Currency
	}
	return "INR"
}

// loadOwnedBooking hides bookings of other guests behind NotFound.
func loadOwnedBooking(ctx context.Context, unit uow.UnitOfWork, bookingID, guestID string) (*domainbooking.Booking, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, err
	}
	if guestID != "" && b.GuestID != guestID {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b, nil
}

// loadManagedBooking hides bookings of other managers' properties behind NotFound.
func loadManagedBooking(ctx context.Context, unit uow.UnitOfWork, bookingID, managerID string) (*domainbooking.Booking, *domainproperty.Property, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, nil, err
	}
	prop, err := unit.Properties().ByID(ctx, b.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	if managerID != "" && prop.ManagerID != managerID {
		return nil, nil, domainbooking.ErrBookingNotFound
	}
	return b, prop, nil
}

// propertyCache resolves each property once per query.
type propertyCache struct {
	unit  uow.UnitOfWork
	items map[domainproperty.ID]*domainproperty.Property
}

func newPropertyCache(unit uow.UnitOfWork) *propertyCache {
	return &propertyCache{unit: unit, items: make(map[domainproperty.ID]*domainproperty.Property)}
}

func (c *propertyCache) get(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	if p, ok := c.items[id]; ok {
		return p, nil
	}
	p, err := c.unit.Properties().ByID(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			c.items[id] = nil
			return nil, nil
		}
		return nil, err
	}
	c.items[id] = p
	return p, nil
}
