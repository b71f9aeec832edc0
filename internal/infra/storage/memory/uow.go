package memory

import (
	"context"
	"errors"

	"hotelbook/internal/app/uow"
	domainaccount "hotelbook/internal/domain/account"
	domainavailability "hotelbook/internal/domain/availability"
	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	BookingRepo      domainbooking.Repository
	CancellationRepo domainbooking.CancellationRepository
	PropertyRepo     domainproperty.Repository
	AccountRepo      domainaccount.Repository
	ClaimRepo        domainavailability.ClaimStore
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Store bundles one set of in-memory repositories.
type Store struct {
	Bookings      *BookingRepository
	Cancellations *CancellationRepository
	Properties    *PropertyRepository
	Accounts      *AccountRepository
	Claims        *ClaimStore
}

func NewStore() *Store {
	return &Store{
		Bookings:      NewBookingRepository(),
		Cancellations: NewCancellationRepository(),
		Properties:    NewPropertyRepository(),
		Accounts:      NewAccountRepository(),
		Claims:        NewClaimStore(),
	}
}

// Factory returns a unit-of-work factory over the store.
func (s *Store) Factory() Factory {
	return Factory{
		BookingRepo:      s.Bookings,
		CancellationRepo: s.Cancellations,
		PropertyRepo:     s.Properties,
		AccountRepo:      s.Accounts,
		ClaimRepo:        s.Claims,
	}
}

// Begin starts a lightweight transaction boundary. No isolation is provided but
// the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.BookingRepo == nil || f.CancellationRepo == nil || f.PropertyRepo == nil || f.AccountRepo == nil || f.ClaimRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{factory: f}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	factory Factory
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.factory.BookingRepo
}

func (u *Unit) Cancellations() domainbooking.CancellationRepository {
	return u.factory.CancellationRepo
}

func (u *Unit) Properties() domainproperty.Repository {
	return u.factory.PropertyRepo
}

func (u *Unit) Accounts() domainaccount.Repository {
	return u.factory.AccountRepo
}

func (u *Unit) Claims() domainavailability.ClaimStore {
	return u.factory.ClaimRepo
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
