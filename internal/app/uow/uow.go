package uow

import (
	"context"

	domainaccount "hotelbook/internal/domain/account"
	domainavailability "hotelbook/internal/domain/availability"
	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Cancellations() domainbooking.CancellationRepository
	Properties() domainproperty.Repository
	Accounts() domainaccount.Repository
	Claims() domainavailability.ClaimStore

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
	// SelfManaged commands open their own units; the transaction middleware passes them through.
	SelfManaged bool
}
