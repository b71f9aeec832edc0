package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"hotelbook/internal/app/uow"
	domainaccount "hotelbook/internal/domain/account"
	domainavailability "hotelbook/internal/domain/availability"
	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	BookingRepo      domainbooking.Repository
	CancellationRepo domainbooking.CancellationRepository
	PropertyRepo     domainproperty.Repository
	AccountRepo      domainaccount.Repository
	ClaimRepo        domainavailability.ClaimStore
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds every repository over db.
func NewFactory(db *mongo.Database, currency string) Factory {
	return Factory{
		DB:               db,
		BookingRepo:      NewBookingRepository(db),
		CancellationRepo: NewCancellationRepository(db),
		PropertyRepo:     NewPropertyRepository(db, currency),
		AccountRepo:      NewAccountRepository(db, currency),
		ClaimRepo:        NewClaimStore(db),
	}
}

// Begin starts a MongoDB session/transaction. Writes use snapshot reads and a
// majority write concern so the booking, wallet and calendar changes commit together.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, storeErr("start session", err)
	}
	txnOpts := options.Transaction().SetReadConcern(readconcern.Snapshot()).SetWriteConcern(writeconcern.Majority())
	if opts.ReadOnly {
		txnOpts = options.Transaction().SetReadConcern(readconcern.Majority())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, storeErr("start transaction", err)
	}
	return &Unit{
		session:       session,
		bookings:      f.BookingRepo,
		cancellations: f.CancellationRepo,
		properties:    f.PropertyRepo,
		accounts:      f.AccountRepo,
		claims:        f.ClaimRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	bookings      domainbooking.Repository
	cancellations domainbooking.CancellationRepository
	properties    domainproperty.Repository
	accounts      domainaccount.Repository
	claims        domainavailability.ClaimStore
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Cancellations() domainbooking.CancellationRepository {
	return u.cancellations
}

func (u *Unit) Properties() domainproperty.Repository {
	return u.properties
}

func (u *Unit) Accounts() domainaccount.Repository {
	return u.accounts
}

func (u *Unit) Claims() domainavailability.ClaimStore {
	return u.claims
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return storeErr("commit transaction", u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
