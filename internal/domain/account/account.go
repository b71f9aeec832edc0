package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/money"
)

var (
	ErrNotFound          = apperr.New(apperr.KindNotFound, "account: not found")
	ErrInsufficientFunds = apperr.New(apperr.KindInsufficientFunds, "account: insufficient wallet balance")
	ErrKeyRequired       = errors.New("account: adjustment key is required")
	ErrInvalidKind       = errors.New("account: invalid account kind")
)

// Kind selects the collection an account lives in.
type Kind string

const (
	KindGuest    Kind = "guest"
	KindManager  Kind = "manager"
	KindPlatform Kind = "platform"
)

func (k Kind) Valid() bool {
	switch k {
	case KindGuest, KindManager, KindPlatform:
		return true
	}
	return false
}

// Ref addresses one wallet.
type Ref struct {
	Kind Kind
	ID   string
}

func Guest(id string) Ref    { return Ref{Kind: KindGuest, ID: id} }
func Manager(id string) Ref  { return Ref{Kind: KindManager, ID: id} }
func Platform(id string) Ref { return Ref{Kind: KindPlatform, ID: id} }

type Account struct {
	Ref
	Name        string
	Email       string
	Phone       string
	Wallet      money.Money
	PropertyIDs []string
	UpdatedAt   time.Time
}

// Adjustment is a single wallet movement. Key makes it idempotent: a second
// adjustment with a recorded key leaves the balance untouched.
type Adjustment struct {
	Key       string
	Account   Ref
	Delta     money.Money
	BookingID string
	Reason    string
	// NoOverdraft rejects a debit that would leave the balance negative.
	NoOverdraft bool
}

func (a Adjustment) Validate() error {
	if strings.TrimSpace(a.Key) == "" {
		return ErrKeyRequired
	}
	if !a.Account.Kind.Valid() || strings.TrimSpace(a.Account.ID) == "" {
		return ErrInvalidKind
	}
	return nil
}

// Entry is the ledger record written alongside every applied adjustment.
type Entry struct {
	Key       string
	Account   Ref
	Delta     money.Money
	BookingID string
	Reason    string
	At        time.Time
}

type Repository interface {
	ByID(ctx context.Context, ref Ref) (*Account, error)
	// Apply records the adjustment and moves the balance. applied is false when
	// the key was already recorded.
	Apply(ctx context.Context, adj Adjustment, at time.Time) (applied bool, err error)
	HasEntry(ctx context.Context, key string) (bool, error)
	Entries(ctx context.Context, ref Ref) ([]Entry, error)
}

// ManagesProperty reports whether a manager account owns the property.
func (a *Account) ManagesProperty(propertyID string) bool {
	for _, id := range a.PropertyIDs {
		if id == propertyID {
			return true
		}
	}
	return false
}
