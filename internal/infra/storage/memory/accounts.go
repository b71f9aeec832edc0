package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainaccount "hotelbook/internal/domain/account"
	"hotelbook/internal/domain/shared/money"
)

// AccountRepository keeps wallets and their ledger in memory.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[domainaccount.Ref]domainaccount.Account
	ledger   map[string]domainaccount.Entry
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[domainaccount.Ref]domainaccount.Account),
		ledger:   make(map[string]domainaccount.Entry),
	}
}

// Put seeds or replaces an account.
func (r *AccountRepository) Put(acc domainaccount.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc.PropertyIDs = append([]string(nil), acc.PropertyIDs...)
	r.accounts[acc.Ref] = acc
}

func (r *AccountRepository) ByID(ctx context.Context, ref domainaccount.Ref) (*domainaccount.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[ref]
	if !ok {
		return nil, domainaccount.ErrNotFound
	}
	acc.PropertyIDs = append([]string(nil), acc.PropertyIDs...)
	return &acc, nil
}

// Apply checks the key, the account and the overdraft rule under one lock, so
// a debit is either fully recorded or not at all.
func (r *AccountRepository) Apply(ctx context.Context, adj domainaccount.Adjustment, at time.Time) (bool, error) {
	if err := adj.Validate(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.ledger[adj.Key]; seen {
		return false, nil
	}
	acc, ok := r.accounts[adj.Account]
	if !ok {
		return false, domainaccount.ErrNotFound
	}
	if acc.Wallet.Currency == "" {
		acc.Wallet = money.Zero(adj.Delta.Currency)
	}
	balance, err := acc.Wallet.Add(adj.Delta)
	if err != nil {
		return false, err
	}
	if adj.NoOverdraft && balance.Amount < 0 {
		return false, domainaccount.ErrInsufficientFunds
	}
	acc.Wallet = balance
	acc.UpdatedAt = at.UTC()
	r.accounts[adj.Account] = acc
	r.ledger[adj.Key] = domainaccount.Entry{
		Key:       adj.Key,
		Account:   adj.Account,
		Delta:     adj.Delta,
		BookingID: adj.BookingID,
		Reason:    adj.Reason,
		At:        at.UTC(),
	}
	return true, nil
}

func (r *AccountRepository) HasEntry(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ledger[key]
	return ok, nil
}

// Entries returns the account's ledger, newest first.
func (r *AccountRepository) Entries(ctx context.Context, ref domainaccount.Ref) ([]domainaccount.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainaccount.Entry, 0)
	for _, e := range r.ledger {
		if e.Account == ref {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].Key < out[j].Key
		}
		return out[i].At.After(out[j].At)
	})
	return out, nil
}

var _ domainaccount.Repository = (*AccountRepository)(nil)
