package mongo

import (
	"context"
	"fmt"
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates the indexes of every store in order. The night claim
// index must exist before the first booking is accepted.
func EnsureIndexes(ctx context.Context, stores ...any) error {
	for _, s := range stores {
		ix, ok := s.(indexer)
		if !ok {
			continue
		}
		if err := ix.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes %T: %w", s, err)
		}
	}
	return nil
}

// Stores lists the factory repositories for EnsureIndexes.
func (f Factory) Stores() []any {
	return []any{f.BookingRepo, f.CancellationRepo, f.PropertyRepo, f.AccountRepo, f.ClaimRepo}
}
