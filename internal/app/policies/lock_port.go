package policies

import "context"

// Locker serializes work on one key across processes. release is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// NopLocker grants every lock immediately.
type NopLocker struct{}

func (NopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}
