package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

// SessionCarrier is implemented by units whose driver session has to travel on
// the context for repository calls to join the transaction.
type SessionCarrier interface {
	InjectContext(ctx context.Context) context.Context
}

// Attach binds unit to ctx so nested handlers reuse it instead of opening their own.
func Attach(ctx context.Context, unit UnitOfWork) context.Context {
	if carrier, ok := unit.(SessionCarrier); ok {
		ctx = carrier.InjectContext(ctx)
	}
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok
}
