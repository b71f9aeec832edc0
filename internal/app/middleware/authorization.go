package middleware

import (
	"context"
	"slices"

	"hotelbook/internal/domain/shared/apperr"
)

// RoleSystem is carried by in-process callers such as consumers and schedulers.
const RoleSystem = "system"

var (
	ErrUnauthenticated = apperr.New(apperr.KindUnauthorized, "authentication required")
	ErrForbidden       = apperr.New(apperr.KindForbidden, "insufficient role")
)

// Actor is the authenticated caller of a command or query.
type Actor struct {
	ID   string
	Role string
}

type actorKey struct{}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// RoleRestricted messages list the roles allowed to send them.
type RoleRestricted interface {
	AllowedRoles() []string
}

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// RoleAuthorizer admits unrestricted messages and system callers unconditionally.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	restricted, ok := message.(RoleRestricted)
	if !ok {
		return nil
	}
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.ID == "" {
		return ErrUnauthenticated
	}
	if actor.Role == RoleSystem || slices.Contains(restricted.AllowedRoles(), actor.Role) {
		return nil
	}
	return ErrForbidden
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guardCommands(a.Authorize)
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return guardQueries(a.Authorize)
}
