package middleware

import (
	"context"
	"log/slog"
	"time"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/queries"
	"hotelbook/internal/domain/shared/apperr"
)

type CommandMiddleware func(next commands.Bus) commands.Bus

type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps base so that mws[0] runs first.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

type queryFunc func(ctx context.Context, query queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

// check is a pre-dispatch gate shared by commands and queries.
type check func(ctx context.Context, message any) error

func guardCommands(gate check) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := gate(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func guardQueries(gate check) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := gate(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}

// Logging records every dispatch with its duration; internal failures are logged at error level.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			started := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			logDispatch(ctx, logger, "command", cmd.Key(), started, err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			started := time.Now()
			res, err := next.Ask(ctx, q)
			logDispatch(ctx, logger, "query", q.Key(), started, err)
			return res, err
		})
	}
}

func logDispatch(ctx context.Context, logger *slog.Logger, kind, key string, started time.Time, err error) {
	attrs := []any{kind, key, "duration", time.Since(started)}
	if actor, ok := ActorFromContext(ctx); ok {
		attrs = append(attrs, "actor_id", actor.ID)
	}
	switch {
	case err == nil:
		logger.DebugContext(ctx, "dispatched", attrs...)
	case apperr.KindOf(err) == apperr.KindInternal || apperr.KindOf(err) == apperr.KindDependency:
		logger.ErrorContext(ctx, "dispatch failed", append(attrs, "error", err)...)
	default:
		logger.InfoContext(ctx, "dispatch rejected", append(attrs, "error", err)...)
	}
}
