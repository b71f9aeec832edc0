package middleware

import (
	"context"
	"log/slog"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/outbox"
)

// OutboxFlush hands committed events to the outbox once a command succeeds.
// The state change is already durable by then, so a flush failure is logged and
// left to the relay worker instead of failing the command.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				logger.WarnContext(ctx, "outbox flush deferred to relay", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
