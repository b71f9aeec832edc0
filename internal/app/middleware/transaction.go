package middleware

import (
	"context"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// TxOptioned commands choose their own transaction options.
type TxOptioned interface {
	TxOptions() uow.TxOptions
}

// CommandTxOptions reads options from commands implementing TxOptioned.
func CommandTxOptions(cmd commands.Command) uow.TxOptions {
	if c, ok := cmd.(TxOptioned); ok {
		return c.TxOptions()
	}
	return uow.TxOptions{}
}

// Transaction runs each command inside one unit of work. Commands that open
// their own units, such as the gateway-facing booking creation, pass through.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			if opts.SelfManaged {
				return next.Dispatch(ctx, cmd)
			}
			var res any
			err := uow.Run(ctx, factory, opts, func(ctx context.Context, _ uow.UnitOfWork) error {
				var err error
				res, err = next.Dispatch(ctx, cmd)
				return err
			})
			if err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
