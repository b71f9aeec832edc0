package middleware

import (
	"context"

	"hotelbook/internal/domain/shared/apperr"
)

type Validator interface {
	Validate(ctx context.Context, message any) error
}

// SelfChecking messages carry rules a struct-tag validator cannot express,
// such as cross-field date ordering.
type SelfChecking interface {
	Check() error
}

func Validation(v Validator) CommandMiddleware {
	return guardCommands(validate(v))
}

func QueryValidation(v Validator) QueryMiddleware {
	return guardQueries(validate(v))
}

func validate(v Validator) check {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(ctx context.Context, message any) error {
		if err := v.Validate(ctx, message); err != nil {
			return err
		}
		sc, ok := message.(SelfChecking)
		if !ok {
			return nil
		}
		if err := sc.Check(); err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				return &apperr.Error{Kind: apperr.KindValidation, Err: err}
			}
			return err
		}
		return nil
	}
}
