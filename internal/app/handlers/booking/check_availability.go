package booking

import (
	"context"
	"strings"

	"hotelbook/internal/app/handlers/support"
	"hotelbook/internal/app/queries"
	"hotelbook/internal/app/uow"
	domainproperty "hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/daterange"
)

const checkAvailabilityKey = "booking.check_availability"

type CheckAvailabilityQuery struct {
	PropertyID string `validate:"required"`
	CheckIn    string
	CheckOut   string
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

func (q CheckAvailabilityQuery) Check() error {
	if _, err := daterange.Parse(q.CheckIn, q.CheckOut); err != nil {
		return apperr.Validation("check availability", err)
	}
	return nil
}

type CheckAvailabilityResult struct {
	IsAvailable bool `json:"is_available"`
}

// CheckAvailabilityHandler reports whether no booking of any status touches the requested stay.
type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (CheckAvailabilityResult, error) {
	dr, err := daterange.Parse(q.CheckIn, q.CheckOut)
	if err != nil {
		return CheckAvailabilityResult{}, apperr.Validation("check availability", err)
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return CheckAvailabilityResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	overlapping, err := unit.Bookings().ListOverlapping(execCtx, domainproperty.ID(strings.TrimSpace(q.PropertyID)), dr)
	if err != nil {
		return CheckAvailabilityResult{}, err
	}
	return CheckAvailabilityResult{IsAvailable: len(overlapping) == 0}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, CheckAvailabilityResult] = (*CheckAvailabilityHandler)(nil)
